package core

// CanonicalRecord 是全链路唯一的特征契约：所有数据集的原始记录
// 先由 Adapter 归一化成此结构，再进入任何模型。
//
// 约定：
//   - 适配后，数据集模型必需的字段一定存在；可选字段缺失时为零值/空串
//   - 不允许 null 透传进模型调用（缺列且无安全默认值时适配直接失败）
type CanonicalRecord struct {
	Industry           string  // 行业，取值于数据集自身的枚举集合
	AskAmount          float64 // 请求金额（数据集货币单位）
	AskEquity          float64 // 出让股权百分比，[0,100]
	ValuationRequested float64 // 请求估值
	MonthlySales       float64 // 月销售额（部分数据集缺失，适配为 0）

	// BusinessDescription 是自由文本的业务描述，允许为空；
	// 为空时相似检索不可用，但不影响其他任务。
	BusinessDescription string

	// StartupName 仅用于结果展示（相似检索的匹配名称），不进特征。
	StartupName string

	// InvestorPresent 记录该数据集投资人（shark）的到场情况，
	// key 为投资人名称（与配置中的 roster 对应）。
	InvestorPresent map[string]bool
}

// NewCanonicalRecord 创建一个空的规范记录。
func NewCanonicalRecord() *CanonicalRecord {
	return &CanonicalRecord{
		InvestorPresent: make(map[string]bool),
	}
}

// SetPresent 写入投资人到场标记。
func (r *CanonicalRecord) SetPresent(investor string, present bool) {
	if r.InvestorPresent == nil {
		r.InvestorPresent = make(map[string]bool)
	}
	r.InvestorPresent[investor] = present
}

// Present 读取投资人到场标记，未知投资人视为不在场。
func (r *CanonicalRecord) Present(investor string) bool {
	if r.InvestorPresent == nil {
		return false
	}
	return r.InvestorPresent[investor]
}
