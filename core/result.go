package core

// CurrencyInfo 是数据集的货币描述，用于结果展示与单位换算。
// Scale 表示记账单位相对基础货币的倍数（如印度数据以 lakh 记账，Scale=100000）。
type CurrencyInfo struct {
	Symbol string  `json:"symbol" yaml:"symbol"`
	Unit   string  `json:"unit" yaml:"unit"`
	Scale  float64 `json:"scale" yaml:"scale"`
}

// DealResult 是成交预测的结果：class 1 的概率与按阈值切分的标签。
type DealResult struct {
	Probability float64 `json:"probability"` // [0,1]
	Label       int     `json:"label"`       // 1=deal, 0=no deal
}

// ValuationResult 是估值回归的结果（数据集货币单位）。
// 区间由配置的残差带宽推导，不是模型输出。
type ValuationResult struct {
	Estimate float64      `json:"estimate"`
	Low      float64      `json:"low"`
	High     float64      `json:"high"`
	Currency CurrencyInfo `json:"currency"`
}

// InvestorScore 是单个投资人的意愿概率。
type InvestorScore struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
}

// InvestorResult 是投资人排序的结果。
//
//   - NoDeal=true 时为短路结果：成交概率低于门槛，未调用任何单投资人模型，
//     Ranking/Insights 为空，DealProbability 保留用于透明展示
//   - Skipped 记录模型缺失/损坏而被跳过的投资人（单点故障隔离，不致命）
type InvestorResult struct {
	Ranking         []InvestorScore `json:"ranking"` // 按概率降序，同分按 roster 顺序
	Insights        []string        `json:"insights,omitempty"`
	NoDeal          bool            `json:"no_deal"`
	DealProbability float64         `json:"deal_probability"`
	Skipped         []string        `json:"skipped,omitempty"`
}

// SimilarMatch 是相似检索的单条匹配。
type SimilarMatch struct {
	Name        string  `json:"name"`
	Industry    string  `json:"industry"`
	AskAmount   float64 `json:"ask_amount"`
	AskEquity   float64 `json:"ask_equity"`
	Description string  `json:"description"`
	Score       float64 `json:"score"` // 余弦相似度，[0,1]
}

// SimilarResult 是相似检索的结果，按 Score 降序。
type SimilarResult struct {
	Matches []SimilarMatch `json:"matches"`
}

// TaskSlot 是聚合预测中单任务的槽位标记：
// 任务失败时填充错误描述而不是中断整个调用。
type TaskSlot struct {
	Available bool   `json:"available"`
	Err       string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Predictions 是 PredictAll 的聚合结果，按任务分槽。
// 各槽位相互隔离：某任务的工件缺失不影响其他任务返回可用结果。
type Predictions struct {
	Dataset string `json:"dataset"`

	Deal     TaskSlot    `json:"deal"`
	DealData *DealResult `json:"deal_data,omitempty"`

	Valuation     TaskSlot         `json:"valuation"`
	ValuationData *ValuationResult `json:"valuation_data,omitempty"`

	Investors     TaskSlot        `json:"investors"`
	InvestorsData *InvestorResult `json:"investors_data,omitempty"`

	Similar     TaskSlot       `json:"similar"`
	SimilarData *SimilarResult `json:"similar_data,omitempty"`
}
