// Package adapter 把各数据集的原始记录归一化为 canonical 记录。
// 每个数据集一个变体，统一实现 Adapter 接口，通过注册表按数据集 id 选择；
// 未注册的数据集回退到纯映射驱动的基础适配器。
package adapter

import (
	"strings"
	"sync"

	"github.com/rushteam/pitchkit/config"
	"github.com/rushteam/pitchkit/core"
)

// canonical 字段名。与 DatasetConfig.Columns 的 key 一致。
const (
	FieldIndustry           = "industry"
	FieldAskAmount          = "ask_amount"
	FieldAskEquity          = "ask_equity"
	FieldValuationRequested = "valuation_requested"
	FieldMonthlySales       = "monthly_sales"
	FieldDescription        = "business_description"
	FieldStartupName        = "startup_name"
)

// Adapter 是数据集适配能力的最小抽象：从该数据集的原生形态产出 canonical 记录。
// 纯变换，无副作用。必需列缺失且无安全默认值时返回 SCHEMA_ERROR，
// 绝不对模型训练期依赖的字段静默补零。
type Adapter interface {
	Name() string
	Normalize(raw map[string]any, cfg *config.DatasetConfig) (*core.CanonicalRecord, error)
}

var (
	defaultAdapters   = make(map[string]Adapter)
	defaultAdaptersMu sync.RWMutex
)

// Register 注册一种数据集的适配器，建议在各变体文件的 init 中调用，
// 例如：func init() { adapter.Register("india", &IndiaAdapter{}) }
func Register(datasetID string, a Adapter) {
	if datasetID == "" || a == nil {
		return
	}
	defaultAdaptersMu.Lock()
	defer defaultAdaptersMu.Unlock()
	defaultAdapters[strings.ToLower(datasetID)] = a
}

// For 按数据集 id 查找适配器；未注册时回退到映射驱动的基础适配器。
func For(datasetID string) Adapter {
	defaultAdaptersMu.RLock()
	defer defaultAdaptersMu.RUnlock()
	if a, ok := defaultAdapters[strings.ToLower(datasetID)]; ok {
		return a
	}
	return &MappingAdapter{}
}

// Supported 返回已注册适配器的数据集 id 列表（用于错误提示与校验）。
func Supported() []string {
	defaultAdaptersMu.RLock()
	defer defaultAdaptersMu.RUnlock()
	ids := make([]string, 0, len(defaultAdapters))
	for id := range defaultAdapters {
		ids = append(ids, id)
	}
	return ids
}
