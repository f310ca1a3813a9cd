package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/pitchkit/core"
)

// Investor 描述 roster 中的单个投资人及其在原始数据中的列名。
// roster 是有序的：排序同分时按此顺序稳定决胜。
type Investor struct {
	Name           string `yaml:"name"`
	PresenceColumn string `yaml:"presence_column"`
	AmountColumn   string `yaml:"investment_amount_column"`
	EquityColumn   string `yaml:"investment_equity_column"`
}

// ModelPaths 是各任务模型工件的位置。
type ModelPaths struct {
	Deal       string `yaml:"deal"`
	Valuation  string `yaml:"valuation"`
	Investors  string `yaml:"investors"`
	Similarity string `yaml:"similarity"`
}

// InsightRule 是投资人排序洞察的阈值规则：When 为 CEL 布尔表达式，
// 命中时输出 Message（支持 {top_investor} / {top_probability} 占位符）。
type InsightRule struct {
	When    string `yaml:"when"`
	Message string `yaml:"message"`
}

// Policy 是数据集级的推理策略，全部可配置而非硬编码。
type Policy struct {
	// DealThreshold 是投资人排序的成交概率门槛：低于此值直接短路为
	// "无投资人会投" 的结果，不调用单投资人模型。
	DealThreshold float64 `yaml:"deal_threshold"`

	// LabelThreshold 是成交标签的切分阈值（label=1 当概率 >= 此值）。
	LabelThreshold float64 `yaml:"label_threshold"`

	// ValuationBand 是估值置信区间的乘性半宽：区间为 estimate*(1∓band)。
	ValuationBand float64 `yaml:"valuation_band"`

	// SimilarityTopN 是相似检索返回的邻居数上限。
	SimilarityTopN int `yaml:"similarity_top_n"`

	// SimilarityFloor 是相似度下限（排除式）：低于下限的邻居被丢弃，不补零。
	SimilarityFloor float64 `yaml:"similarity_floor"`

	// InsightRules 为空时使用内置默认规则。
	InsightRules []InsightRule `yaml:"insight_rules"`
}

// DatasetConfig 是单个数据集的全部元数据：启动时加载一次，之后只读。
// 热更新不支持，修改配置需要重启进程。
type DatasetConfig struct {
	ID       string            `yaml:"id"`
	Name     string            `yaml:"name"`
	Currency core.CurrencyInfo `yaml:"currency"`

	// Investors 是有序的投资人 roster；数量与成员随数据集变化，
	// 作为数据表达而非编译期字段，新增数据集不需要改编排逻辑。
	Investors []Investor `yaml:"sharks"`

	// Columns 是 canonical 字段名 -> 原始列名的映射；
	// 值为空串表示该数据集没有此列（适配为零值）。
	Columns map[string]string `yaml:"column_mapping"`

	// Required 列出该数据集已训练模型必需的 canonical 字段：
	// 原始记录缺失对应列且无安全默认值时，适配必须失败而不是静默补零。
	Required []string `yaml:"required"`

	Models ModelPaths `yaml:"model_paths"`
	Policy Policy     `yaml:"policy"`
}

// 策略默认值。训练期语义未最终确认前保持可配置（见 DESIGN.md）。
const (
	DefaultDealThreshold   = 0.5
	DefaultLabelThreshold  = 0.5
	DefaultValuationBand   = 0.3
	DefaultSimilarityTopN  = 5
	DefaultSimilarityFloor = 0.0
)

// LoadFile 从 YAML 文件加载单个数据集配置，并应用策略默认值。
func LoadFile(path string) (*DatasetConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var cfg DatasetConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if cfg.ID == "" {
		return nil, fmt.Errorf("dataset config %s: missing id", path)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *DatasetConfig) applyDefaults() {
	if c.Name == "" {
		c.Name = c.ID
	}
	if c.Currency.Scale <= 0 {
		c.Currency.Scale = 1
	}
	if c.Policy.DealThreshold <= 0 {
		c.Policy.DealThreshold = DefaultDealThreshold
	}
	if c.Policy.LabelThreshold <= 0 {
		c.Policy.LabelThreshold = DefaultLabelThreshold
	}
	if c.Policy.ValuationBand <= 0 {
		c.Policy.ValuationBand = DefaultValuationBand
	}
	if c.Policy.SimilarityTopN <= 0 {
		c.Policy.SimilarityTopN = DefaultSimilarityTopN
	}
	if c.Policy.SimilarityFloor < 0 {
		c.Policy.SimilarityFloor = DefaultSimilarityFloor
	}
}

// InvestorNames 返回 roster 中的投资人名称（保持配置顺序）。
func (c *DatasetConfig) InvestorNames() []string {
	names := make([]string, 0, len(c.Investors))
	for _, inv := range c.Investors {
		names = append(names, inv.Name)
	}
	return names
}

// RawColumn 返回 canonical 字段对应的原始列名；("", false) 表示该数据集无此列。
func (c *DatasetConfig) RawColumn(canonical string) (string, bool) {
	raw, ok := c.Columns[canonical]
	if !ok || raw == "" || raw == "null" {
		return "", false
	}
	return raw, true
}

// IsRequired 判断 canonical 字段是否为该数据集模型的必需输入。
func (c *DatasetConfig) IsRequired(canonical string) bool {
	for _, f := range c.Required {
		if f == canonical {
			return true
		}
	}
	return false
}
