package adapter

import (
	"fmt"

	"github.com/rushteam/pitchkit/config"
	"github.com/rushteam/pitchkit/core"
	"github.com/rushteam/pitchkit/pkg/conv"
)

// MappingAdapter 是映射驱动的基础适配器：按 DatasetConfig.Columns
// 做列名查找，不做任何数据集特有的单位换算。
// 各数据集变体内嵌此类型并覆写 Normalize 补充自己的换算逻辑。
type MappingAdapter struct{}

func (a *MappingAdapter) Name() string { return "adapter.mapping" }

func (a *MappingAdapter) Normalize(raw map[string]any, cfg *config.DatasetConfig) (*core.CanonicalRecord, error) {
	return normalizeByMapping(raw, cfg)
}

// normalizeByMapping 是所有变体共享的映射归一化：
//   - 数值字段：有映射且原始列存在 -> 转换；必需字段缺列 -> SCHEMA_ERROR；
//     可选字段缺列 -> 0
//   - 文本字段：缺失 -> 空串
//   - 投资人到场：按 roster 的 presence_column 逐个取布尔，缺列视为不在场
func normalizeByMapping(raw map[string]any, cfg *config.DatasetConfig) (*core.CanonicalRecord, error) {
	if raw == nil {
		return nil, core.NewDomainError(core.ModuleAdapter, core.ErrorCodeSchema, "raw record is nil")
	}

	rec := core.NewCanonicalRecord()

	var err error
	if rec.AskAmount, err = numericField(raw, cfg, FieldAskAmount); err != nil {
		return nil, err
	}
	if rec.AskEquity, err = numericField(raw, cfg, FieldAskEquity); err != nil {
		return nil, err
	}
	if rec.ValuationRequested, err = numericField(raw, cfg, FieldValuationRequested); err != nil {
		return nil, err
	}
	if rec.MonthlySales, err = numericField(raw, cfg, FieldMonthlySales); err != nil {
		return nil, err
	}

	if rec.Industry, err = textField(raw, cfg, FieldIndustry); err != nil {
		return nil, err
	}
	// 描述与名称只用于相似检索与展示，永远不是必需列。
	rec.BusinessDescription, _ = textField(raw, cfg, FieldDescription)
	rec.StartupName, _ = textField(raw, cfg, FieldStartupName)

	for _, inv := range cfg.Investors {
		present := false
		if inv.PresenceColumn != "" {
			if v, ok := raw[inv.PresenceColumn]; ok {
				if b, ok := conv.ToBool(v); ok {
					present = b
				}
			}
		}
		rec.SetPresent(inv.Name, present)
	}

	if rec.AskEquity < 0 || rec.AskEquity > 100 {
		return nil, core.NewDomainError(core.ModuleAdapter, core.ErrorCodeSchema,
			fmt.Sprintf("ask_equity out of range [0,100]: %v", rec.AskEquity))
	}

	return rec, nil
}

func numericField(raw map[string]any, cfg *config.DatasetConfig, field string) (float64, error) {
	col, mapped := cfg.RawColumn(field)
	if !mapped {
		// 该数据集没有此列：映射为 null 表示模型训练时就不含此特征，补零安全。
		return 0, nil
	}
	v, ok := raw[col]
	if !ok || v == nil {
		if cfg.IsRequired(field) {
			return 0, missingColumn(cfg.ID, field, col)
		}
		return 0, nil
	}
	f, ok := conv.ToFloat64(v)
	if !ok {
		if cfg.IsRequired(field) {
			return 0, core.NewDomainError(core.ModuleAdapter, core.ErrorCodeSchema,
				fmt.Sprintf("dataset %s: column %q has non-numeric value %v", cfg.ID, col, v))
		}
		return 0, nil
	}
	if f < 0 {
		return 0, core.NewDomainError(core.ModuleAdapter, core.ErrorCodeSchema,
			fmt.Sprintf("dataset %s: column %q must be non-negative, got %v", cfg.ID, col, f))
	}
	return f, nil
}

func textField(raw map[string]any, cfg *config.DatasetConfig, field string) (string, error) {
	col, mapped := cfg.RawColumn(field)
	if !mapped {
		return "", nil
	}
	v, ok := raw[col]
	if !ok || v == nil {
		if cfg.IsRequired(field) {
			return "", missingColumn(cfg.ID, field, col)
		}
		return "", nil
	}
	s, _ := conv.ToString(v)
	if s == "" && cfg.IsRequired(field) {
		return "", missingColumn(cfg.ID, field, col)
	}
	return s, nil
}

func missingColumn(datasetID, field, col string) error {
	return core.NewDomainError(core.ModuleAdapter, core.ErrorCodeSchema,
		fmt.Sprintf("dataset %s: required field %q missing (raw column %q)", datasetID, field, col))
}
