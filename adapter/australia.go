package adapter

import (
	"github.com/rushteam/pitchkit/config"
	"github.com/rushteam/pitchkit/core"
)

func init() { Register("australia", &AustraliaAdapter{}) }

// AustraliaAdapter 适配 Shark Tank Australia 数据集。
// 该数据源的股权以小数（0.10 = 10%）记录，归一化为百分比。
type AustraliaAdapter struct {
	MappingAdapter
}

func (a *AustraliaAdapter) Name() string { return "adapter.australia" }

func (a *AustraliaAdapter) Normalize(raw map[string]any, cfg *config.DatasetConfig) (*core.CanonicalRecord, error) {
	rec, err := normalizeByMapping(raw, cfg)
	if err != nil {
		return nil, err
	}

	// 小数股权 -> 百分比。1 以内视为小数形态（1% 以下的真实出让在该数据集不存在）。
	if rec.AskEquity > 0 && rec.AskEquity <= 1 {
		rec.AskEquity *= 100
	}

	// 该数据集没有估值列，由换算后的 ask 推导。
	if rec.ValuationRequested == 0 && rec.AskAmount > 0 && rec.AskEquity > 0 {
		rec.ValuationRequested = rec.AskAmount / rec.AskEquity * 100
	}

	return rec, nil
}

var _ Adapter = (*AustraliaAdapter)(nil)
