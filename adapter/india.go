package adapter

import (
	"github.com/rushteam/pitchkit/config"
	"github.com/rushteam/pitchkit/core"
)

func init() { Register("india", &IndiaAdapter{}) }

// IndiaAdapter 适配 Shark Tank India 数据集。
// 金额以 lakh 记账（currency.scale=100000），股权已是百分比，无需换算；
// 原始数据常缺 Valuation Requested 列，可由 ask_amount/ask_equity 推导。
type IndiaAdapter struct {
	MappingAdapter
}

func (a *IndiaAdapter) Name() string { return "adapter.india" }

func (a *IndiaAdapter) Normalize(raw map[string]any, cfg *config.DatasetConfig) (*core.CanonicalRecord, error) {
	rec, err := normalizeByMapping(raw, cfg)
	if err != nil {
		return nil, err
	}

	// valuation = ask_amount / ask_equity * 100，与训练期目标构造一致。
	if rec.ValuationRequested == 0 && rec.AskAmount > 0 && rec.AskEquity > 0 {
		rec.ValuationRequested = rec.AskAmount / rec.AskEquity * 100
	}

	return rec, nil
}

var _ Adapter = (*IndiaAdapter)(nil)
