package feature

import (
	"strings"

	"github.com/rushteam/pitchkit/core"
)

// Preprocess 是单个模型工件携带的全部预处理状态：
// 特征名清单（训练期顺序）、行业词表、标准化器。
// 模型按名字取权重，顺序只用于对齐校验。
type Preprocess struct {
	FeatureNames []string        `json:"feature_names"`
	Encoder      IndustryEncoder `json:"encoder"`
	Scaler       *StandardScaler `json:"scaler,omitempty"`
}

// Vector 把 canonical 记录装配成特征 map：
//  1. 数值字段与投资人到场标记直接写入
//  2. 行业 one-hot（OOV 全零）
//  3. 标准化
//  4. 对齐训练期特征名：缺失补 0，多余丢弃
//
// 输出的 map 恰好包含 FeatureNames 中的全部 key，模型调用永远不会
// 碰到 null/缺 key。
func (p *Preprocess) Vector(rec *core.CanonicalRecord) map[string]float64 {
	features := map[string]float64{
		"ask_amount":          rec.AskAmount,
		"ask_equity":          rec.AskEquity,
		"valuation_requested": rec.ValuationRequested,
		"monthly_sales":       rec.MonthlySales,
	}
	for name, present := range rec.InvestorPresent {
		v := 0.0
		if present {
			v = 1.0
		}
		features[PresenceFeature(name)] = v
	}

	p.Encoder.Encode(rec.Industry, features)
	p.Scaler.Apply(features)

	aligned := make(map[string]float64, len(p.FeatureNames))
	for _, name := range p.FeatureNames {
		aligned[name] = features[name] // 缺失即 0
	}
	return aligned
}

// PresenceFeature 返回投资人到场标记的特征名，与训练期列名一致。
func PresenceFeature(investor string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(investor), " ", "_")) + "_present"
}
