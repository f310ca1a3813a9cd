package model

import "github.com/rushteam/pitchkit/core"

// LinearModel 是线性回归器：y = Bias + sum(Weight_i * Feature_i)。
// 目标空间由训练侧决定（估值模型在 log1p 空间训练），
// 逆变换不在这里做，是编排层的职责。
type LinearModel struct {
	Bias    float64            `json:"bias"`
	Weights map[string]float64 `json:"weights"`
}

func (m *LinearModel) Name() string { return "linear" }

func (m *LinearModel) Predict(features map[string]float64) (float64, error) {
	score := m.Bias
	for k, v := range features {
		if w, ok := m.Weights[k]; ok {
			score += w * v
		}
	}
	return score, nil
}

var _ core.Regressor = (*LinearModel)(nil)
