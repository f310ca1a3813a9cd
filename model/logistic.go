// Package model 提供从 JSON 工件加载的本地模型实现。
// 工件由训练侧导出（树模型展开为节点数组、线性模型展开为权重表），
// 运行期只读，不含任何拟合逻辑。
package model

import (
	"math"

	"github.com/rushteam/pitchkit/core"
)

// LogisticModel 实现了逻辑回归 (Logistic Regression) 二分类器。
//
// 预测原理：
// 1. 线性加权求和: z = Bias + sum(Weight_i * Feature_i)
// 2. Sigmoid 变换: P = 1 / (1 + exp(-z))
//
// 最终输出值 P 代表 class 1 的概率，范围在 (0, 1) 之间。
type LogisticModel struct {
	Bias    float64            `json:"bias"`
	Weights map[string]float64 `json:"weights"`
}

func (m *LogisticModel) Name() string { return "logistic" }

func (m *LogisticModel) PredictProba(features map[string]float64) (float64, error) {
	score := m.Bias
	for k, v := range features {
		if w, ok := m.Weights[k]; ok {
			score += w * v
		}
	}
	return sigmoid(score), nil
}

func (m *LogisticModel) Predict(features map[string]float64) (int, error) {
	p, err := m.PredictProba(features)
	if err != nil {
		return 0, err
	}
	if p >= 0.5 {
		return 1, nil
	}
	return 0, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

var _ core.Classifier = (*LogisticModel)(nil)
