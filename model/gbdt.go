package model

import (
	"fmt"

	"github.com/rushteam/pitchkit/core"
)

// TreeNode 是回归树的单个节点。内部节点按 Feature <= Threshold 走左子树，
// 叶子节点（Left/Right 均为 nil）输出 Value。
type TreeNode struct {
	Feature   string    `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *TreeNode `json:"left,omitempty"`
	Right     *TreeNode `json:"right,omitempty"`
	Value     float64   `json:"value,omitempty"`
}

func (n *TreeNode) eval(features map[string]float64) float64 {
	cur := n
	for cur.Left != nil && cur.Right != nil {
		if features[cur.Feature] <= cur.Threshold {
			cur = cur.Left
		} else {
			cur = cur.Right
		}
	}
	return cur.Value
}

// GBDT 是梯度提升树 (Gradient Boosted Decision Trees) 的原始打分器：
// score = Base + LearningRate * sum(tree_i(x))。
// 分类/回归两种头由 GBDTClassifier / GBDTRegressor 包装。
type GBDT struct {
	Base         float64     `json:"base"`
	LearningRate float64     `json:"learning_rate"`
	Trees        []*TreeNode `json:"trees"`
}

// Score 返回未经变换的累加分数。
func (m *GBDT) Score(features map[string]float64) (float64, error) {
	if len(m.Trees) == 0 {
		return 0, fmt.Errorf("gbdt: empty ensemble")
	}
	lr := m.LearningRate
	if lr == 0 {
		lr = 1
	}
	score := m.Base
	for _, t := range m.Trees {
		if t == nil {
			continue
		}
		score += lr * t.eval(features)
	}
	return score, nil
}

// GBDTClassifier 是 GBDT 的二分类头：sigmoid(score) 作为 class 1 概率。
type GBDTClassifier struct {
	GBDT
}

func (m *GBDTClassifier) Name() string { return "gbdt" }

func (m *GBDTClassifier) PredictProba(features map[string]float64) (float64, error) {
	score, err := m.Score(features)
	if err != nil {
		return 0, err
	}
	return sigmoid(score), nil
}

func (m *GBDTClassifier) Predict(features map[string]float64) (int, error) {
	p, err := m.PredictProba(features)
	if err != nil {
		return 0, err
	}
	if p >= 0.5 {
		return 1, nil
	}
	return 0, nil
}

// GBDTRegressor 是 GBDT 的回归头：直接输出累加分数。
type GBDTRegressor struct {
	GBDT
}

func (m *GBDTRegressor) Name() string { return "gbdt" }

func (m *GBDTRegressor) Predict(features map[string]float64) (float64, error) {
	return m.Score(features)
}

var (
	_ core.Classifier = (*GBDTClassifier)(nil)
	_ core.Regressor  = (*GBDTRegressor)(nil)
)
