package core

import "context"

// Classifier 是二分类模型的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（model）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//   - 按任务暴露最小能力：分类器只需 PredictProba / Predict
//
// 使用场景：
//   - 成交预测（deal classifier）
//   - 单投资人意愿预测（每个投资人一个二分类器）
type Classifier interface {
	// Name 返回模型名称（用于日志/观测）
	Name() string

	// PredictProba 返回 class 1 的概率，范围 [0,1]
	PredictProba(features map[string]float64) (float64, error)

	// Predict 按 0.5 阈值返回二分类标签
	Predict(features map[string]float64) (int, error)
}

// Regressor 是回归模型的领域接口，只暴露 Predict。
// 若模型在变换后的目标空间训练（如对数空间），逆变换是编排层的职责，
// 回归器本身返回原始预测值。
type Regressor interface {
	Name() string
	Predict(features map[string]float64) (float64, error)
}

// NeighborIndex 是文本相似检索的领域接口。
// 实现持有训练期构建的固定词表与历史向量，查询时用同一词表向量化。
type NeighborIndex interface {
	Name() string

	// Query 返回与文本最相似的 topN 条历史记录（降序），
	// 低于 floor 的邻居被排除而不是补零。空语料返回空列表。
	Query(text string, topN int, floor float64) ([]SimilarMatch, error)

	// Size 返回历史语料条数
	Size() int
}

// FeatureEnricher 是可选的在线特征补充端口：在模型调用前
// 为特征向量合并外部特征（如行业级聚合统计）。
// 实现可以是 Feast 等在线特征库；nil 表示不启用。
type FeatureEnricher interface {
	Name() string
	Enrich(ctx context.Context, datasetID string, rec *CanonicalRecord, features map[string]float64) error
}
