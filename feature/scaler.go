package feature

// StandardScaler 是训练期拟合的标准化器：x' = (x - mean) / std。
// 均值与标准差按特征名存储；std 为 0 的退化特征按原值透传。
// 二值特征（presence、one-hot）不在 Columns 中，保持 0/1 不缩放。
type StandardScaler struct {
	Columns []string           `json:"columns"`
	Means   map[string]float64 `json:"means"`
	Stds    map[string]float64 `json:"stds"`
}

// Apply 就地标准化 features 中的数值列。
func (s *StandardScaler) Apply(features map[string]float64) {
	if s == nil {
		return
	}
	for _, col := range s.Columns {
		v, ok := features[col]
		if !ok {
			continue
		}
		std := s.Stds[col]
		if std == 0 {
			continue
		}
		features[col] = (v - s.Means[col]) / std
	}
}
