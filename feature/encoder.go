// Package feature 把 canonical 记录装配成模型特征向量：
// 行业 one-hot、数值标准化、训练期特征名对齐，以及可选的在线特征补充。
// 全部使用训练期导出的固定状态，推理期不拟合任何东西。
package feature

import "strings"

// IndustryEncoder 是行业 one-hot 编码器：词表在训练期固定，
// 推理期未见过的行业编码为全零（OOV 是预期行为，不是错误）。
type IndustryEncoder struct {
	// Columns 是训练期的 one-hot 列名，形如 "industry_Food"。
	Columns []string `json:"industry_columns"`
}

const industryPrefix = "industry_"

// Encode 将行业值写入 features：词表内的列命中为 1，其余为 0。
func (e *IndustryEncoder) Encode(industry string, features map[string]float64) {
	hit := industryColumn(industry)
	for _, col := range e.Columns {
		if col == hit {
			features[col] = 1
		} else {
			features[col] = 0
		}
	}
}

func industryColumn(industry string) string {
	return industryPrefix + strings.TrimSpace(industry)
}
