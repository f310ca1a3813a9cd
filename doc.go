// Package pitchkit 是一个创业路演结果预测工具包（Pitch Kit）。
//
// 设计要点：
//
//   - Canonical-first: 异构数据集（列名、币种、投资人阵容各异）先归一化为
//     统一的 canonical 记录，模型与编排逻辑只面向 canonical 形态
//   - Config-driven: 数据集差异（列映射、roster、阈值策略）全部表达为 YAML
//     配置，新增国家数据集不需要改代码
//   - 任务隔离: 成交/估值/投资人/相似四个任务独立加载、独立失败，聚合调用
//     按槽位隔离错误
package pitchkit

import (
	"github.com/rushteam/pitchkit/core"
	"github.com/rushteam/pitchkit/inference"
)

// 轻量 facade：便于用户直接 import "pitchkit" 使用核心抽象。
type (
	Orchestrator    = inference.Orchestrator
	Option          = inference.Option
	CanonicalRecord = core.CanonicalRecord
	Predictions     = core.Predictions
)

var (
	New             = inference.New
	WithEnricher    = inference.WithEnricher
	WithResultCache = inference.WithResultCache
)
