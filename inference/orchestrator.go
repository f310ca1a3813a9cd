// Package inference 是对外的推理入口：接收数据集 id 与 canonical 记录，
// 查配置与模型注册表，分发到各任务模型，并把原始输出后处理成结构化、
// 可解释的结果。
//
// 设计要点：
//   - 编排器无每次调用的可变状态，天然支持并发调用
//   - 单任务错误类型化返回，绝不静默转成默认/零预测
//   - 聚合调用（PredictAll）按任务隔离失败
package inference

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/pitchkit/adapter"
	"github.com/rushteam/pitchkit/config"
	"github.com/rushteam/pitchkit/core"
	"github.com/rushteam/pitchkit/feature"
	"github.com/rushteam/pitchkit/registry"
)

// Orchestrator 是多模型推理编排器。
// 依赖显式注入（配置注册表、模型注册表），测试可替换假工件加载器。
type Orchestrator struct {
	configs  *config.Registry
	models   *registry.Registry
	enricher core.FeatureEnricher
	cache    *resultCache
	insights *insightEngine
}

// Option 配置 Orchestrator 的可选能力。
type Option func(*Orchestrator)

// WithEnricher 启用在线特征补充（如 Feast 行业聚合特征）。
// 补充是尽力而为的增强：失败时退化为不补充，不影响预测可用性。
func WithEnricher(e core.FeatureEnricher) Option {
	return func(o *Orchestrator) { o.enricher = e }
}

// WithResultCache 启用 PredictAll 的结果缓存，ttl 为秒。
func WithResultCache(s core.Store, ttl int) Option {
	return func(o *Orchestrator) { o.cache = newResultCache(s, ttl) }
}

// New 创建推理编排器。
func New(configs *config.Registry, models *registry.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		configs:  configs,
		models:   models,
		insights: newInsightEngine(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// DatasetInfo 是数据集列表操作返回的元数据，供展示层构建输入表单。
type DatasetInfo struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Currency  core.CurrencyInfo `json:"currency"`
	Investors []string          `json:"investors"`
}

// Datasets 返回已知数据集及其货币/投资人 roster 元数据。
func (o *Orchestrator) Datasets() []DatasetInfo {
	ids := o.configs.List()
	out := make([]DatasetInfo, 0, len(ids))
	for _, id := range ids {
		cfg, err := o.configs.Get(id)
		if err != nil {
			continue
		}
		out = append(out, DatasetInfo{
			ID:        cfg.ID,
			Name:      cfg.Name,
			Currency:  cfg.Currency,
			Investors: cfg.InvestorNames(),
		})
	}
	return out
}

// Normalize 把该数据集原生形态的原始记录归一化为 canonical 记录。
// 未知数据集返回 CONFIG_NOT_FOUND；必需列缺失返回 SCHEMA_ERROR。
func (o *Orchestrator) Normalize(datasetID string, raw map[string]any) (*core.CanonicalRecord, error) {
	cfg, err := o.configs.Get(datasetID)
	if err != nil {
		return nil, err
	}
	return adapter.For(cfg.ID).Normalize(raw, cfg)
}

// PredictDeal 运行成交分类器：返回 class 1 概率与按阈值切分的标签。
func (o *Orchestrator) PredictDeal(ctx context.Context, datasetID string, rec *core.CanonicalRecord) (*core.DealResult, error) {
	cfg, err := o.configs.Get(datasetID)
	if err != nil {
		return nil, err
	}
	handle, err := o.models.Deal(ctx, cfg.ID)
	if err != nil {
		return nil, err
	}

	features := o.assemble(ctx, cfg.ID, rec, handle.Pre)
	proba, err := handle.Classifier.PredictProba(features)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleInference, core.ErrorCodeInternalError,
			fmt.Sprintf("deal prediction failed: %v", err))
	}

	label := 0
	if proba >= cfg.Policy.LabelThreshold {
		label = 1
	}
	return &core.DealResult{Probability: proba, Label: label}, nil
}

// PredictValuation 运行估值回归器。模型在变换后的目标空间训练时
// （工件的 target 字段），这里负责逆变换回货币单位；置信区间按配置的
// 乘性带宽从点估计推导。
func (o *Orchestrator) PredictValuation(ctx context.Context, datasetID string, rec *core.CanonicalRecord) (*core.ValuationResult, error) {
	cfg, err := o.configs.Get(datasetID)
	if err != nil {
		return nil, err
	}
	handle, err := o.models.Valuation(ctx, cfg.ID)
	if err != nil {
		return nil, err
	}

	features := o.assemble(ctx, cfg.ID, rec, handle.Pre)
	raw, err := handle.Regressor.Predict(features)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleInference, core.ErrorCodeInternalError,
			fmt.Sprintf("valuation prediction failed: %v", err))
	}

	estimate := raw
	if handle.Target == "log1p" {
		estimate = math.Expm1(raw)
	}
	if estimate < 0 {
		estimate = 0
	}

	band := cfg.Policy.ValuationBand
	return &core.ValuationResult{
		Estimate: estimate,
		Low:      estimate * (1 - band),
		High:     estimate * (1 + band),
		Currency: cfg.Currency,
	}, nil
}

// PredictInvestors 先取得成交概率，再决定是否运行投资人排序。
// 成交概率低于门槛时短路返回 "无投资人会投" 的结果（携带成交概率以便
// 透明展示），不调用任何单投资人模型——避免给出与预测结果相矛盾的排序。
func (o *Orchestrator) PredictInvestors(ctx context.Context, datasetID string, rec *core.CanonicalRecord) (*core.InvestorResult, error) {
	deal, err := o.PredictDeal(ctx, datasetID, rec)
	if err != nil {
		return nil, err
	}
	return o.PredictInvestorsWithDeal(ctx, datasetID, rec, deal.Probability)
}

// PredictInvestorsWithDeal 接受预先算好的成交概率（聚合调用复用结果）。
func (o *Orchestrator) PredictInvestorsWithDeal(ctx context.Context, datasetID string, rec *core.CanonicalRecord, dealProb float64) (*core.InvestorResult, error) {
	cfg, err := o.configs.Get(datasetID)
	if err != nil {
		return nil, err
	}

	if dealProb < cfg.Policy.DealThreshold {
		return &core.InvestorResult{
			NoDeal:          true,
			DealProbability: dealProb,
		}, nil
	}

	handle, err := o.models.Investors(ctx, cfg.ID)
	if err != nil {
		return nil, err
	}

	features := o.assemble(ctx, cfg.ID, rec, handle.Pre)

	result := &core.InvestorResult{DealProbability: dealProb}
	// 按 roster 顺序逐个预测：稳定排序下同分保持 roster 顺序。
	for _, inv := range cfg.Investors {
		clf, ok := handle.Models[inv.Name]
		if !ok {
			result.Skipped = append(result.Skipped, inv.Name)
			continue
		}
		proba, err := clf.PredictProba(features)
		if err != nil {
			// 单投资人模型故障隔离：跳过并记录，不拖垮整个排序。
			result.Skipped = append(result.Skipped, inv.Name)
			continue
		}
		result.Ranking = append(result.Ranking, core.InvestorScore{
			Name:        inv.Name,
			Probability: proba,
		})
	}

	sort.SliceStable(result.Ranking, func(i, j int) bool {
		return result.Ranking[i].Probability > result.Ranking[j].Probability
	})

	rules := cfg.Policy.InsightRules
	if len(rules) == 0 {
		rules = defaultInsightRules
	}
	result.Insights = o.insights.Generate(rules, result.Ranking, dealProb, handle.Rates)

	return result, nil
}

// FindSimilar 委托给数据集的相似检索索引：返回 topN 条高于下限的邻居。
// 空白查询文本返回 INVALID_INPUT。
func (o *Orchestrator) FindSimilar(ctx context.Context, datasetID string, text string) (*core.SimilarResult, error) {
	cfg, err := o.configs.Get(datasetID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, core.NewDomainError(core.ModuleInference, core.ErrorCodeInvalidInput,
			"similarity query text is empty")
	}

	idx, err := o.models.Similarity(ctx, cfg.ID)
	if err != nil {
		return nil, err
	}
	matches, err := idx.Query(text, cfg.Policy.SimilarityTopN, cfg.Policy.SimilarityFloor)
	if err != nil {
		return nil, err
	}
	return &core.SimilarResult{Matches: matches}, nil
}

// PredictAll 聚合全部任务。各任务的失败只填充自己槽位的错误标记，
// 不中断其他任务。成交概率只算一次，投资人排序复用。
func (o *Orchestrator) PredictAll(ctx context.Context, datasetID string, rec *core.CanonicalRecord) (*core.Predictions, error) {
	cfg, err := o.configs.Get(datasetID)
	if err != nil {
		return nil, err
	}

	if o.cache != nil {
		if cached, ok := o.cache.get(ctx, cfg.ID, rec); ok {
			return cached, nil
		}
	}

	out := &core.Predictions{Dataset: cfg.ID}

	// 成交预测先行：投资人排序依赖其概率做门槛判断。
	deal, dealErr := o.PredictDeal(ctx, cfg.ID, rec)
	if dealErr != nil {
		out.Deal = TaskSlotError(dealErr)
	} else {
		out.Deal = core.TaskSlot{Available: true}
		out.DealData = deal
	}

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		v, err := o.PredictValuation(egCtx, cfg.ID, rec)
		if err != nil {
			out.Valuation = TaskSlotError(err)
			return nil
		}
		out.Valuation = core.TaskSlot{Available: true}
		out.ValuationData = v
		return nil
	})

	eg.Go(func() error {
		var (
			inv *core.InvestorResult
			err error
		)
		if dealErr != nil {
			// 成交模型不可用时退回独立计算（将复现同一错误并隔离到本槽位）。
			inv, err = o.PredictInvestors(egCtx, cfg.ID, rec)
		} else {
			inv, err = o.PredictInvestorsWithDeal(egCtx, cfg.ID, rec, deal.Probability)
		}
		if err != nil {
			out.Investors = TaskSlotError(err)
			return nil
		}
		out.Investors = core.TaskSlot{Available: true}
		out.InvestorsData = inv
		return nil
	})

	eg.Go(func() error {
		if strings.TrimSpace(rec.BusinessDescription) == "" {
			out.Similar = core.TaskSlot{Message: "no description provided"}
			return nil
		}
		sim, err := o.FindSimilar(egCtx, cfg.ID, rec.BusinessDescription)
		if err != nil {
			out.Similar = TaskSlotError(err)
			return nil
		}
		out.Similar = core.TaskSlot{Available: true}
		out.SimilarData = sim
		return nil
	})

	// 任务闭包从不返回 error，Wait 只用于汇合。
	_ = eg.Wait()

	// 带错误槽位的结果不写缓存：工件修复后下一次请求立即恢复，
	// 而不是在 TTL 内继续供应降级结果。
	if o.cache != nil && !hasTaskError(out) {
		o.cache.put(ctx, cfg.ID, rec, out)
	}
	return out, nil
}

func hasTaskError(p *core.Predictions) bool {
	return p.Deal.Err != "" || p.Valuation.Err != "" ||
		p.Investors.Err != "" || p.Similar.Err != ""
}

// TaskSlotError 把任务错误折叠为槽位标记。
func TaskSlotError(err error) core.TaskSlot {
	return core.TaskSlot{Available: false, Err: err.Error()}
}

// assemble 装配特征向量，并在启用时做在线特征补充。
// 补充失败退化为不补充：预测的可用性不依赖外部特征库。
func (o *Orchestrator) assemble(ctx context.Context, datasetID string, rec *core.CanonicalRecord, pre *feature.Preprocess) map[string]float64 {
	features := pre.Vector(rec)
	if o.enricher != nil {
		if err := o.enricher.Enrich(ctx, datasetID, rec, features); err != nil {
			return features
		}
	}
	return features
}
