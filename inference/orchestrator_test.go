package inference

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/rushteam/pitchkit/config"
	"github.com/rushteam/pitchkit/core"
	"github.com/rushteam/pitchkit/feature"
	"github.com/rushteam/pitchkit/model"
	"github.com/rushteam/pitchkit/registry"
	"github.com/rushteam/pitchkit/similarity"
	"github.com/rushteam/pitchkit/store"
)

// fixedClassifier 返回固定概率并统计调用次数。
type fixedClassifier struct {
	p     float64
	err   error
	calls int64
}

func (c *fixedClassifier) Name() string { return "fixed" }

func (c *fixedClassifier) PredictProba(map[string]float64) (float64, error) {
	atomic.AddInt64(&c.calls, 1)
	if c.err != nil {
		return 0, c.err
	}
	return c.p, nil
}

func (c *fixedClassifier) Predict(features map[string]float64) (int, error) {
	p, err := c.PredictProba(features)
	if err != nil {
		return 0, err
	}
	if p >= 0.5 {
		return 1, nil
	}
	return 0, nil
}

// fakeLoader 按字段注入各任务的句柄或错误；未配置的任务按工件缺失处理。
// valNil 模拟有缺陷的加载器：返回 (nil, nil)。
type fakeLoader struct {
	deal    *registry.DealModel
	dealErr error

	valuation *registry.ValuationModel
	valErr    error
	valNil    bool

	investors *registry.InvestorModels
	invErr    error

	index  core.NeighborIndex
	simErr error
}

func (l *fakeLoader) LoadDeal(string) (*registry.DealModel, error) {
	if l.dealErr != nil {
		return nil, l.dealErr
	}
	if l.deal == nil {
		return nil, errors.New("deal artifact not configured")
	}
	return l.deal, nil
}

func (l *fakeLoader) LoadValuation(string) (*registry.ValuationModel, error) {
	if l.valNil {
		return nil, nil
	}
	if l.valErr != nil {
		return nil, l.valErr
	}
	if l.valuation == nil {
		return nil, errors.New("valuation artifact not configured")
	}
	return l.valuation, nil
}

func (l *fakeLoader) LoadInvestors(string) (*registry.InvestorModels, error) {
	if l.invErr != nil {
		return nil, l.invErr
	}
	if l.investors == nil {
		return nil, errors.New("investors artifact not configured")
	}
	return l.investors, nil
}

func (l *fakeLoader) LoadSimilarity(string) (core.NeighborIndex, error) {
	if l.simErr != nil {
		return nil, l.simErr
	}
	if l.index == nil {
		return nil, errors.New("similarity artifact not configured")
	}
	return l.index, nil
}

func testPre() *feature.Preprocess {
	return &feature.Preprocess{FeatureNames: []string{"ask_amount", "ask_equity"}}
}

func testConfigs(policy config.Policy) *config.Registry {
	r := config.NewRegistry()
	r.Add(&config.DatasetConfig{
		ID:       "india",
		Name:     "Shark Tank India",
		Currency: core.CurrencyInfo{Symbol: "₹", Unit: "lakh", Scale: 100000},
		Investors: []config.Investor{
			{Name: "Namita"}, {Name: "Aman"}, {Name: "Peyush"},
		},
		Models: config.ModelPaths{
			Deal: "deal.json", Valuation: "valuation.json",
			Investors: "investors.json", Similarity: "similarity.json",
		},
		Policy: policy,
	})
	return r
}

func defaultPolicy() config.Policy {
	return config.Policy{
		DealThreshold:   config.DefaultDealThreshold,
		LabelThreshold:  config.DefaultLabelThreshold,
		ValuationBand:   config.DefaultValuationBand,
		SimilarityTopN:  config.DefaultSimilarityTopN,
		SimilarityFloor: config.DefaultSimilarityFloor,
	}
}

func testIndex(descs ...string) core.NeighborIndex {
	b := similarity.NewBuilder()
	for _, d := range descs {
		b.Add(similarity.Record{Name: d, Description: d})
	}
	return b.Build()
}

func testRecord() *core.CanonicalRecord {
	rec := core.NewCanonicalRecord()
	rec.Industry = "Food"
	rec.AskAmount = 50
	rec.AskEquity = 10
	rec.BusinessDescription = "organic coffee subscription"
	return rec
}

func newOrchestrator(policy config.Policy, loader registry.ArtifactLoader, opts ...Option) *Orchestrator {
	configs := testConfigs(policy)
	return New(configs, registry.NewRegistry(configs, loader), opts...)
}

func TestPredictDeal_LabelThreshold(t *testing.T) {
	tests := []struct {
		name      string
		proba     float64
		threshold float64
		wantLabel int
	}{
		{"above default threshold", 0.6, 0.5, 1},
		{"exactly at threshold", 0.5, 0.5, 1},
		{"below threshold", 0.4, 0.5, 0},
		{"raised threshold rejects mid probability", 0.6, 0.65, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := defaultPolicy()
			policy.LabelThreshold = tt.threshold
			o := newOrchestrator(policy, &fakeLoader{
				deal: &registry.DealModel{
					Classifier: &fixedClassifier{p: tt.proba},
					Pre:        testPre(),
				},
			})

			got, err := o.PredictDeal(context.Background(), "india", testRecord())
			if err != nil {
				t.Fatalf("PredictDeal() error = %v", err)
			}
			if got.Probability != tt.proba {
				t.Errorf("Probability = %v", got.Probability)
			}
			if got.Label != tt.wantLabel {
				t.Errorf("Label = %d, want %d", got.Label, tt.wantLabel)
			}
		})
	}
}

func TestPredictValuation_Log1pInverse(t *testing.T) {
	o := newOrchestrator(defaultPolicy(), &fakeLoader{
		valuation: &registry.ValuationModel{
			Regressor: &model.LinearModel{Bias: math.Log1p(100)},
			Pre:       testPre(),
			Target:    "log1p",
		},
	})

	got, err := o.PredictValuation(context.Background(), "india", testRecord())
	if err != nil {
		t.Fatalf("PredictValuation() error = %v", err)
	}
	if math.Abs(got.Estimate-100) > 1e-9 {
		t.Errorf("Estimate = %v, want expm1(log1p(100)) = 100", got.Estimate)
	}
	if math.Abs(got.Low-70) > 1e-9 || math.Abs(got.High-130) > 1e-9 {
		t.Errorf("band = [%v, %v], want [70, 130]", got.Low, got.High)
	}
	if got.Currency.Unit != "lakh" {
		t.Errorf("Currency = %+v, dataset currency should propagate", got.Currency)
	}
}

func TestPredictValuation_RawTarget(t *testing.T) {
	o := newOrchestrator(defaultPolicy(), &fakeLoader{
		valuation: &registry.ValuationModel{
			Regressor: &model.LinearModel{Bias: 42},
			Pre:       testPre(),
		},
	})
	got, err := o.PredictValuation(context.Background(), "india", testRecord())
	if err != nil {
		t.Fatal(err)
	}
	if got.Estimate != 42 {
		t.Errorf("Estimate = %v, want raw 42 (no target transform)", got.Estimate)
	}
}

func TestPredictInvestors_NoDealShortCircuit(t *testing.T) {
	aman := &fixedClassifier{p: 0.9}
	o := newOrchestrator(defaultPolicy(), &fakeLoader{
		deal: &registry.DealModel{
			Classifier: &fixedClassifier{p: 0.2},
			Pre:        testPre(),
		},
		investors: &registry.InvestorModels{
			Pre:    testPre(),
			Models: map[string]core.Classifier{"Aman": aman},
		},
	})

	got, err := o.PredictInvestors(context.Background(), "india", testRecord())
	if err != nil {
		t.Fatalf("PredictInvestors() error = %v", err)
	}
	if !got.NoDeal {
		t.Error("NoDeal = false, want short-circuit below deal threshold")
	}
	if got.DealProbability != 0.2 {
		t.Errorf("DealProbability = %v, should stay visible", got.DealProbability)
	}
	if len(got.Ranking) != 0 || len(got.Insights) != 0 {
		t.Errorf("short-circuit result should be empty, got %+v", got)
	}
	if atomic.LoadInt64(&aman.calls) != 0 {
		t.Error("investor models must not run when the deal gate fails")
	}
}

func TestPredictInvestors_RankingAndSkips(t *testing.T) {
	o := newOrchestrator(defaultPolicy(), &fakeLoader{
		deal: &registry.DealModel{
			Classifier: &fixedClassifier{p: 0.9},
			Pre:        testPre(),
		},
		investors: &registry.InvestorModels{
			Pre: testPre(),
			Models: map[string]core.Classifier{
				// roster 顺序是 Namita, Aman, Peyush；Peyush 的模型损坏。
				"Namita": &fixedClassifier{p: 0.4},
				"Aman":   &fixedClassifier{p: 0.8},
				"Peyush": &fixedClassifier{err: errors.New("corrupt weights")},
			},
			Rates: map[string]float64{"Aman": 0.31},
		},
	})

	got, err := o.PredictInvestors(context.Background(), "india", testRecord())
	if err != nil {
		t.Fatalf("PredictInvestors() error = %v", err)
	}
	if got.NoDeal {
		t.Fatal("gate should pass at p=0.9")
	}
	if len(got.Ranking) != 2 {
		t.Fatalf("Ranking = %v, want 2 entries", got.Ranking)
	}
	if got.Ranking[0].Name != "Aman" || got.Ranking[1].Name != "Namita" {
		t.Errorf("Ranking order = %s, %s", got.Ranking[0].Name, got.Ranking[1].Name)
	}
	if len(got.Skipped) != 1 || got.Skipped[0] != "Peyush" {
		t.Errorf("Skipped = %v, want [Peyush]", got.Skipped)
	}
	if len(got.Insights) == 0 {
		t.Error("default insight rules should fire for a 0.8 top probability")
	}
}

func TestPredictInvestors_StableTieBreak(t *testing.T) {
	o := newOrchestrator(defaultPolicy(), &fakeLoader{
		deal: &registry.DealModel{Classifier: &fixedClassifier{p: 0.9}, Pre: testPre()},
		investors: &registry.InvestorModels{
			Pre: testPre(),
			Models: map[string]core.Classifier{
				"Namita": &fixedClassifier{p: 0.5},
				"Aman":   &fixedClassifier{p: 0.5},
				"Peyush": &fixedClassifier{p: 0.5},
			},
		},
	})

	for i := 0; i < 5; i++ {
		got, err := o.PredictInvestors(context.Background(), "india", testRecord())
		if err != nil {
			t.Fatal(err)
		}
		names := []string{got.Ranking[0].Name, got.Ranking[1].Name, got.Ranking[2].Name}
		if names[0] != "Namita" || names[1] != "Aman" || names[2] != "Peyush" {
			t.Fatalf("tie-break order = %v, want roster order every run", names)
		}
	}
}

func TestFindSimilar(t *testing.T) {
	o := newOrchestrator(defaultPolicy(), &fakeLoader{
		index: testIndex("organic coffee subscription", "pet grooming service"),
	})

	got, err := o.FindSimilar(context.Background(), "india", "organic coffee delivery")
	if err != nil {
		t.Fatalf("FindSimilar() error = %v", err)
	}
	if len(got.Matches) == 0 {
		t.Fatal("expected at least one match")
	}
	if got.Matches[0].Name != "organic coffee subscription" {
		t.Errorf("top match = %q", got.Matches[0].Name)
	}
}

func TestFindSimilar_EmptyText(t *testing.T) {
	o := newOrchestrator(defaultPolicy(), &fakeLoader{index: testIndex("a b c")})

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := o.FindSimilar(context.Background(), "india", text)
		if !core.IsInvalidInput(err) {
			t.Errorf("FindSimilar(%q) error = %v, want INVALID_INPUT", text, err)
		}
	}
}

func TestPredictAll_TaskIsolation(t *testing.T) {
	// 估值工件损坏，其余任务正常：只有 valuation 槽位带错误。
	o := newOrchestrator(defaultPolicy(), &fakeLoader{
		deal:   &registry.DealModel{Classifier: &fixedClassifier{p: 0.9}, Pre: testPre()},
		valErr: core.NewDomainError(core.ModuleRegistry, core.ErrorCodeModelNotFound, "valuation artifact missing"),
		investors: &registry.InvestorModels{
			Pre:    testPre(),
			Models: map[string]core.Classifier{"Aman": &fixedClassifier{p: 0.7}},
		},
		index: testIndex("organic coffee subscription"),
	})

	got, err := o.PredictAll(context.Background(), "india", testRecord())
	if err != nil {
		t.Fatalf("PredictAll() error = %v", err)
	}
	if !got.Deal.Available || got.DealData == nil {
		t.Error("deal slot should be available")
	}
	if got.Valuation.Available || got.Valuation.Err == "" {
		t.Errorf("valuation slot = %+v, want isolated error", got.Valuation)
	}
	if !got.Investors.Available {
		t.Error("investors slot should be available")
	}
	if !got.Similar.Available {
		t.Error("similar slot should be available")
	}
}

func TestPredictAll_NilValuationHandle(t *testing.T) {
	// 加载器对估值任务返回 (nil, nil)：该槽位带错误，其余任务不受影响，
	// 整个聚合调用不允许崩溃。
	o := newOrchestrator(defaultPolicy(), &fakeLoader{
		deal:   &registry.DealModel{Classifier: &fixedClassifier{p: 0.9}, Pre: testPre()},
		valNil: true,
		investors: &registry.InvestorModels{
			Pre:    testPre(),
			Models: map[string]core.Classifier{"Aman": &fixedClassifier{p: 0.7}},
		},
		index: testIndex("organic coffee subscription"),
	})

	got, err := o.PredictAll(context.Background(), "india", testRecord())
	if err != nil {
		t.Fatalf("PredictAll() error = %v", err)
	}
	if got.Valuation.Available || got.Valuation.Err == "" {
		t.Errorf("valuation slot = %+v, want an isolated MODEL_NOT_FOUND marker", got.Valuation)
	}
	if !got.Deal.Available || !got.Investors.Available || !got.Similar.Available {
		t.Error("other slots should stay available")
	}
}

func TestPredictAll_ReusesDealProbability(t *testing.T) {
	deal := &fixedClassifier{p: 0.9}
	o := newOrchestrator(defaultPolicy(), &fakeLoader{
		deal: &registry.DealModel{Classifier: deal, Pre: testPre()},
		investors: &registry.InvestorModels{
			Pre:    testPre(),
			Models: map[string]core.Classifier{"Aman": &fixedClassifier{p: 0.7}},
		},
		index: testIndex("organic coffee subscription"),
	})

	got, err := o.PredictAll(context.Background(), "india", testRecord())
	if err != nil {
		t.Fatal(err)
	}
	if atomic.LoadInt64(&deal.calls) != 1 {
		t.Errorf("deal classifier called %d times, want 1 (investors reuse)", deal.calls)
	}
	if got.InvestorsData.DealProbability != 0.9 {
		t.Errorf("DealProbability = %v", got.InvestorsData.DealProbability)
	}
}

func TestPredictAll_NoDescription(t *testing.T) {
	o := newOrchestrator(defaultPolicy(), &fakeLoader{
		deal:  &registry.DealModel{Classifier: &fixedClassifier{p: 0.3}, Pre: testPre()},
		index: testIndex("a corpus document here"),
		investors: &registry.InvestorModels{
			Pre:    testPre(),
			Models: map[string]core.Classifier{},
		},
	})

	rec := testRecord()
	rec.BusinessDescription = "  "

	got, err := o.PredictAll(context.Background(), "india", rec)
	if err != nil {
		t.Fatal(err)
	}
	if got.Similar.Available {
		t.Error("similar slot should be unavailable without a description")
	}
	if got.Similar.Err != "" {
		t.Errorf("missing description is not an error, got %q", got.Similar.Err)
	}
	if got.Similar.Message == "" {
		t.Error("similar slot should carry an explanatory message")
	}
}

func TestPredictAll_UnknownDataset(t *testing.T) {
	o := newOrchestrator(defaultPolicy(), &fakeLoader{})
	_, err := o.PredictAll(context.Background(), "mars", testRecord())
	if !core.IsConfigNotFound(err) {
		t.Errorf("error = %v, want CONFIG_NOT_FOUND", err)
	}
}

func TestPredictAll_ResultCache(t *testing.T) {
	deal := &fixedClassifier{p: 0.9}
	cache := store.NewMemoryStore()
	defer cache.Close()

	o := newOrchestrator(defaultPolicy(), &fakeLoader{
		deal: &registry.DealModel{Classifier: deal, Pre: testPre()},
		valuation: &registry.ValuationModel{
			Regressor: &model.LinearModel{Bias: 42},
			Pre:       testPre(),
		},
		investors: &registry.InvestorModels{
			Pre:    testPre(),
			Models: map[string]core.Classifier{"Aman": &fixedClassifier{p: 0.7}},
		},
		index: testIndex("organic coffee subscription"),
	}, WithResultCache(cache, 60))

	rec := testRecord()
	first, err := o.PredictAll(context.Background(), "india", rec)
	if err != nil {
		t.Fatal(err)
	}
	second, err := o.PredictAll(context.Background(), "india", rec)
	if err != nil {
		t.Fatal(err)
	}

	if atomic.LoadInt64(&deal.calls) != 1 {
		t.Errorf("deal classifier called %d times, want 1 (second call cached)", deal.calls)
	}
	if first.DealData.Probability != second.DealData.Probability {
		t.Error("cached result diverged")
	}

	// 不同记录不共享缓存。
	other := testRecord()
	other.AskAmount = 999
	if _, err := o.PredictAll(context.Background(), "india", other); err != nil {
		t.Fatal(err)
	}
	if atomic.LoadInt64(&deal.calls) != 2 {
		t.Errorf("deal classifier called %d times, want 2 (distinct record)", deal.calls)
	}
}

func TestPredictAll_DegradedResultNotCached(t *testing.T) {
	loader := &fakeLoader{
		deal: &registry.DealModel{Classifier: &fixedClassifier{p: 0.9}, Pre: testPre()},
		valErr: core.NewDomainError(core.ModuleRegistry, core.ErrorCodeModelNotFound,
			"valuation artifact missing"),
		investors: &registry.InvestorModels{
			Pre:    testPre(),
			Models: map[string]core.Classifier{"Aman": &fixedClassifier{p: 0.7}},
		},
		index: testIndex("organic coffee subscription"),
	}
	cache := store.NewMemoryStore()
	defer cache.Close()
	o := newOrchestrator(defaultPolicy(), loader, WithResultCache(cache, 60))

	rec := testRecord()
	first, err := o.PredictAll(context.Background(), "india", rec)
	if err != nil {
		t.Fatal(err)
	}
	if first.Valuation.Available {
		t.Fatal("valuation should fail on the first call")
	}

	// 运维修复工件后，下一次请求立即拿到完整结果，而不是 TTL 内的降级缓存。
	loader.valErr = nil
	loader.valuation = &registry.ValuationModel{
		Regressor: &model.LinearModel{Bias: 42},
		Pre:       testPre(),
	}
	second, err := o.PredictAll(context.Background(), "india", rec)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Valuation.Available {
		t.Errorf("valuation slot = %+v, degraded aggregate must not be served from cache", second.Valuation)
	}

	// 完整结果正常进缓存。
	third, err := o.PredictAll(context.Background(), "india", rec)
	if err != nil {
		t.Fatal(err)
	}
	if !third.Valuation.Available {
		t.Error("healthy aggregate should cache and replay intact")
	}
}

func TestDatasets(t *testing.T) {
	o := newOrchestrator(defaultPolicy(), &fakeLoader{})
	infos := o.Datasets()
	if len(infos) != 1 {
		t.Fatalf("Datasets() = %v", infos)
	}
	if infos[0].ID != "india" || infos[0].Name != "Shark Tank India" {
		t.Errorf("info = %+v", infos[0])
	}
	if len(infos[0].Investors) != 3 {
		t.Errorf("Investors = %v, want full roster", infos[0].Investors)
	}
	if infos[0].Currency.Scale != 100000 {
		t.Errorf("Currency = %+v", infos[0].Currency)
	}
}

func TestNormalize_UnknownDataset(t *testing.T) {
	o := newOrchestrator(defaultPolicy(), &fakeLoader{})
	_, err := o.Normalize("mars", map[string]any{})
	if !core.IsConfigNotFound(err) {
		t.Errorf("error = %v, want CONFIG_NOT_FOUND", err)
	}
}
