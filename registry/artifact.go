// Package registry 管理按（数据集, 任务）键缓存的已加载模型工件。
// 首次请求触发加载并缓存，此后返回同一句柄；加载是本地反序列化，
// 可能阻塞调用方，需要非阻塞的调用方自行放入工作池。
package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rushteam/pitchkit/core"
	"github.com/rushteam/pitchkit/feature"
	"github.com/rushteam/pitchkit/model"
	"github.com/rushteam/pitchkit/similarity"
)

// DealModel 是成交分类任务的句柄：分类器 + 训练期预处理状态。
type DealModel struct {
	Classifier core.Classifier
	Pre        *feature.Preprocess
}

// ValuationModel 是估值回归任务的句柄。
// Target 记录训练期的目标变换（"log1p" 或空），逆变换由编排层执行。
type ValuationModel struct {
	Regressor core.Regressor
	Pre       *feature.Preprocess
	Target    string
}

// InvestorModels 是投资人任务的句柄：每个投资人一个独立二分类器，
// 外加训练期统计的投资率（用于洞察生成）。
type InvestorModels struct {
	Pre    *feature.Preprocess
	Models map[string]core.Classifier
	Rates  map[string]float64
}

// ArtifactLoader 抽象工件加载，测试可注入假实现以确定性地验证
// single-flight 行为。
type ArtifactLoader interface {
	LoadDeal(path string) (*DealModel, error)
	LoadValuation(path string) (*ValuationModel, error)
	LoadInvestors(path string) (*InvestorModels, error)
	LoadSimilarity(path string) (core.NeighborIndex, error)
}

// FileLoader 从本地 JSON 工件加载模型。
type FileLoader struct{}

// classifierSpec 是分类器在工件中的统一表示：type 选择实现。
type classifierSpec struct {
	Type     string               `json:"type"`
	Logistic *model.LogisticModel `json:"logistic,omitempty"`
	GBDT     *model.GBDT          `json:"gbdt,omitempty"`

	// InvestmentRate 仅投资人工件使用：该投资人在训练数据中的出手率。
	InvestmentRate float64 `json:"investment_rate,omitempty"`
}

func (s *classifierSpec) build() (core.Classifier, error) {
	switch s.Type {
	case "logistic":
		if s.Logistic == nil {
			return nil, fmt.Errorf("logistic params missing")
		}
		return s.Logistic, nil
	case "gbdt":
		if s.GBDT == nil {
			return nil, fmt.Errorf("gbdt params missing")
		}
		return &model.GBDTClassifier{GBDT: *s.GBDT}, nil
	default:
		return nil, fmt.Errorf("unknown classifier type %q", s.Type)
	}
}

type dealArtifact struct {
	classifierSpec
	Preprocess feature.Preprocess `json:"preprocess"`
}

type valuationArtifact struct {
	Type       string             `json:"type"`
	Target     string             `json:"target"`
	Linear     *model.LinearModel `json:"linear,omitempty"`
	GBDT       *model.GBDT        `json:"gbdt,omitempty"`
	Preprocess feature.Preprocess `json:"preprocess"`
}

type investorsArtifact struct {
	Preprocess feature.Preprocess        `json:"preprocess"`
	Investors  map[string]classifierSpec `json:"investors"`
}

func (l *FileLoader) LoadDeal(path string) (*DealModel, error) {
	var art dealArtifact
	if err := readArtifact(path, &art); err != nil {
		return nil, err
	}
	clf, err := art.build()
	if err != nil {
		return nil, notFound(path, err)
	}
	return &DealModel{Classifier: clf, Pre: &art.Preprocess}, nil
}

func (l *FileLoader) LoadValuation(path string) (*ValuationModel, error) {
	var art valuationArtifact
	if err := readArtifact(path, &art); err != nil {
		return nil, err
	}
	var reg core.Regressor
	switch art.Type {
	case "linear":
		if art.Linear == nil {
			return nil, notFound(path, fmt.Errorf("linear params missing"))
		}
		reg = art.Linear
	case "gbdt":
		if art.GBDT == nil {
			return nil, notFound(path, fmt.Errorf("gbdt params missing"))
		}
		reg = &model.GBDTRegressor{GBDT: *art.GBDT}
	default:
		return nil, notFound(path, fmt.Errorf("unknown regressor type %q", art.Type))
	}
	return &ValuationModel{Regressor: reg, Pre: &art.Preprocess, Target: art.Target}, nil
}

func (l *FileLoader) LoadInvestors(path string) (*InvestorModels, error) {
	var art investorsArtifact
	if err := readArtifact(path, &art); err != nil {
		return nil, err
	}
	handle := &InvestorModels{
		Pre:    &art.Preprocess,
		Models: make(map[string]core.Classifier, len(art.Investors)),
		Rates:  make(map[string]float64, len(art.Investors)),
	}
	for name, spec := range art.Investors {
		clf, err := spec.build()
		if err != nil {
			// 单个投资人的模型损坏不拖垮整个工件：该投资人在排序时被跳过。
			continue
		}
		handle.Models[name] = clf
		handle.Rates[name] = spec.InvestmentRate
	}
	return handle, nil
}

func (l *FileLoader) LoadSimilarity(path string) (core.NeighborIndex, error) {
	var idx similarity.Index
	if err := readArtifact(path, &idx); err != nil {
		return nil, err
	}
	return &idx, nil
}

func readArtifact(path string, out any) error {
	if path == "" {
		return core.NewDomainError(core.ModuleRegistry, core.ErrorCodeModelNotFound,
			"no artifact location configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return notFound(path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return notFound(path, fmt.Errorf("deserialize: %w", err))
	}
	return nil
}

func notFound(path string, err error) *core.DomainError {
	return core.NewDomainError(core.ModuleRegistry, core.ErrorCodeModelNotFound,
		fmt.Sprintf("model artifact %s: %v", path, err))
}

var _ ArtifactLoader = (*FileLoader)(nil)
