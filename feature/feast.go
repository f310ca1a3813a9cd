package feature

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	feasttypes "github.com/feast-dev/feast/sdk/go/protos/feast/types"

	"github.com/rushteam/pitchkit/core"
)

// FeastEnricher 是基于官方 Feast Go SDK 的在线特征补充实现。
//
// 用途：在模型调用前按（数据集, 行业）实体拉取训练期物化的聚合特征
// （如行业平均成交率），合并进特征向量。模型工件的 feature_names
// 不含这些列时，对齐阶段会自然丢弃，启用与否对旧模型无影响。
//
// 实现 core.FeatureEnricher；nil 表示不启用补充。
type FeastEnricher struct {
	client *feastsdk.GrpcClient

	// Project 是 Feast 项目名。
	Project string

	// Features 是要拉取的特征名列表，形如 "industry_stats:deal_rate"。
	Features []string
}

// NewFeastEnricher 创建 Feast 在线特征补充器。
func NewFeastEnricher(host string, port int, project string, features []string) (*FeastEnricher, error) {
	if port == 0 {
		port = 6565
	}
	client, err := feastsdk.NewGrpcClient(host, port)
	if err != nil {
		return nil, fmt.Errorf("create feast grpc client: %w", err)
	}
	return &FeastEnricher{
		client:   client,
		Project:  project,
		Features: features,
	}, nil
}

func (e *FeastEnricher) Name() string { return "feature.feast" }

// Enrich 拉取在线特征并合并进 features。
// 合并 key 取特征名冒号后的短名（"industry_stats:deal_rate" -> "deal_rate"）。
func (e *FeastEnricher) Enrich(ctx context.Context, datasetID string, rec *core.CanonicalRecord, features map[string]float64) error {
	if len(e.Features) == 0 {
		return nil
	}

	entityRow := feastsdk.Row{
		"dataset":  feastsdk.StrVal(datasetID),
		"industry": feastsdk.StrVal(rec.Industry),
	}
	req := &feastsdk.OnlineFeaturesRequest{
		Features: e.Features,
		Entities: []feastsdk.Row{entityRow},
		Project:  e.Project,
	}

	resp, err := e.client.GetOnlineFeatures(ctx, req)
	if err != nil {
		return fmt.Errorf("feast get online features: %w", err)
	}

	rows := resp.Rows()
	if len(rows) == 0 {
		return nil
	}
	row := rows[0]

	for _, name := range e.Features {
		val, ok := row[name]
		if !ok || val == nil {
			continue
		}
		if f, ok := toFloat(val); ok {
			features[shortName(name)] = f
		}
	}
	return nil
}

func shortName(feature string) string {
	if i := strings.LastIndex(feature, ":"); i >= 0 {
		return feature[i+1:]
	}
	return feature
}

// toFloat 从 SDK 值类型提取数值。Rows() 返回的是 protobuf *types.Value，
// 按 oneof 分支解包；原生数值类型兜底，方便测试直接传入。
func toFloat(val any) (float64, bool) {
	switch v := val.(type) {
	case *feasttypes.Value:
		return protoToFloat(v)
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case int:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func protoToFloat(v *feasttypes.Value) (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch x := v.GetVal().(type) {
	case *feasttypes.Value_DoubleVal:
		return x.DoubleVal, true
	case *feasttypes.Value_FloatVal:
		return float64(x.FloatVal), true
	case *feasttypes.Value_Int64Val:
		return float64(x.Int64Val), true
	case *feasttypes.Value_Int32Val:
		return float64(x.Int32Val), true
	case *feasttypes.Value_BoolVal:
		if x.BoolVal {
			return 1, true
		}
		return 0, true
	case *feasttypes.Value_StringVal:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x.StringVal), 64); err == nil {
			return f, true
		}
		return 0, false
	default:
		return 0, false
	}
}

var _ core.FeatureEnricher = (*FeastEnricher)(nil)
