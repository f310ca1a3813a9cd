package inference

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/rushteam/pitchkit/core"
)

// resultCache 按（数据集, canonical 记录）缓存 PredictAll 的聚合结果。
// 模型推理是纯函数：同一条归一化记录的结果在模型工件不变时可安全复用。
// 缓存读写失败一律降级为未命中/不写入，不影响预测主链路。
type resultCache struct {
	store core.Store
	ttl   int
}

func newResultCache(store core.Store, ttl int) *resultCache {
	return &resultCache{store: store, ttl: ttl}
}

func (c *resultCache) get(ctx context.Context, datasetID string, rec *core.CanonicalRecord) (*core.Predictions, bool) {
	key, ok := cacheKey(datasetID, rec)
	if !ok {
		return nil, false
	}
	data, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var out core.Predictions
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false
	}
	return &out, true
}

func (c *resultCache) put(ctx context.Context, datasetID string, rec *core.CanonicalRecord, p *core.Predictions) {
	key, ok := cacheKey(datasetID, rec)
	if !ok {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	_ = c.store.Set(ctx, key, data, c.ttl)
}

// cacheKey 由 canonical 记录的 JSON 摘要生成，记录内容即缓存身份。
func cacheKey(datasetID string, rec *core.CanonicalRecord) (string, bool) {
	data, err := json.Marshal(rec)
	if err != nil {
		return "", false
	}
	sum := sha256.Sum256(data)
	return "pitchkit:predict_all:" + datasetID + ":" + hex.EncodeToString(sum[:]), true
}
