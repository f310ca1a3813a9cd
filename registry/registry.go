package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/rushteam/pitchkit/config"
	"github.com/rushteam/pitchkit/core"
)

// Task 标识模型任务类型。
type Task string

const (
	TaskDeal       Task = "deal"       // 成交二分类
	TaskValuation  Task = "valuation"  // 估值回归
	TaskInvestors  Task = "investors"  // 单投资人二分类集合
	TaskSimilarity Task = "similarity" // 文本相似索引
)

// Registry 是模型句柄的懒加载缓存：
//
//   - 首次请求某（数据集, 任务）键时从配置的工件位置加载并缓存
//   - 并发首次请求走 single-flight：同一未缓存键只加载一次，
//     所有调用方拿到同一个完整初始化的句柄
//   - 加载失败返回 MODEL_NOT_FOUND，不缓存失败（部署修复后可恢复），
//     也不做内部重试
//   - 句柄一旦缓存，进程生命周期内不淘汰（工件集合小且有界）
//
// Registry 是显式注入的实例而非环境全局状态，测试可替换 ArtifactLoader。
type Registry struct {
	configs *config.Registry
	loader  ArtifactLoader

	mu    sync.RWMutex
	cache map[string]any
	group singleflight.Group
}

// NewRegistry 创建模型注册表。loader 为 nil 时使用本地 JSON 文件加载。
func NewRegistry(configs *config.Registry, loader ArtifactLoader) *Registry {
	if loader == nil {
		loader = &FileLoader{}
	}
	return &Registry{
		configs: configs,
		loader:  loader,
		cache:   make(map[string]any),
	}
}

// Deal 返回数据集的成交分类句柄。
func (r *Registry) Deal(ctx context.Context, datasetID string) (*DealModel, error) {
	v, err := r.get(ctx, datasetID, TaskDeal)
	if err != nil {
		return nil, err
	}
	return v.(*DealModel), nil
}

// Valuation 返回数据集的估值回归句柄。
func (r *Registry) Valuation(ctx context.Context, datasetID string) (*ValuationModel, error) {
	v, err := r.get(ctx, datasetID, TaskValuation)
	if err != nil {
		return nil, err
	}
	return v.(*ValuationModel), nil
}

// Investors 返回数据集的投资人模型集合句柄。
func (r *Registry) Investors(ctx context.Context, datasetID string) (*InvestorModels, error) {
	v, err := r.get(ctx, datasetID, TaskInvestors)
	if err != nil {
		return nil, err
	}
	return v.(*InvestorModels), nil
}

// Similarity 返回数据集的相似检索索引。
func (r *Registry) Similarity(ctx context.Context, datasetID string) (core.NeighborIndex, error) {
	v, err := r.get(ctx, datasetID, TaskSimilarity)
	if err != nil {
		return nil, err
	}
	return v.(core.NeighborIndex), nil
}

func (r *Registry) get(ctx context.Context, datasetID string, task Task) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := cacheKey(datasetID, task)

	r.mu.RLock()
	if v, ok := r.cache[key]; ok {
		r.mu.RUnlock()
		return v, nil
	}
	r.mu.RUnlock()

	// single-flight：并发的首次请求共享一次加载，第二个调用方
	// 不会拿到半初始化的句柄，也不会触发重复反序列化。
	v, err, _ := r.group.Do(key, func() (any, error) {
		r.mu.RLock()
		if v, ok := r.cache[key]; ok {
			r.mu.RUnlock()
			return v, nil
		}
		r.mu.RUnlock()

		handle, err := r.load(datasetID, task)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache[key] = handle
		r.mu.Unlock()
		return handle, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *Registry) load(datasetID string, task Task) (any, error) {
	cfg, err := r.configs.Get(datasetID)
	if err != nil {
		return nil, err
	}
	switch task {
	case TaskDeal:
		h, err := r.loader.LoadDeal(cfg.Models.Deal)
		if err != nil {
			return nil, err
		}
		if h == nil {
			return nil, nilHandle(task)
		}
		return h, nil
	case TaskValuation:
		h, err := r.loader.LoadValuation(cfg.Models.Valuation)
		if err != nil {
			return nil, err
		}
		if h == nil {
			return nil, nilHandle(task)
		}
		return h, nil
	case TaskInvestors:
		h, err := r.loader.LoadInvestors(cfg.Models.Investors)
		if err != nil {
			return nil, err
		}
		if h == nil {
			return nil, nilHandle(task)
		}
		return h, nil
	case TaskSimilarity:
		idx, err := r.loader.LoadSimilarity(cfg.Models.Similarity)
		if err != nil {
			return nil, err
		}
		if idx == nil {
			return nil, nilHandle(task)
		}
		return idx, nil
	default:
		return nil, core.NewDomainError(core.ModuleRegistry, core.ErrorCodeNotSupported,
			fmt.Sprintf("unknown task: %s", task))
	}
}

// 加载器返回 nil 句柄且无错误属于加载器实现缺陷：按工件缺失处理，
// 绝不把空句柄缓存给调用方。
func nilHandle(task Task) error {
	return core.NewDomainError(core.ModuleRegistry, core.ErrorCodeModelNotFound,
		fmt.Sprintf("artifact loader returned no %s handle", task))
}

func cacheKey(datasetID string, task Task) string {
	return strings.ToLower(datasetID) + "/" + string(task)
}
