package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rushteam/pitchkit/core"
)

// Registry 是数据集配置注册表：进程启动时一次性加载，之后只读。
// 并发读取安全；唯一的写入发生在加载阶段（Add/LoadDir），
// 对外暴露后不再变更。
type Registry struct {
	mu       sync.RWMutex
	datasets map[string]*DatasetConfig // 小写 id -> 配置
}

// NewRegistry 创建空的配置注册表。
func NewRegistry() *Registry {
	return &Registry{
		datasets: make(map[string]*DatasetConfig),
	}
}

// LoadDir 从目录加载所有 *.yaml 数据集配置（立即加载，全有或全无）。
func LoadDir(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read config dir: %w", err)
	}

	r := NewRegistry()
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		cfg, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("load dataset config %s: %w", name, err)
		}
		r.Add(cfg)
	}
	return r, nil
}

// Add 注册一个数据集配置。仅应在启动加载阶段调用。
func (r *Registry) Add(cfg *DatasetConfig) {
	if cfg == nil || cfg.ID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.datasets[strings.ToLower(cfg.ID)] = cfg
}

// Get 按数据集 id 查找配置（大小写不敏感）。
// 未知 id 返回 CONFIG_NOT_FOUND。
func (r *Registry) Get(datasetID string) (*DatasetConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.datasets[strings.ToLower(datasetID)]
	if !ok {
		return nil, core.NewDomainError(core.ModuleConfig, core.ErrorCodeConfigNotFound,
			fmt.Sprintf("unknown dataset: %s", datasetID))
	}
	return cfg, nil
}

// List 返回已注册的数据集 id 列表。
// 排序沿用数据源的展示习惯：India 在前，US 次之，其余按字典序。
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.datasets))
	for _, cfg := range r.datasets {
		ids = append(ids, cfg.ID)
	}
	sort.Slice(ids, func(i, j int) bool {
		pi, pj := listRank(ids[i]), listRank(ids[j])
		if pi != pj {
			return pi < pj
		}
		return ids[i] < ids[j]
	})
	return ids
}

func listRank(id string) int {
	switch strings.ToLower(id) {
	case "india":
		return 0
	case "us":
		return 1
	default:
		return 2
	}
}
