// Package builders 注册内置 Node 的配置构建器，导入本包即启用配置驱动。
package builders

import (
	"fmt"
	"sync"

	"github.com/rushteam/vidrec/config"
	"github.com/rushteam/vidrec/core"
	"github.com/rushteam/vidrec/filter"
	"github.com/rushteam/vidrec/pipeline"
	"github.com/rushteam/vidrec/pkg/conv"
	"github.com/rushteam/vidrec/rerank"
)

func init() {
	config.Register("filter", BuildFilterNode)
	config.Register("filter.rule", BuildRuleFilterNode)
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("rerank.diversity", BuildDiversityNode)
}

var (
	blacklistStore   core.Store
	blacklistStoreMu sync.RWMutex
)

// SetBlacklistStore 注入 store-backed 黑名单读取的 KV Store。
// 在构建带 key 的 blacklist 子过滤器前调用（通常在服务装配阶段）。
func SetBlacklistStore(s core.Store) {
	blacklistStoreMu.Lock()
	defer blacklistStoreMu.Unlock()
	blacklistStore = s
}

func currentBlacklistStore() core.Store {
	blacklistStoreMu.RLock()
	defer blacklistStoreMu.RUnlock()
	return blacklistStore
}

func BuildFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}
	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		filterType := conv.ConfigGet(filterMap, "type", "")
		switch filterType {
		case "blacklist":
			ids := conv.SliceAnyToString(filterMap["video_ids"])
			if ids == nil {
				ids = []string{}
			}
			key := conv.ConfigGet(filterMap, "key", "")
			store := currentBlacklistStore()
			if key != "" && store == nil {
				return nil, fmt.Errorf("blacklist key %q configured but no store injected", key)
			}
			filters = append(filters, filter.NewBlacklistFilter(ids, store, key))
		case "min_score":
			min := conv.ConfigGetFloat64(filterMap, "min", 0)
			filters = append(filters, &filter.MinScoreFilter{Min: min})
		case "rule":
			expr := conv.ConfigGet(filterMap, "expr", "")
			f, err := filter.NewRuleFilter(expr)
			if err != nil {
				return nil, fmt.Errorf("build rule filter: %w", err)
			}
			filters = append(filters, f)
		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}
	return &filter.FilterNode{Filters: filters}, nil
}

func BuildRuleFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	expr := conv.ConfigGet(cfg, "expr", "")
	f, err := filter.NewRuleFilter(expr)
	if err != nil {
		return nil, err
	}
	return &filter.FilterNode{Filters: []filter.Filter{f}}, nil
}

func BuildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	n := conv.ConfigGetInt(cfg, "n", 0)
	if n <= 0 {
		return nil, fmt.Errorf("n must be positive")
	}
	return &rerank.TopNNode{N: n}, nil
}

func BuildDiversityNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.Diversity{}, nil
}
