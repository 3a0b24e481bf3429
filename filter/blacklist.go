package filter

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/rushteam/vidrec/core"
)

// BlacklistFilter 是黑名单过滤器，过滤掉黑名单中的视频（运营下架、版权下线等）。
type BlacklistFilter struct {
	// VideoIDs 是内存中的黑名单视频 ID 列表
	VideoIDs []string

	// Store 用于从存储中读取黑名单（可选），value 为 JSON 字符串数组
	Store core.Store

	// Key 是 Store 中的黑名单 key（可选）
	Key string
}

// NewBlacklistFilter 创建一个黑名单过滤器。
func NewBlacklistFilter(videoIDs []string, store core.Store, key string) *BlacklistFilter {
	return &BlacklistFilter{
		VideoIDs: videoIDs,
		Store:    store,
		Key:      key,
	}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}

	for _, id := range f.VideoIDs {
		if item.ID == id {
			return true, nil
		}
	}

	if f.Store != nil && f.Key != "" {
		data, err := f.Store.Get(ctx, f.Key)
		if err == nil {
			var ids []string
			if json.Unmarshal(data, &ids) == nil {
				for _, id := range ids {
					if item.ID == id {
						return true, nil
					}
				}
			}
		}
	}

	return false, nil
}
