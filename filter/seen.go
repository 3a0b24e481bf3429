package filter

import (
	"context"

	"github.com/rushteam/vidrec/core"
)

// SeenFilter 是已交互过滤器：剔除用户历史上交互过的视频（含 skip）。
type SeenFilter struct {
	// VideoIDs 是本次请求中用户已交互的视频 ID 集合（请求级，一次性构建）
	VideoIDs map[string]struct{}
}

// NewSeenFilter 从用户的交互历史构建过滤器。任意事件类型都计入排除集。
func NewSeenFilter(interactions []*core.Interaction) *SeenFilter {
	ids := make(map[string]struct{}, len(interactions))
	for _, it := range interactions {
		if it == nil {
			continue
		}
		ids[it.VideoID] = struct{}{}
	}
	return &SeenFilter{VideoIDs: ids}
}

func (f *SeenFilter) Name() string {
	return "filter.seen"
}

func (f *SeenFilter) ShouldFilter(
	_ context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	_, seen := f.VideoIDs[item.ID]
	return seen, nil
}
