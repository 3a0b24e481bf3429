package filter

import (
	"context"

	"github.com/rushteam/vidrec/core"
)

// MinScoreFilter 剔除分数低于阈值的物品。
// 相似度排序路径用 Min=0 保证不吐出负相似度的候选。
type MinScoreFilter struct {
	Min float64
}

func (f *MinScoreFilter) Name() string {
	return "filter.min_score"
}

func (f *MinScoreFilter) ShouldFilter(
	_ context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	return item.Score < f.Min, nil
}
