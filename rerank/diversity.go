package rerank

import (
	"context"

	"github.com/rushteam/vidrec/core"
	"github.com/rushteam/vidrec/pipeline"
)

// Diversity 是一个简单的多样性 ReRank：同频道只保留排序最靠前的一条，
// 避免结果页被单一频道刷屏。没有频道信息的物品直接保留。
type Diversity struct{}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	seen := make(map[string]bool, 32)
	out := make([]*core.Item, 0, len(items))

	for _, it := range items {
		if it == nil {
			continue
		}

		channelID := ""
		if v := it.Video(); v != nil {
			channelID = v.ChannelID
		}

		if channelID == "" {
			out = append(out, it)
			continue
		}
		if seen[channelID] {
			continue
		}
		seen[channelID] = true
		out = append(out, it)
	}

	return out, nil
}
