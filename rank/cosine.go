package rank

import (
	"context"
	"sort"

	"github.com/rushteam/vidrec/core"
	"github.com/rushteam/vidrec/pipeline"
	"github.com/rushteam/vidrec/pkg/utils"
	"github.com/rushteam/vidrec/tfidf"
)

// CosineNode 用用户兴趣向量对候选打分：score = cosine(profile, video_vec)。
// - 写入 labels：rank_model
// - 更新 item.Score 并按分数降序稳定排序，分数并列时保持候选原有次序（即目录顺序）
//
// Space/Profile/Rows 都是请求级的：Profile 必须来自同一次 Fit 产出的 Space，
// 混用不同空间的向量是未定义行为。
type CosineNode struct {
	Space   *tfidf.Space
	Profile tfidf.Vector

	// Rows 是视频 ID -> Space 行号的映射
	Rows map[string]int
}

func (n *CosineNode) Name() string        { return "rank.cosine" }
func (n *CosineNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *CosineNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Space == nil || len(n.Profile) == 0 || len(items) == 0 {
		return items, nil
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		row, ok := n.Rows[it.ID]
		if !ok {
			// 不在本次快照里的候选不该出现；容忍并打 0 分
			it.Score = 0
			continue
		}
		it.Score = tfidf.Cosine(n.Profile, n.Space.Vector(row))
		it.PutLabel("rank_model", utils.Label{Value: "cosine", Source: "rank"})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		return items[i].Score > items[j].Score
	})
	return items, nil
}
