package rank

import (
	"context"
	"sort"

	"github.com/rushteam/vidrec/core"
	"github.com/rushteam/vidrec/pipeline"
	"github.com/rushteam/vidrec/pkg/utils"
	"github.com/rushteam/vidrec/tfidf"
)

// MetadataNode 是冷启动排序：没有可用兴趣画像时，按元数据丰富度排序。
// 主键是向量非零词项数（降序），并列时按新旧排序
// （published_at 优先，缺失回退 created_at，越新越靠前）。
//
// 分数归一化到 [0,1]：nnz / max(nnz)，候选全为零向量时分母取 1 防除零。
// - 写入 labels：rank_model、cold_start
type MetadataNode struct {
	Space *tfidf.Space

	// Rows 是视频 ID -> Space 行号的映射
	Rows map[string]int
}

func (n *MetadataNode) Name() string        { return "rank.metadata" }
func (n *MetadataNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *MetadataNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Space == nil || len(items) == 0 {
		return items, nil
	}

	nnz := make(map[string]int, len(items))
	maxNNZ := 0
	for _, it := range items {
		if it == nil {
			continue
		}
		count := 0
		if row, ok := n.Rows[it.ID]; ok {
			count = n.Space.Vector(row).NNZ()
		}
		nnz[it.ID] = count
		if count > maxNNZ {
			maxNNZ = count
		}
	}

	denom := maxNNZ
	if denom == 0 {
		denom = 1
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		it.Score = float64(nnz[it.ID]) / float64(denom)
		it.PutLabel("rank_model", utils.Label{Value: "metadata", Source: "rank"})
		it.PutLabel("cold_start", utils.Label{Value: "true", Source: "rank"})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		ni, nj := nnz[items[i].ID], nnz[items[j].ID]
		if ni != nj {
			return ni > nj
		}
		vi, vj := items[i].Video(), items[j].Video()
		if vi == nil || vj == nil {
			return vj == nil && vi != nil
		}
		return vi.RecencyAnchor().After(vj.RecencyAnchor())
	})
	return items, nil
}
