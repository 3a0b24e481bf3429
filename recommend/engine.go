// Package recommend 实现基于内容的推荐引擎：
// 对全量目录做 TF-IDF 向量化，从加权交互历史构建用户兴趣向量，
// 按余弦相似度排序；没有可用画像时回退到"元数据丰富度 + 新旧"的冷启动排序。
//
// 引擎是无状态的：每次调用都从当前目录与历史快照重建向量空间与画像，
// 不在进程内缓存任何模型状态，多个请求可以安全并行。
package recommend

import (
	"context"
	"fmt"
	"math"

	"github.com/rushteam/vidrec/core"
	"github.com/rushteam/vidrec/filter"
	"github.com/rushteam/vidrec/pipeline"
	"github.com/rushteam/vidrec/rank"
	"github.com/rushteam/vidrec/recall"
	"github.com/rushteam/vidrec/rerank"
	"github.com/rushteam/vidrec/tfidf"
)

const (
	// DefaultK 是未指定条数时的默认返回条数
	DefaultK = 20

	// defaultHistoryLimit 是读取交互历史的上限
	defaultHistoryLimit = 2000

	// reasonSimilar 是相似度路径的基线理由
	reasonSimilar = "Similar to your recent watched content"
)

// Engine 是推荐引擎。Videos / Interactions 是两个只读协作方：
// 目录与历史在进入引擎前已被物化为内存集合，引擎内部没有阻塞 I/O。
type Engine struct {
	Videos       core.VideoStore
	Interactions core.InteractionStore

	// Vectorizer 的零值可用（默认 25000 词表上限）
	Vectorizer tfidf.Vectorizer

	// HistoryLimit 交互历史读取上限；<=0 时使用 defaultHistoryLimit
	HistoryLimit int

	// Extra 是可配置的后处理节点（filter.rule、rerank.diversity 等），
	// 在过滤之后、Top-K 截断之前执行
	Extra []pipeline.Node
}

// Recommend 为一个用户生成至多 k 条推荐。
// 空目录返回空结果；历史为空/不可用时走冷启动；二者都不是错误。
func (e *Engine) Recommend(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if rctx == nil || rctx.UserID == "" {
		return []*core.Item{}, nil
	}
	k := rctx.K
	if k <= 0 {
		k = DefaultK
	}

	videos, err := e.Videos.AllVideos(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if len(videos) == 0 {
		return []*core.Item{}, nil
	}

	limit := e.HistoryLimit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	history, err := e.Interactions.UserInteractions(ctx, rctx.UserID, limit)
	if err != nil {
		return nil, fmt.Errorf("load interactions: %w", err)
	}

	// 向量空间按当前目录快照整体重建，词表在本次计算内共享
	docs := make([]string, len(videos))
	rows := make(map[string]int, len(videos))
	for i, v := range videos {
		docs[i] = v.Text()
		rows[v.ID] = i
	}
	space := e.Vectorizer.Fit(docs)

	profile, ok := buildProfile(space, rows, history)

	nodes := make([]pipeline.Node, 0, 4+len(e.Extra))
	if ok {
		nodes = append(nodes,
			&rank.CosineNode{Space: space, Profile: profile, Rows: rows},
			&filter.FilterNode{Filters: []filter.Filter{
				filter.NewSeenFilter(history),
				&filter.MinScoreFilter{Min: 0},
			}},
		)
	} else {
		// 冷启动归一化分母只看未交互候选：先剔除已交互视频再打分
		nodes = append(nodes,
			&filter.FilterNode{Filters: []filter.Filter{filter.NewSeenFilter(history)}},
			&rank.MetadataNode{Space: space, Rows: rows},
		)
	}
	nodes = append(nodes, e.Extra...)
	nodes = append(nodes, &rerank.TopNNode{N: k})

	source := &recall.Catalog{Videos: videos}
	items, err := source.Recall(ctx, rctx)
	if err != nil {
		return nil, fmt.Errorf("recall catalog: %w", err)
	}

	p := &pipeline.Pipeline{Nodes: nodes}
	items, err = p.Run(ctx, rctx, items)
	if err != nil {
		return nil, fmt.Errorf("run pipeline: %w", err)
	}

	// 理由只对最终吐出的条目生成，纯解释性，不回写分数
	for _, it := range items {
		if ok {
			it.AddReason(reasonSimilar)
			if row, found := rows[it.ID]; found {
				it.AddReason(keywordOverlapReason(space, profile, space.Vector(row)))
			}
		} else {
			addColdStartReasons(it)
		}
		it.Score = round6(it.Score)
	}

	return items, nil
}

// round6 将分数保留 6 位小数（对外展示的量级足够，并抹平浮点累加噪声）。
func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
