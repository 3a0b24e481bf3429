package recall

import (
	"context"

	"github.com/rushteam/vidrec/core"
	"github.com/rushteam/vidrec/pipeline"
	"github.com/rushteam/vidrec/pkg/utils"
)

// Catalog 是全量目录召回源：把一次请求的目录快照整体变成候选集。
// 内容相似度排序需要对全目录打分，所以不在召回阶段截断。
//
// Videos 是请求级快照；Item 的 Meta["video"] 携带视频记录，
// 供后续 rank/rerank 节点取元数据（发布时间、频道等）。
type Catalog struct {
	Videos []*core.Video
}

func (r *Catalog) Name() string        { return "recall.catalog" }
func (r *Catalog) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *Catalog) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口。输出保持目录顺序（相似度并列时的最终次序依赖它）。
func (r *Catalog) Recall(
	_ context.Context,
	_ *core.RecommendContext,
) ([]*core.Item, error) {
	out := make([]*core.Item, 0, len(r.Videos))
	for _, v := range r.Videos {
		if v == nil {
			continue
		}
		it := core.NewItem(v.ID)
		it.Meta["video"] = v
		it.PutLabel("recall_source", utils.Label{Value: "catalog", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
