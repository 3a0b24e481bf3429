package recall

import (
	"context"

	"github.com/rushteam/vidrec/core"
)

// Source 表示一个可复用的召回源。
// 内容推荐场景下唯一的召回源是全量目录快照，但接口保留给未来的
// 热门/频道订阅等召回策略。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}
