package recommend

import (
	"github.com/rushteam/vidrec/core"
	"github.com/rushteam/vidrec/tfidf"
)

// buildProfile 从交互历史构建用户兴趣向量（加权质心）。
//
// 只有正向行为（watch/click/like）参与，skip 被排除；
// 每条交互的贡献权重 = base_weight(行为) × watch_weight(时长)。
// 引用了快照外视频的交互静默跳过，不是错误。
//
// 没有任何可用交互、或总权重不为正时返回 (nil, false)，由调用方走冷启动。
// 返回的向量与 space 同维，混用其他空间的向量是无效的。
func buildProfile(
	space *tfidf.Space,
	rows map[string]int,
	interactions []*core.Interaction,
) (tfidf.Vector, bool) {
	sum := make(tfidf.Vector)
	var totalWeight float64
	contributed := false

	for _, it := range interactions {
		if it == nil || !it.EventType.Positive() {
			continue
		}
		row, ok := rows[it.VideoID]
		if !ok {
			continue
		}
		w := it.Weight()
		sum.AddScaled(space.Vector(row), w)
		totalWeight += w
		contributed = true
	}

	if !contributed || totalWeight <= 0 {
		return nil, false
	}
	sum.Scale(totalWeight)
	return sum, true
}
