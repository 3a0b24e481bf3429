package recommend

import "github.com/rushteam/vidrec/core"

// 冷启动路径的固定理由。
// 冷启动的判定在 Recommend 内：目录非空但画像不可用
// （零交互、全是 skip、或全部引用快照外的视频）。
const (
	reasonColdStart       = "Cold start recommendation based on rich metadata"
	reasonColdStartDetail = "Prioritized by metadata richness and recency"
)

func addColdStartReasons(it *core.Item) {
	it.AddReason(reasonColdStart)
	it.AddReason(reasonColdStartDetail)
}
