package core

import "github.com/rushteam/vidrec/pkg/utils"

// Item 是推荐链路中的统一承载结构：分数、推荐理由、元信息、标签。
// Reasons 面向用户展示；Labels 用于解释与策略驱动；Score 用于排序决策。
type Item struct {
	ID      string
	Score   float64
	Reasons []string
	Meta    map[string]any
	Labels  map[string]utils.Label
}

func NewItem(id string) *Item {
	return &Item{
		ID:      id,
		Score:   0,
		Reasons: make([]string, 0, 2),
		Meta:    make(map[string]any),
		Labels:  make(map[string]utils.Label),
	}
}

// AddReason 追加一条推荐理由（按添加顺序输出）。
func (it *Item) AddReason(reason string) {
	if reason == "" {
		return
	}
	it.Reasons = append(it.Reasons, reason)
}

// Video 返回 Meta 中携带的视频快照，不存在时返回 nil。
func (it *Item) Video() *Video {
	if it.Meta == nil {
		return nil
	}
	v, _ := it.Meta["video"].(*Video)
	return v
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}
