package core

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// EventType 是用户行为类型：watch / click / like / skip。
type EventType string

const (
	EventWatch EventType = "watch"
	EventClick EventType = "click"
	EventLike  EventType = "like"
	EventSkip  EventType = "skip"
)

// Valid 判断行为类型是否是已知类型。
func (t EventType) Valid() bool {
	switch t {
	case EventWatch, EventClick, EventLike, EventSkip:
		return true
	}
	return false
}

// Positive 判断该行为是否是正向兴趣信号。
// skip 不参与兴趣画像构建，但仍计入"已交互"排除集。
func (t EventType) Positive() bool {
	switch t {
	case EventWatch, EventClick, EventLike:
		return true
	}
	return false
}

// BaseWeight 返回行为的基础权重：like(3.0) > watch(2.0) > click(1.0)。
func (t EventType) BaseWeight() float64 {
	switch t {
	case EventLike:
		return 3.0
	case EventWatch:
		return 2.0
	case EventClick:
		return 1.0
	}
	return 1.0
}

// Interaction 是一条用户与视频的交互记录。
// 同一 (user, video) 允许多条记录，全部参与画像加权。
type Interaction struct {
	ID           uuid.UUID
	UserID       string
	VideoID      string
	EventType    EventType
	WatchSeconds *int
	EventTime    time.Time
	Metadata     map[string]any
}

// Weight 返回该交互的画像贡献权重 = base_weight × watch_weight。
func (i *Interaction) Weight() float64 {
	return i.EventType.BaseWeight() * watchWeight(i.WatchSeconds)
}

// watchWeight 对观看时长做对数阻尼：1 + min(ln(1+s), 5)，上限 +5。
// 时长缺失或非正时为 1。
func watchWeight(watchSeconds *int) float64 {
	if watchSeconds == nil || *watchSeconds <= 0 {
		return 1.0
	}
	return 1.0 + math.Min(math.Log1p(float64(*watchSeconds)), 5.0)
}
