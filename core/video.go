package core

import (
	"strings"
	"time"
)

// Video 是候选物品的领域模型。
// 在一次推荐计算内视为不可变快照；Title + Description 是向量化的文本来源。
type Video struct {
	ID              string
	ChannelID       string
	Title           string
	Description     string
	Tags            []string
	DurationSeconds *int
	PublishedAt     *time.Time
	CreatedAt       time.Time
}

// Text 返回用于向量化的文本（标题与描述拼接）。
func (v *Video) Text() string {
	return strings.TrimSpace(v.Title + " " + v.Description)
}

// RecencyAnchor 返回用于新旧排序的时间锚点：优先 PublishedAt，缺失时回退 CreatedAt。
func (v *Video) RecencyAnchor() time.Time {
	if v.PublishedAt != nil {
		return *v.PublishedAt
	}
	return v.CreatedAt
}

// Channel 是视频所属频道。
type Channel struct {
	ID        string
	Title     string
	CreatedAt time.Time
}
