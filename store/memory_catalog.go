package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rushteam/vidrec/core"
)

// MemoryCatalog 是内存实现的目录/交互存储，用于测试/开发。
// 实现 core.VideoStore 与 core.InteractionStore。
type MemoryCatalog struct {
	mu           sync.RWMutex
	videos       map[string]*core.Video
	channels     map[string]*core.Channel
	interactions []*core.Interaction
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		videos:   make(map[string]*core.Video),
		channels: make(map[string]*core.Channel),
	}
}

// AllVideos 返回全量目录快照，按 created_at 降序（与列表接口同序）。
func (m *MemoryCatalog) AllVideos(_ context.Context) ([]*core.Video, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedVideos(0), nil
}

func (m *MemoryCatalog) ListVideos(_ context.Context, limit int) ([]*core.Video, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedVideos(limit), nil
}

// sortedVideos 持锁调用。created_at 相同（测试数据常见）时按 ID 保证稳定。
func (m *MemoryCatalog) sortedVideos(limit int) []*core.Video {
	out := make([]*core.Video, 0, len(m.videos))
	for _, v := range m.videos {
		cp := *v
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *MemoryCatalog) GetVideo(_ context.Context, videoID string) (*core.Video, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.videos[videoID]
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	cp := *v
	return &cp, nil
}

// UpsertVideo 插入或更新视频。频道不存在时自动创建占位频道。
// 更新时保留原 created_at。
func (m *MemoryCatalog) UpsertVideo(_ context.Context, video *core.Video) error {
	if video == nil || video.ID == "" {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "store: video id is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if video.ChannelID != "" {
		if _, ok := m.channels[video.ChannelID]; !ok {
			m.channels[video.ChannelID] = &core.Channel{
				ID:        video.ChannelID,
				Title:     "Channel " + video.ChannelID,
				CreatedAt: time.Now().UTC(),
			}
		}
	}

	cp := *video
	if old, ok := m.videos[video.ID]; ok {
		cp.CreatedAt = old.CreatedAt
	} else if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	m.videos[video.ID] = &cp
	return nil
}

func (m *MemoryCatalog) UpsertChannel(_ context.Context, channel *core.Channel) error {
	if channel == nil || channel.ID == "" {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "store: channel id is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *channel
	if old, ok := m.channels[channel.ID]; ok {
		cp.CreatedAt = old.CreatedAt
	} else if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	m.channels[channel.ID] = &cp
	return nil
}

// UserInteractions 返回某用户的交互历史，按 event_time 降序。
func (m *MemoryCatalog) UserInteractions(_ context.Context, userID string, limit int) ([]*core.Interaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*core.Interaction, 0, 16)
	for _, it := range m.interactions {
		if it.UserID == userID {
			cp := *it
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EventTime.After(out[j].EventTime)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryCatalog) AddInteraction(_ context.Context, interaction *core.Interaction) error {
	if interaction == nil || interaction.UserID == "" || interaction.VideoID == "" {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "store: interaction user/video id is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *interaction
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	if cp.EventTime.IsZero() {
		cp.EventTime = time.Now().UTC()
	}
	m.interactions = append(m.interactions, &cp)
	return nil
}

var (
	_ core.VideoStore       = (*MemoryCatalog)(nil)
	_ core.InteractionStore = (*MemoryCatalog)(nil)
)
