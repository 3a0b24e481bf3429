package core

import "context"

// VideoStore 是视频目录的领域接口（推荐核心的只读协作方之一）。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 推荐核心只消费 AllVideos 的全量快照，空目录是合法输入
type VideoStore interface {
	// AllVideos 返回当前全量目录快照（按 created_at 降序）
	AllVideos(ctx context.Context) ([]*Video, error)

	// ListVideos 返回最多 limit 条视频（按 created_at 降序），供 API 层使用
	ListVideos(ctx context.Context, limit int) ([]*Video, error)

	// GetVideo 按 ID 读取视频；不存在时返回 NOT_FOUND
	GetVideo(ctx context.Context, videoID string) (*Video, error)

	// UpsertVideo 插入或更新视频记录
	UpsertVideo(ctx context.Context, video *Video) error

	// UpsertChannel 插入或更新频道记录
	UpsertChannel(ctx context.Context, channel *Channel) error
}

// InteractionStore 是交互历史的领域接口（推荐核心的只读协作方之二）。
// 核心不依赖返回顺序；实现按 event_time 降序返回即可。
type InteractionStore interface {
	// UserInteractions 返回某用户的交互历史（有界）
	UserInteractions(ctx context.Context, userID string, limit int) ([]*Interaction, error)

	// AddInteraction 追加一条交互记录
	AddInteraction(ctx context.Context, interaction *Interaction) error
}
