package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/rushteam/vidrec/core"
)

// SQLiteStore 是 SQLite 实现的目录/交互存储（纯 Go 驱动，无 cgo）。
// 实现 core.VideoStore 与 core.InteractionStore。
// 时间戳统一存 Unix 秒（UTC）；tags/metadata 存 JSON 文本。
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS channels (
		channel_id TEXT PRIMARY KEY,
		title      TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS videos (
		video_id         TEXT PRIMARY KEY,
		channel_id       TEXT NOT NULL REFERENCES channels(channel_id),
		title            TEXT NOT NULL,
		description      TEXT NOT NULL DEFAULT '',
		tags             TEXT,
		duration_seconds INTEGER,
		published_at     INTEGER,
		created_at       INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_videos_created ON videos(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_videos_channel ON videos(channel_id);

	CREATE TABLE IF NOT EXISTS interactions (
		interaction_id TEXT PRIMARY KEY,
		user_id        TEXT NOT NULL,
		video_id       TEXT NOT NULL REFERENCES videos(video_id) ON DELETE CASCADE,
		event_type     TEXT NOT NULL,
		watch_seconds  INTEGER,
		event_time     INTEGER NOT NULL,
		metadata       TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_interactions_user ON interactions(user_id, event_time DESC);
	CREATE INDEX IF NOT EXISTS idx_interactions_video ON interactions(video_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) AllVideos(ctx context.Context) ([]*core.Video, error) {
	return s.queryVideos(ctx, 0)
}

func (s *SQLiteStore) ListVideos(ctx context.Context, limit int) ([]*core.Video, error) {
	return s.queryVideos(ctx, limit)
}

func (s *SQLiteStore) queryVideos(ctx context.Context, limit int) ([]*core.Video, error) {
	q := `SELECT video_id, channel_id, title, description, tags, duration_seconds, published_at, created_at
		FROM videos ORDER BY created_at DESC, video_id ASC`
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*core.Video, 0, 64)
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetVideo(ctx context.Context, videoID string) (*core.Video, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT video_id, channel_id, title, description, tags, duration_seconds, published_at, created_at
		FROM videos WHERE video_id = ?`, videoID)

	v, err := scanVideo(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrStoreNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(r rowScanner) (*core.Video, error) {
	var (
		v           core.Video
		tags        sql.NullString
		duration    sql.NullInt64
		publishedAt sql.NullInt64
		createdAt   int64
	)
	if err := r.Scan(&v.ID, &v.ChannelID, &v.Title, &v.Description, &tags, &duration, &publishedAt, &createdAt); err != nil {
		return nil, err
	}
	if tags.Valid && tags.String != "" {
		_ = json.Unmarshal([]byte(tags.String), &v.Tags)
	}
	if duration.Valid {
		d := int(duration.Int64)
		v.DurationSeconds = &d
	}
	if publishedAt.Valid {
		t := time.Unix(publishedAt.Int64, 0).UTC()
		v.PublishedAt = &t
	}
	v.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &v, nil
}

// UpsertVideo 插入或更新视频：冲突时更新元数据字段，保留原 created_at。
// 频道不存在时自动创建占位频道。
func (s *SQLiteStore) UpsertVideo(ctx context.Context, video *core.Video) error {
	if video == nil || video.ID == "" {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "store: video id is empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Unix()
	if video.ChannelID != "" {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO channels (channel_id, title, created_at) VALUES (?, ?, ?)
			ON CONFLICT(channel_id) DO NOTHING`,
			video.ChannelID, "Channel "+video.ChannelID, now)
		if err != nil {
			return err
		}
	}

	var tags any
	if len(video.Tags) > 0 {
		raw, err := json.Marshal(video.Tags)
		if err != nil {
			return err
		}
		tags = string(raw)
	}
	var duration any
	if video.DurationSeconds != nil {
		duration = *video.DurationSeconds
	}
	var publishedAt any
	if video.PublishedAt != nil {
		publishedAt = video.PublishedAt.UTC().Unix()
	}
	createdAt := now
	if !video.CreatedAt.IsZero() {
		createdAt = video.CreatedAt.UTC().Unix()
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO videos (video_id, channel_id, title, description, tags, duration_seconds, published_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(video_id) DO UPDATE SET
			channel_id = excluded.channel_id,
			title = excluded.title,
			description = excluded.description,
			tags = excluded.tags,
			duration_seconds = excluded.duration_seconds,
			published_at = excluded.published_at`,
		video.ID, video.ChannelID, video.Title, video.Description, tags, duration, publishedAt, createdAt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLiteStore) UpsertChannel(ctx context.Context, channel *core.Channel) error {
	if channel == nil || channel.ID == "" {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "store: channel id is empty")
	}

	createdAt := time.Now().UTC().Unix()
	if !channel.CreatedAt.IsZero() {
		createdAt = channel.CreatedAt.UTC().Unix()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO channels (channel_id, title, created_at) VALUES (?, ?, ?)
		ON CONFLICT(channel_id) DO UPDATE SET title = excluded.title`,
		channel.ID, channel.Title, createdAt)
	return err
}

func (s *SQLiteStore) UserInteractions(ctx context.Context, userID string, limit int) ([]*core.Interaction, error) {
	q := `SELECT interaction_id, user_id, video_id, event_type, watch_seconds, event_time, metadata
		FROM interactions WHERE user_id = ? ORDER BY event_time DESC`
	args := []any{userID}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*core.Interaction, 0, 64)
	for rows.Next() {
		var (
			it           core.Interaction
			rawID        string
			watchSeconds sql.NullInt64
			eventTime    int64
			metadata     sql.NullString
		)
		if err := rows.Scan(&rawID, &it.UserID, &it.VideoID, &it.EventType, &watchSeconds, &eventTime, &metadata); err != nil {
			return nil, err
		}
		if id, err := uuid.Parse(rawID); err == nil {
			it.ID = id
		}
		if watchSeconds.Valid {
			w := int(watchSeconds.Int64)
			it.WatchSeconds = &w
		}
		it.EventTime = time.Unix(eventTime, 0).UTC()
		if metadata.Valid && metadata.String != "" {
			_ = json.Unmarshal([]byte(metadata.String), &it.Metadata)
		}
		out = append(out, &it)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AddInteraction(ctx context.Context, interaction *core.Interaction) error {
	if interaction == nil || interaction.UserID == "" || interaction.VideoID == "" {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "store: interaction user/video id is empty")
	}

	id := interaction.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	eventTime := interaction.EventTime
	if eventTime.IsZero() {
		eventTime = time.Now().UTC()
	}
	var watchSeconds any
	if interaction.WatchSeconds != nil {
		watchSeconds = *interaction.WatchSeconds
	}
	var metadata any
	if len(interaction.Metadata) > 0 {
		raw, err := json.Marshal(interaction.Metadata)
		if err != nil {
			return err
		}
		metadata = string(raw)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO interactions (interaction_id, user_id, video_id, event_type, watch_seconds, event_time, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id.String(), interaction.UserID, interaction.VideoID, string(interaction.EventType),
		watchSeconds, eventTime.UTC().Unix(), metadata)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var (
	_ core.VideoStore       = (*SQLiteStore)(nil)
	_ core.InteractionStore = (*SQLiteStore)(nil)
)
