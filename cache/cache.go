// Package cache 在 core.Store 之上提供 JSON 响应缓存。
// 推荐结果与视频列表按固定 key 规则缓存，写入目录或交互时失效。
package cache

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/rushteam/vidrec/core"
)

const (
	// DefaultRecsTTL 推荐结果缓存时长（秒）
	DefaultRecsTTL = 1800
	// DefaultVideosTTL 视频列表缓存时长（秒）
	DefaultVideosTTL = 300
)

// Cache 包装 core.Store，负责序列化与 key 规则。
type Cache struct {
	store     core.Store
	RecsTTL   int
	VideosTTL int
}

func New(store core.Store) *Cache {
	return &Cache{
		store:     store,
		RecsTTL:   DefaultRecsTTL,
		VideosTTL: DefaultVideosTTL,
	}
}

// RecsKey 推荐结果缓存 key：recs:{user_id}:{k}
func RecsKey(userID string, k int) string {
	return fmt.Sprintf("recs:%s:%d", userID, k)
}

// VideosKey 视频列表缓存 key：api:videos:{limit}
func VideosKey(limit int) string {
	return fmt.Sprintf("api:videos:%d", limit)
}

// GetJSON 读取缓存并反序列化到 v。未命中返回 false。
func (c *Cache) GetJSON(ctx context.Context, key string, v any) (bool, error) {
	raw, err := c.store.Get(ctx, key)
	if core.IsStoreNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON 序列化 v 并按 TTL（秒）写入缓存。
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl int) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, key, raw, ttl)
}

// ClearUserRecs 清除某个用户的全部推荐缓存（所有 k）。
func (c *Cache) ClearUserRecs(ctx context.Context, userID string) (int, error) {
	return c.store.DeletePattern(ctx, fmt.Sprintf("recs:%s:*", userID))
}

// ClearVideos 清除视频列表缓存。
func (c *Cache) ClearVideos(ctx context.Context) (int, error) {
	return c.store.DeletePattern(ctx, "api:videos:*")
}

// ClearAll 清除全部推荐与列表缓存，目录变更时调用。
func (c *Cache) ClearAll(ctx context.Context) (int, error) {
	n1, err := c.store.DeletePattern(ctx, "recs:*")
	if err != nil {
		return n1, err
	}
	n2, err := c.store.DeletePattern(ctx, "api:videos:*")
	return n1 + n2, err
}
