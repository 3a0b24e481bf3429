package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/rushteam/vidrec/cache"
	"github.com/rushteam/vidrec/core"
	"github.com/rushteam/vidrec/ingest"
)

// ChannelUpsert 频道写入请求。
type ChannelUpsert struct {
	ChannelID string `json:"channel_id"`
	Title     string `json:"title"`
}

// ChannelOut 频道响应。
type ChannelOut struct {
	ChannelID string    `json:"channel_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// VideoUpsert 视频写入请求。
type VideoUpsert struct {
	VideoID         string     `json:"video_id"`
	ChannelID       string     `json:"channel_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	PublishedAt     *time.Time `json:"published_at"`
	DurationSeconds *int       `json:"duration_seconds"`
	Tags            []string   `json:"tags"`
}

// VideoOut 视频响应。
type VideoOut struct {
	VideoID         string     `json:"video_id"`
	ChannelID       string     `json:"channel_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	PublishedAt     *time.Time `json:"published_at"`
	DurationSeconds *int       `json:"duration_seconds"`
	Tags            []string   `json:"tags"`
	CreatedAt       time.Time  `json:"created_at"`
}

func videoOut(v *core.Video) VideoOut {
	return VideoOut{
		VideoID:         v.ID,
		ChannelID:       v.ChannelID,
		Title:           v.Title,
		Description:     v.Description,
		PublishedAt:     v.PublishedAt,
		DurationSeconds: v.DurationSeconds,
		Tags:            v.Tags,
		CreatedAt:       v.CreatedAt,
	}
}

// InteractionCreate 交互上报请求。
type InteractionCreate struct {
	UserID       string         `json:"user_id"`
	VideoID      string         `json:"video_id"`
	EventType    string         `json:"event_type"`
	WatchSeconds *int           `json:"watch_seconds"`
	Metadata     map[string]any `json:"metadata"`
}

// InteractionOut 交互响应。
type InteractionOut struct {
	InteractionID uuid.UUID      `json:"interaction_id"`
	UserID        string         `json:"user_id"`
	VideoID       string         `json:"video_id"`
	EventType     string         `json:"event_type"`
	WatchSeconds  *int           `json:"watch_seconds"`
	EventTime     time.Time      `json:"event_time"`
	Metadata      map[string]any `json:"metadata"`
}

// RecommendationItem 推荐列表中的单条。
type RecommendationItem struct {
	VideoID string   `json:"video_id"`
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}

// RecommendationResponse 推荐接口响应。
type RecommendationResponse struct {
	UserID string               `json:"user_id"`
	K      int                  `json:"k"`
	Items  []RecommendationItem `json:"items"`
}

// TakeoutImportRequest JSON 形式的 Takeout 导入请求。
type TakeoutImportRequest struct {
	UserID     string         `json:"user_id"`
	Rows       []ingest.Entry `json:"rows"`
	SourceFile string         `json:"source_file"`
}

func (s *Server) handleUpsertChannel(w http.ResponseWriter, r *http.Request) {
	var req ChannelUpsert
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ChannelID == "" || req.Title == "" {
		writeError(w, http.StatusBadRequest, "channel_id and title are required")
		return
	}

	ch := &core.Channel{ID: req.ChannelID, Title: req.Title, CreatedAt: time.Now().UTC()}
	if err := s.Videos.UpsertChannel(r.Context(), ch); err != nil {
		s.Log.Error().Err(err).Str("channel_id", req.ChannelID).Msg("upsert channel")
		writeError(w, http.StatusInternalServerError, "failed to upsert channel")
		return
	}
	writeJSON(w, http.StatusOK, ChannelOut{ChannelID: ch.ID, Title: ch.Title, CreatedAt: ch.CreatedAt})
}

func (s *Server) handleUpsertVideo(w http.ResponseWriter, r *http.Request) {
	var req VideoUpsert
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.VideoID == "" || req.ChannelID == "" || req.Title == "" {
		writeError(w, http.StatusBadRequest, "video_id, channel_id and title are required")
		return
	}
	if req.DurationSeconds != nil && *req.DurationSeconds < 0 {
		writeError(w, http.StatusBadRequest, "duration_seconds must be non-negative")
		return
	}

	v := &core.Video{
		ID:              req.VideoID,
		ChannelID:       req.ChannelID,
		Title:           req.Title,
		Description:     req.Description,
		PublishedAt:     req.PublishedAt,
		DurationSeconds: req.DurationSeconds,
		Tags:            req.Tags,
	}
	if err := s.Videos.UpsertVideo(r.Context(), v); err != nil {
		s.Log.Error().Err(err).Str("video_id", req.VideoID).Msg("upsert video")
		writeError(w, http.StatusInternalServerError, "failed to upsert video")
		return
	}

	// 目录变更后所有推荐与列表缓存都不再可信
	if _, err := s.Cache.ClearAll(r.Context()); err != nil {
		s.Log.Debug().Err(err).Msg("invalidate caches after video upsert")
	}

	stored, err := s.Videos.GetVideo(r.Context(), req.VideoID)
	if err != nil {
		s.Log.Error().Err(err).Str("video_id", req.VideoID).Msg("load video after upsert")
		writeError(w, http.StatusInternalServerError, "failed to load video")
		return
	}
	writeJSON(w, http.StatusOK, videoOut(stored))
}

func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	limit := DefaultVideoLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxVideoLimit {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", MaxVideoLimit))
			return
		}
		limit = n
	}

	key := cache.VideosKey(limit)
	var cached []VideoOut
	if hit, err := s.Cache.GetJSON(r.Context(), key, &cached); err == nil && hit {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	videos, err := s.Videos.ListVideos(r.Context(), limit)
	if err != nil {
		s.Log.Error().Err(err).Msg("list videos")
		writeError(w, http.StatusInternalServerError, "failed to list videos")
		return
	}
	out := make([]VideoOut, 0, len(videos))
	for _, v := range videos {
		out = append(out, videoOut(v))
	}

	if err := s.Cache.SetJSON(r.Context(), key, out, s.Cache.VideosTTL); err != nil {
		s.Log.Debug().Err(err).Msg("cache video list")
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateInteraction(w http.ResponseWriter, r *http.Request) {
	var req InteractionCreate
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" || req.VideoID == "" {
		writeError(w, http.StatusBadRequest, "user_id and video_id are required")
		return
	}
	eventType := core.EventType(req.EventType)
	if !eventType.Valid() {
		writeError(w, http.StatusBadRequest, "event_type must be one of watch, click, like, skip")
		return
	}
	if req.WatchSeconds != nil && *req.WatchSeconds < 0 {
		writeError(w, http.StatusBadRequest, "watch_seconds must be non-negative")
		return
	}

	if _, err := s.Videos.GetVideo(r.Context(), req.VideoID); err != nil {
		if core.IsStoreNotFound(err) {
			writeError(w, http.StatusNotFound, "video_id does not exist")
			return
		}
		s.Log.Error().Err(err).Str("video_id", req.VideoID).Msg("check video")
		writeError(w, http.StatusInternalServerError, "failed to check video")
		return
	}

	interaction := &core.Interaction{
		ID:           uuid.New(),
		UserID:       req.UserID,
		VideoID:      req.VideoID,
		EventType:    eventType,
		WatchSeconds: req.WatchSeconds,
		EventTime:    time.Now().UTC(),
		Metadata:     req.Metadata,
	}
	if err := s.Interactions.AddInteraction(r.Context(), interaction); err != nil {
		s.Log.Error().Err(err).Str("user_id", req.UserID).Msg("add interaction")
		writeError(w, http.StatusInternalServerError, "failed to record interaction")
		return
	}

	if _, err := s.Cache.ClearUserRecs(r.Context(), req.UserID); err != nil {
		s.Log.Debug().Err(err).Str("user_id", req.UserID).Msg("clear recommendation cache")
	}

	writeJSON(w, http.StatusOK, InteractionOut{
		InteractionID: interaction.ID,
		UserID:        interaction.UserID,
		VideoID:       interaction.VideoID,
		EventType:     string(interaction.EventType),
		WatchSeconds:  interaction.WatchSeconds,
		EventTime:     interaction.EventTime,
		Metadata:      interaction.Metadata,
	})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	k := s.DefaultK
	if k <= 0 {
		k = DefaultK
	}
	if k > MaxK {
		k = MaxK
	}
	if raw := r.URL.Query().Get("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "k must be an integer")
			return
		}
		// 超出范围收敛而不是报错
		if n < 1 {
			n = 1
		}
		if n > MaxK {
			n = MaxK
		}
		k = n
	}

	key := cache.RecsKey(userID, k)
	var cached RecommendationResponse
	if hit, err := s.Cache.GetJSON(r.Context(), key, &cached); err == nil && hit {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	items, err := s.Engine.Recommend(r.Context(), &core.RecommendContext{UserID: userID, K: k})
	if err != nil {
		s.Log.Error().Err(err).Str("user_id", userID).Msg("generate recommendations")
		writeError(w, http.StatusInternalServerError, "failed to generate recommendations")
		return
	}

	resp := RecommendationResponse{UserID: userID, K: k, Items: make([]RecommendationItem, 0, len(items))}
	for _, it := range items {
		resp.Items = append(resp.Items, RecommendationItem{
			VideoID: it.ID,
			Score:   it.Score,
			Reasons: it.Reasons,
		})
	}

	if err := s.Cache.SetJSON(r.Context(), key, resp, s.Cache.RecsTTL); err != nil {
		s.Log.Debug().Err(err).Str("user_id", userID).Msg("cache recommendations")
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	cleared, err := s.Cache.ClearUserRecs(r.Context(), userID)
	if err != nil {
		s.Log.Error().Err(err).Str("user_id", userID).Msg("clear cache")
		writeError(w, http.StatusInternalServerError, "failed to clear cache")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": fmt.Sprintf("Cleared %d recommendation cache keys for %s", cleared, userID),
	})
}

func (s *Server) takeoutEnabled(w http.ResponseWriter) bool {
	if !s.EnableTakeoutImport {
		writeError(w, http.StatusNotFound, "Google Takeout import is disabled by configuration.")
		return false
	}
	return true
}

func (s *Server) importer() *ingest.Importer {
	return &ingest.Importer{Videos: s.Videos, Interactions: s.Interactions}
}

// writeImportResult 统一导入结果的错误映射与缓存失效。
func (s *Server) writeImportResult(w http.ResponseWriter, r *http.Request, userID string, summary *ingest.ImportSummary, err error) {
	if err != nil {
		if de := core.GetDomainError(err); de != nil && de.Code == core.ErrorCodeInvalidInput {
			writeError(w, http.StatusBadRequest, de.Message)
			return
		}
		s.Log.Error().Err(err).Str("user_id", userID).Msg("takeout import")
		writeError(w, http.StatusInternalServerError, "failed to import activity")
		return
	}

	if _, err := s.Cache.ClearUserRecs(r.Context(), userID); err != nil {
		s.Log.Debug().Err(err).Msg("clear recommendation cache after import")
	}
	if _, err := s.Cache.ClearVideos(r.Context()); err != nil {
		s.Log.Debug().Err(err).Msg("clear video cache after import")
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleTakeoutEntries(w http.ResponseWriter, r *http.Request) {
	if !s.takeoutEnabled(w) {
		return
	}
	var req TakeoutImportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	summary, err := s.importer().ImportEntries(r.Context(), req.UserID, req.Rows, req.SourceFile)
	s.writeImportResult(w, r, req.UserID, summary, err)
}

func (s *Server) handleTakeoutFile(w http.ResponseWriter, r *http.Request) {
	if !s.takeoutEnabled(w) {
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil || len(body) == 0 {
		writeError(w, http.StatusBadRequest, "Request body is empty.")
		return
	}
	summary, err := s.importer().ImportJSON(r.Context(), userID, body, r.URL.Query().Get("source_file"))
	s.writeImportResult(w, r, userID, summary, err)
}

func (s *Server) handleTakeoutZip(w http.ResponseWriter, r *http.Request) {
	if !s.takeoutEnabled(w) {
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil || len(body) == 0 {
		writeError(w, http.StatusBadRequest, "Request body is empty.")
		return
	}
	summary, err := s.importer().ImportZip(r.Context(), userID, body, r.URL.Query().Get("source_file"))
	s.writeImportResult(w, r, userID, summary, err)
}
