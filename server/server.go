// Package server 提供推荐服务的 HTTP 层：目录维护、交互上报、
// 推荐查询、缓存管理与 Google Takeout 导入。
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/rushteam/vidrec/cache"
	"github.com/rushteam/vidrec/core"
	"github.com/rushteam/vidrec/recommend"
)

const (
	// DefaultK 推荐条数缺省值；MaxK 为上限，超出会被收敛
	DefaultK = 20
	MaxK     = 100

	// DefaultVideoLimit / MaxVideoLimit 列表接口的条数约束
	DefaultVideoLimit = 200
	MaxVideoLimit     = 1000
)

// Server 持有 HTTP 层的全部协作方。
type Server struct {
	Videos       core.VideoStore
	Interactions core.InteractionStore
	Engine       *recommend.Engine
	Cache        *cache.Cache

	// DefaultK 未指定 k 参数时的推荐条数；<=0 时回退到包级 DefaultK
	DefaultK int

	// EnableTakeoutImport 关闭时导入端点返回 404
	EnableTakeoutImport bool

	Log zerolog.Logger
}

// Router 装配全部路由与中间件。
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)

	r.Post("/channels/upsert", s.handleUpsertChannel)
	r.Post("/videos/upsert", s.handleUpsertVideo)
	r.Get("/videos", s.handleListVideos)

	r.Post("/interactions", s.handleCreateInteraction)
	r.Get("/recommendations", s.handleRecommendations)
	r.Post("/cache/clear", s.handleClearCache)

	r.Post("/ingest/google-takeout", s.handleTakeoutEntries)
	r.Post("/ingest/google-takeout/file", s.handleTakeoutFile)
	r.Post("/ingest/google-takeout/zip", s.handleTakeoutZip)

	return r
}

// requestLogger 以结构化字段记录每个请求的方法、路径、状态与耗时。
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.Log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "API is running",
		"health":  "/health",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
