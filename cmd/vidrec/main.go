// vidrec 是基于内容的视频推荐服务：
// TF-IDF 目录向量化 + 加权兴趣画像 + 余弦排序，带冷启动回退。
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/vidrec/cache"
	"github.com/rushteam/vidrec/config"
	"github.com/rushteam/vidrec/config/builders"
	"github.com/rushteam/vidrec/core"
	"github.com/rushteam/vidrec/pipeline"
	"github.com/rushteam/vidrec/recommend"
	"github.com/rushteam/vidrec/server"
	"github.com/rushteam/vidrec/store"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadApp(*configPath)
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Error().Err(err).Msg("load config")
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}

func run(cfg *config.App, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 目录存储：配置了路径用 SQLite，否则退化为内存目录
	var (
		videos       core.VideoStore
		interactions core.InteractionStore
	)
	if cfg.SQLitePath != "" {
		s, err := store.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer s.Close()
		videos, interactions = s, s
		log.Info().Str("path", cfg.SQLitePath).Msg("using sqlite catalog")
	} else {
		m := store.NewMemoryCatalog()
		videos, interactions = m, m
		log.Info().Msg("using in-memory catalog")
	}

	// 响应缓存：配置了 Redis 地址用 Redis，否则内存 KV
	var kv core.Store
	if cfg.RedisAddr != "" {
		r, err := store.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		kv = r
		log.Info().Str("addr", cfg.RedisAddr).Msg("using redis cache")
	} else {
		kv = store.NewMemoryStore()
		log.Info().Msg("using in-memory cache")
	}
	defer kv.Close()

	// store-backed 黑名单（pipeline 配置里的 blacklist key）复用同一个 KV
	builders.SetBlacklistStore(kv)

	c := cache.New(kv)
	if cfg.RecsCacheTTL > 0 {
		c.RecsTTL = cfg.RecsCacheTTL
	}
	if cfg.VideosCacheTTL > 0 {
		c.VideosTTL = cfg.VideosCacheTTL
	}

	engine := &recommend.Engine{
		Videos:       videos,
		Interactions: interactions,
		HistoryLimit: cfg.HistoryLimit,
	}

	// 可选的 pipeline 配置：追加 filter.rule / rerank.diversity 等自定义节点
	if cfg.PipelinePath != "" {
		pcfg, err := loadPipeline(cfg.PipelinePath)
		if err != nil {
			return err
		}
		engine.Extra = pcfg
		log.Info().Str("path", cfg.PipelinePath).Int("nodes", len(pcfg)).Msg("loaded pipeline config")
	}

	srv := &server.Server{
		Videos:              videos,
		Interactions:        interactions,
		Engine:              engine,
		Cache:               c,
		DefaultK:            cfg.DefaultK,
		EnableTakeoutImport: cfg.EnableTakeoutImport,
		Log:                 log,
	}

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.Listen).Msg("listening")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// loadPipeline 读取 pipeline YAML 并用注册表构建节点列表。
func loadPipeline(path string) ([]pipeline.Node, error) {
	pcfg, err := pipeline.LoadFromYAML(path)
	if err != nil {
		return nil, err
	}
	if err := config.ValidatePipelineConfig(pcfg); err != nil {
		return nil, err
	}
	p, err := pcfg.BuildPipeline(config.DefaultFactory())
	if err != nil {
		return nil, err
	}
	return p.Nodes, nil
}
