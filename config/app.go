// Package config 提供应用配置加载与 Node 注册表。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// App 是服务级配置（监听地址、存储、缓存 TTL 等），从 YAML 文件加载，
// 环境变量可覆盖关键字段。
type App struct {
	// Listen HTTP 监听地址，如 ":8080"
	Listen string `yaml:"listen"`

	// SQLitePath 目录数据库路径；为空时使用内存目录
	SQLitePath string `yaml:"sqlite_path"`

	// RedisAddr Redis 地址（host:port）；为空时使用内存缓存
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// RecsCacheTTL / VideosCacheTTL 缓存时长（秒）
	RecsCacheTTL   int `yaml:"recs_cache_ttl"`
	VideosCacheTTL int `yaml:"videos_cache_ttl"`

	// DefaultK 推荐条数缺省值；HistoryLimit 画像回看的最大交互数
	DefaultK     int `yaml:"default_k"`
	HistoryLimit int `yaml:"history_limit"`

	// PipelinePath 可选的 pipeline YAML，追加自定义 rerank/filter 节点
	PipelinePath string `yaml:"pipeline_path"`

	// EnableTakeoutImport 是否开放 Google Takeout 导入端点
	EnableTakeoutImport bool `yaml:"enable_takeout_import"`

	// LogLevel zerolog 级别：debug / info / warn / error
	LogLevel string `yaml:"log_level"`
}

// DefaultApp 返回全部缺省值的配置。
func DefaultApp() *App {
	return &App{
		Listen:              ":8080",
		RecsCacheTTL:        1800,
		VideosCacheTTL:      300,
		DefaultK:            20,
		HistoryLimit:        2000,
		EnableTakeoutImport: true,
		LogLevel:            "info",
	}
}

// LoadApp 从 YAML 文件加载配置并应用环境变量覆盖。
// path 为空时直接返回缺省配置（仍应用环境变量）。
func LoadApp(path string) (*App, error) {
	app := DefaultApp()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, app); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	app.applyEnv()
	if app.Listen == "" {
		app.Listen = ":8080"
	}
	if app.DefaultK <= 0 {
		app.DefaultK = 20
	}
	return app, nil
}

func (a *App) applyEnv() {
	if v := os.Getenv("VIDREC_LISTEN"); v != "" {
		a.Listen = v
	}
	if v := os.Getenv("VIDREC_SQLITE_PATH"); v != "" {
		a.SQLitePath = v
	}
	if v := os.Getenv("VIDREC_REDIS_ADDR"); v != "" {
		a.RedisAddr = v
	}
	if v := os.Getenv("VIDREC_LOG_LEVEL"); v != "" {
		a.LogLevel = v
	}
	if v := os.Getenv("VIDREC_ENABLE_TAKEOUT_IMPORT"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			a.EnableTakeoutImport = b
		}
	}
}
