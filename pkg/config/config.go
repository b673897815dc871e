package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// 存储后端
const (
	StorageFile   = "file"
	StorageBadger = "badger"
	StorageSQLite = "sqlite"
)

// 无创建者的已认证 pack 的处理方式
const (
	UnknownCreatorBucket  = "bucket"
	UnknownCreatorExclude = "exclude"
)

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Listen string
}

// WieldConfig 上游市场 API 配置
type WieldConfig struct {
	BaseURL            string        // 核心层只访问代理前缀，例如 http://127.0.0.1:8080/api/wield
	UpstreamURL        string        // 代理转发的真实上游地址（只有代理使用）
	APIKey             string        // 只在代理里注入，核心层从不持有
	ChainID            int           // 默认 Base 链 8453
	Timeout            time.Duration // 单次请求超时
	RetryCount         int           // 传输层重试次数（不含业务级 fallback）
	RateLimitPerSecond int           // 0 表示不限速
}

// LimitsConfig 各资源的条数上限
type LimitsConfig struct {
	Packs       int
	Openings    int
	Opened      int
	Verified    int
	Featured    int
	Leaderboard int
}

// PollConfig 轮询配置
type PollConfig struct {
	Interval time.Duration // 0 表示只支持手动刷新
}

// StorageConfig 本地交易清单存储配置
type StorageConfig struct {
	Backend string
	Path    string
}

// RankingConfig 排行榜配置
type RankingConfig struct {
	UnknownCreator string
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// MetricsConfig expvar/pprof 调试服务
type MetricsConfig struct {
	Listen string // 为空则不启动
}

// Config 应用配置（显式传入各组件，不做全局读取）
type Config struct {
	Server  ServerConfig
	Wield   WieldConfig
	Limits  LimitsConfig
	Poll    PollConfig
	Storage StorageConfig
	Ranking RankingConfig
	Log     LogConfig
	Metrics MetricsConfig
}

// ConfigFile 配置文件结构（用于 YAML/JSON 解析）
type ConfigFile struct {
	Server struct {
		Listen string `yaml:"listen" json:"listen"`
	} `yaml:"server" json:"server"`
	Wield struct {
		BaseURL            string `yaml:"base_url" json:"base_url"`
		UpstreamURL        string `yaml:"upstream_url" json:"upstream_url"`
		APIKey             string `yaml:"api_key" json:"api_key"`
		ChainID            int    `yaml:"chain_id" json:"chain_id"`
		TimeoutSeconds     int    `yaml:"timeout_seconds" json:"timeout_seconds"`
		RetryCount         *int   `yaml:"retry_count" json:"retry_count"`
		RateLimitPerSecond int    `yaml:"rate_limit_per_second" json:"rate_limit_per_second"`
	} `yaml:"wield" json:"wield"`
	Limits struct {
		Packs       int `yaml:"packs" json:"packs"`
		Openings    int `yaml:"openings" json:"openings"`
		Opened      int `yaml:"opened" json:"opened"`
		Verified    int `yaml:"verified" json:"verified"`
		Featured    int `yaml:"featured" json:"featured"`
		Leaderboard int `yaml:"leaderboard" json:"leaderboard"`
	} `yaml:"limits" json:"limits"`
	Poll struct {
		IntervalSeconds *int `yaml:"interval_seconds" json:"interval_seconds"`
	} `yaml:"poll" json:"poll"`
	Storage struct {
		Backend string `yaml:"backend" json:"backend"`
		Path    string `yaml:"path" json:"path"`
	} `yaml:"storage" json:"storage"`
	Ranking struct {
		UnknownCreator string `yaml:"unknown_creator" json:"unknown_creator"`
	} `yaml:"ranking" json:"ranking"`
	Log struct {
		Level      string `yaml:"level" json:"level"`
		File       string `yaml:"file" json:"file"`
		MaxSize    int    `yaml:"max_size" json:"max_size"`
		MaxBackups int    `yaml:"max_backups" json:"max_backups"`
		MaxAge     int    `yaml:"max_age" json:"max_age"`
		Compress   *bool  `yaml:"compress" json:"compress"`
	} `yaml:"log" json:"log"`
	Metrics struct {
		Listen string `yaml:"listen" json:"listen"`
	} `yaml:"metrics" json:"metrics"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{Listen: ":8080"},
		Wield: WieldConfig{
			BaseURL:     LocalBaseURL(":8080"),
			UpstreamURL: "https://api.wield.xyz/v1",
			ChainID:     8453,
			Timeout:     15 * time.Second,
			RetryCount:  2,
		},
		Limits: LimitsConfig{
			Packs:       180,
			Openings:    80,
			Opened:      140,
			Verified:    24,
			Featured:    8,
			Leaderboard: 20,
		},
		Poll:    PollConfig{Interval: 60 * time.Second},
		Storage: StorageConfig{Backend: StorageFile, Path: "data"},
		Ranking: RankingConfig{UnknownCreator: UnknownCreatorBucket},
		Log: LogConfig{
			Level:      "info",
			File:       "logs/vibedash.log",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		},
	}
}

// LocalBaseURL 本进程代理的访问前缀；未指定主机时使用 127.0.0.1
func LocalBaseURL(listen string) string {
	host, port, err := net.SplitHostPort(strings.TrimSpace(listen))
	if err != nil {
		host, port = "", "8080"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + "/api/wield"
}

// SetListen 修改监听地址；base_url 仍指向本进程代理时随之更新
func (c *Config) SetListen(listen string) {
	if c.Wield.BaseURL == LocalBaseURL(c.Server.Listen) {
		c.Wield.BaseURL = LocalBaseURL(listen)
	}
	c.Server.Listen = listen
}

// LoadFromFile 加载配置（优先级：配置文件 > 环境变量 > 默认值）
// filePath 为空时只使用环境变量和默认值
func LoadFromFile(filePath string) (*Config, error) {
	cfg := Default()
	applyEnv(cfg)

	if filePath != "" {
		cf, err := loadConfigFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("加载配置文件失败 %s: %w", filePath, err)
		}
		applyFile(cfg, cf)
	}

	// 未显式配置 base_url 时跟随监听地址
	if cfg.Wield.BaseURL == Default().Wield.BaseURL {
		cfg.Wield.BaseURL = LocalBaseURL(cfg.Server.Listen)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}
	return cfg, nil
}

// loadConfigFile 加载配置文件（支持 YAML 和 JSON）
func loadConfigFile(filePath string) (*ConfigFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cf ConfigFile
	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cf); err != nil {
			return nil, fmt.Errorf("解析 YAML 配置文件失败: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cf); err != nil {
			return nil, fmt.Errorf("解析 JSON 配置文件失败: %w", err)
		}
	default:
		return nil, fmt.Errorf("不支持的配置文件格式: %s (支持 .yaml, .yml, .json)", ext)
	}
	return &cf, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Listen = getEnv("VIBEDASH_LISTEN", cfg.Server.Listen)
	cfg.Wield.BaseURL = getEnv("VIBEDASH_WIELD_BASE_URL", cfg.Wield.BaseURL)
	cfg.Wield.UpstreamURL = getEnv("NEXT_PUBLIC_WIELD_API", cfg.Wield.UpstreamURL)
	cfg.Wield.APIKey = getEnv("WIELD_API_KEY", cfg.Wield.APIKey)
	cfg.Wield.ChainID = parseIntEnv("NEXT_PUBLIC_CHAIN_ID", cfg.Wield.ChainID)
	cfg.Wield.Timeout = time.Duration(parseIntEnv("VIBEDASH_TIMEOUT_SECONDS", int(cfg.Wield.Timeout/time.Second))) * time.Second
	cfg.Wield.RetryCount = parseIntEnv("VIBEDASH_RETRY_COUNT", cfg.Wield.RetryCount)
	cfg.Wield.RateLimitPerSecond = parseIntEnv("VIBEDASH_RATE_LIMIT", cfg.Wield.RateLimitPerSecond)
	cfg.Poll.Interval = time.Duration(parseIntEnv("VIBEDASH_POLL_INTERVAL_SECONDS", int(cfg.Poll.Interval/time.Second))) * time.Second
	cfg.Storage.Backend = getEnv("VIBEDASH_STORAGE_BACKEND", cfg.Storage.Backend)
	cfg.Storage.Path = getEnv("VIBEDASH_STORAGE_PATH", cfg.Storage.Path)
	cfg.Ranking.UnknownCreator = getEnv("VIBEDASH_UNKNOWN_CREATOR", cfg.Ranking.UnknownCreator)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)
	cfg.Metrics.Listen = getEnv("VIBEDASH_METRICS_LISTEN", cfg.Metrics.Listen)
}

func applyFile(cfg *Config, cf *ConfigFile) {
	setString(&cfg.Server.Listen, cf.Server.Listen)

	setString(&cfg.Wield.BaseURL, cf.Wield.BaseURL)
	setString(&cfg.Wield.UpstreamURL, cf.Wield.UpstreamURL)
	setString(&cfg.Wield.APIKey, cf.Wield.APIKey)
	setInt(&cfg.Wield.ChainID, cf.Wield.ChainID)
	if cf.Wield.TimeoutSeconds > 0 {
		cfg.Wield.Timeout = time.Duration(cf.Wield.TimeoutSeconds) * time.Second
	}
	if cf.Wield.RetryCount != nil {
		cfg.Wield.RetryCount = *cf.Wield.RetryCount
	}
	setInt(&cfg.Wield.RateLimitPerSecond, cf.Wield.RateLimitPerSecond)

	setInt(&cfg.Limits.Packs, cf.Limits.Packs)
	setInt(&cfg.Limits.Openings, cf.Limits.Openings)
	setInt(&cfg.Limits.Opened, cf.Limits.Opened)
	setInt(&cfg.Limits.Verified, cf.Limits.Verified)
	setInt(&cfg.Limits.Featured, cf.Limits.Featured)
	setInt(&cfg.Limits.Leaderboard, cf.Limits.Leaderboard)

	// interval_seconds: 0 显式关闭轮询
	if cf.Poll.IntervalSeconds != nil {
		cfg.Poll.Interval = time.Duration(*cf.Poll.IntervalSeconds) * time.Second
	}

	setString(&cfg.Storage.Backend, cf.Storage.Backend)
	setString(&cfg.Storage.Path, cf.Storage.Path)
	setString(&cfg.Ranking.UnknownCreator, cf.Ranking.UnknownCreator)

	setString(&cfg.Log.Level, cf.Log.Level)
	setString(&cfg.Log.File, cf.Log.File)
	setInt(&cfg.Log.MaxSize, cf.Log.MaxSize)
	setInt(&cfg.Log.MaxBackups, cf.Log.MaxBackups)
	setInt(&cfg.Log.MaxAge, cf.Log.MaxAge)
	if cf.Log.Compress != nil {
		cfg.Log.Compress = *cf.Log.Compress
	}

	setString(&cfg.Metrics.Listen, cf.Metrics.Listen)
}

// Validate 验证配置
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Wield.BaseURL) == "" {
		return fmt.Errorf("wield.base_url 未配置")
	}
	if c.Wield.ChainID <= 0 {
		return fmt.Errorf("wield.chain_id 必须大于 0")
	}
	if c.Wield.RetryCount < 0 {
		return fmt.Errorf("wield.retry_count 不能为负数")
	}
	if c.Poll.Interval < 0 {
		return fmt.Errorf("poll.interval_seconds 不能为负数")
	}
	for name, v := range map[string]int{
		"limits.packs":       c.Limits.Packs,
		"limits.openings":    c.Limits.Openings,
		"limits.opened":      c.Limits.Opened,
		"limits.verified":    c.Limits.Verified,
		"limits.leaderboard": c.Limits.Leaderboard,
	} {
		if v <= 0 {
			return fmt.Errorf("%s 必须大于 0", name)
		}
	}
	switch c.Storage.Backend {
	case StorageFile, StorageBadger, StorageSQLite:
	default:
		return fmt.Errorf("未知的存储后端: %s (支持 file, badger, sqlite)", c.Storage.Backend)
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		return fmt.Errorf("storage.path 不能为空")
	}
	switch c.Ranking.UnknownCreator {
	case UnknownCreatorBucket, UnknownCreatorExclude:
	default:
		return fmt.Errorf("ranking.unknown_creator 只能是 bucket 或 exclude: %s", c.Ranking.UnknownCreator)
	}
	return nil
}

func setString(dst *string, v string) {
	if strings.TrimSpace(v) != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseIntEnv 解析整数环境变量
func parseIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
