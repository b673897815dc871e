// Package app 按配置组装各组件，供 cmd 下的入口复用
package app

import (
	"time"

	"github.com/vibedash/vibedash/internal/activity"
	"github.com/vibedash/vibedash/internal/dashboard"
	"github.com/vibedash/vibedash/internal/ranking"
	"github.com/vibedash/vibedash/internal/tradelist"
	"github.com/vibedash/vibedash/internal/wield"
	"github.com/vibedash/vibedash/pkg/cache"
	"github.com/vibedash/vibedash/pkg/config"
	"github.com/vibedash/vibedash/pkg/logger"
	"github.com/vibedash/vibedash/pkg/persistence"
	"github.com/vibedash/vibedash/pkg/ratelimit"
	sdkhttp "github.com/vibedash/vibedash/pkg/sdk/http"
)

// ownerCacheTTL 钱包资料缓存时间，轮询间隔内的重复查询直接命中
const ownerCacheTTL = 30 * time.Second

type App struct {
	Config  *config.Config
	API     *wield.API
	State   *dashboard.State
	Trades  *tradelist.Store
	Storage persistence.Service

	owners *cache.InMemoryCache[string, *wield.Profile]
}

// InitLogger consoleOff 为 true 时只写文件
func InitLogger(cfg *config.Config, consoleOff bool) error {
	return logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		OutputFile: cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
		NoConsole:  consoleOff,
	})
}

// Build 创建 fetch 客户端、市场 API、动态解析器、快照状态和交易清单
func Build(cfg *config.Config) (*App, error) {
	client := sdkhttp.NewClient(sdkhttp.Config{
		BaseURL:    cfg.Wield.BaseURL,
		Timeout:    cfg.Wield.Timeout,
		RetryCount: cfg.Wield.RetryCount,
		Limiter:    ratelimit.New(cfg.Wield.RateLimitPerSecond),
	})
	owners := cache.NewInMemoryCache[string, *wield.Profile](ownerCacheTTL, time.Minute)
	api := wield.New(client, cfg.Wield.ChainID).WithOwnerCache(owners, ownerCacheTTL)

	resolver := activity.NewResolver(api, activity.Options{
		PrimaryLimit:  cfg.Limits.Openings,
		FallbackLimit: cfg.Limits.Opened,
	})
	state := dashboard.NewState(api, resolver, dashboard.Options{
		PacksLimit:       cfg.Limits.Packs,
		VerifiedLimit:    cfg.Limits.Verified,
		FeaturedLimit:    cfg.Limits.Featured,
		LeaderboardLimit: cfg.Limits.Leaderboard,
		UnknownCreator:   ranking.UnknownCreatorPolicy(cfg.Ranking.UnknownCreator),
	})

	storage, err := persistence.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		owners.Close()
		return nil, err
	}
	logger.Infof("交易清单存储: backend=%s path=%s", cfg.Storage.Backend, cfg.Storage.Path)

	return &App{
		Config:  cfg,
		API:     api,
		State:   state,
		Trades:  tradelist.New(storage, api),
		Storage: storage,
		owners:  owners,
	}, nil
}

// Close 关闭存储并停止缓存清理
func (a *App) Close() error {
	a.owners.Close()
	return a.Storage.Close()
}
