package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/vibedash/vibedash/internal/app"
	"github.com/vibedash/vibedash/internal/dashboard"
	"github.com/vibedash/vibedash/internal/metrics"
	"github.com/vibedash/vibedash/internal/proxy"
	"github.com/vibedash/vibedash/internal/server"
	"github.com/vibedash/vibedash/pkg/config"
	"github.com/vibedash/vibedash/pkg/logger"
	"github.com/vibedash/vibedash/pkg/shutdown"
)

func main() {
	// .env 不存在时直接使用真实环境变量
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("VIBEDASH_CONFIG"), "config file (yaml/json)")
	listen := flag.String("listen", "", "HTTP listen address (overrides config)")
	flag.Parse()

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		logger.Errorf("加载配置失败: %v", err)
		os.Exit(1)
	}
	if *listen != "" {
		cfg.SetListen(*listen)
	}
	if err := app.InitLogger(cfg, false); err != nil {
		logger.Errorf("初始化日志失败: %v", err)
		os.Exit(1)
	}

	a, err := app.Build(cfg)
	if err != nil {
		logger.Errorf("初始化失败: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sm := shutdown.NewManager()
	sm.OnShutdown("storage", func(context.Context) error { return a.Close() })

	if cfg.Metrics.Listen != "" {
		if _, err := metrics.StartAsync(ctx, cfg.Metrics.Listen); err != nil {
			logger.Warnf("metrics 服务启动失败: %v", err)
		} else {
			logger.Infof("metrics listening on %s", cfg.Metrics.Listen)
		}
	}

	gin.SetMode(gin.ReleaseMode)
	px := proxy.New(proxy.Config{
		UpstreamURL: cfg.Wield.UpstreamURL,
		APIKey:      cfg.Wield.APIKey,
		Timeout:     cfg.Wield.Timeout,
	})
	httpSrv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           server.New(a.State, a.Trades, px, cfg.Wield.Timeout*2).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	sm.OnShutdown("http", httpSrv.Shutdown)

	// 先监听再启动轮询：默认 base_url 指向本进程的代理
	ln, err := net.Listen("tcp", cfg.Server.Listen)
	if err != nil {
		logger.Errorf("监听 %s 失败: %v", cfg.Server.Listen, err)
		os.Exit(1)
	}
	go func() {
		logger.Infof("vibedash listening on %s (chain %d)", cfg.Server.Listen, cfg.Wield.ChainID)
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("http server error: %v", err)
			cancel()
		}
	}()

	poller := dashboard.NewPoller(a.State, cfg.Poll.Interval)
	poller.Start(ctx)
	sm.OnShutdown("poller", poller.Stop)

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	select {
	case <-stopCh:
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	cancel()
	sm.Shutdown(shutdownCtx)
	logger.Info("server stopped")
}
