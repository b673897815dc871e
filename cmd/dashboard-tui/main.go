package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/vibedash/vibedash/internal/app"
	"github.com/vibedash/vibedash/internal/dashboard"
	"github.com/vibedash/vibedash/internal/tui"
	"github.com/vibedash/vibedash/pkg/config"
	"github.com/vibedash/vibedash/pkg/shutdown"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("VIBEDASH_CONFIG"), "config file (yaml/json)")
	wallet := flag.String("wallet", "", "wallet address for profile lookup")
	flag.Parse()

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	// 界面占用终端，日志只写文件
	if err := app.InitLogger(cfg, true); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	a, err := app.Build(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化失败: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sm := shutdown.NewManager()
	sm.OnShutdown("storage", func(context.Context) error { return a.Close() })

	updates := a.State.Subscribe()
	poller := dashboard.NewPoller(a.State, cfg.Poll.Interval)
	poller.Start(ctx)
	sm.OnShutdown("poller", poller.Stop)

	if *wallet != "" {
		go func() {
			_ = a.State.SetWallet(ctx, *wallet)
		}()
	}

	model := tui.NewModel(a.State.Snapshot(), updates, a.State.Refresh)
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "界面异常退出: %v\n", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	cancel()
	sm.Shutdown(shutdownCtx)
}
