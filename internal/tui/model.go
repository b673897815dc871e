// Package tui 终端看板：只渲染 dashboard 快照
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vibedash/vibedash/internal/activity"
	"github.com/vibedash/vibedash/internal/dashboard"
	"github.com/vibedash/vibedash/internal/market"
	"github.com/vibedash/vibedash/internal/ranking"
)

// RefreshFunc 手动刷新（r 键）
type RefreshFunc func(ctx context.Context) error

type snapshotMsg dashboard.Snapshot

type refreshDoneMsg struct{ err error }

type tickMsg time.Time

var (
	accent     = lipgloss.Color("39")
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	panelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accent).Padding(0, 1)

	rarityColors = map[market.Rarity]lipgloss.Color{
		market.Common:    "250",
		market.Rare:      "33",
		market.Epic:      "135",
		market.Legendary: "214",
	}
)

type Model struct {
	snap       dashboard.Snapshot
	updates    <-chan dashboard.Snapshot
	refresh    RefreshFunc
	refreshing bool
	lastErr    error
	now        time.Time
	width      int
	height     int
}

func NewModel(initial dashboard.Snapshot, updates <-chan dashboard.Snapshot, refresh RefreshFunc) Model {
	return Model{snap: initial, updates: updates, refresh: refresh, now: time.Now()}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitForUpdate(), tick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			if m.refreshing || m.refresh == nil {
				return m, nil
			}
			m.refreshing = true
			return m, m.doRefresh()
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case snapshotMsg:
		m.snap = dashboard.Snapshot(msg)
		return m, m.waitForUpdate()
	case refreshDoneMsg:
		m.refreshing = false
		m.lastErr = msg.err
	case tickMsg:
		m.now = time.Time(msg)
		return m, tick()
	}
	return m, nil
}

// waitForUpdate 一次只挂一个等待，收到后再重新挂
func (m Model) waitForUpdate() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-m.updates
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

func (m Model) doRefresh() tea.Cmd {
	refresh := m.refresh
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return refreshDoneMsg{err: refresh(ctx)}
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) View() string {
	width := m.width - 4
	if width < 80 {
		width = 80
	}
	half := width/2 - 2

	left := panelStyle.Width(half).Render(renderActivity(m.snap.Activity, half, 15))
	right := panelStyle.Width(half).Render(
		renderCreators(m.snap.Creators, 10) + "\n\n" + renderPacks(m.snap.Verified, 8),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderFooter())
}

func (m Model) renderHeader() string {
	wallet := "Not Connected"
	if m.snap.Wallet != "" {
		wallet = market.Short(m.snap.Wallet)
	}
	status := ""
	if m.refreshing || m.snap.Loading {
		status = " | Loading…"
	}
	line := fmt.Sprintf("VibeDash | Packs: %d | Wallet: %s | %s%s",
		len(m.snap.Packs), wallet, m.now.Format("15:04:05"), status)
	return titleStyle.Padding(0, 1).Render(line)
}

func (m Model) renderFooter() string {
	parts := []string{"r 刷新", "q 退出"}
	if !m.snap.ActivityAt.IsZero() {
		parts = append(parts, fmt.Sprintf("动态更新于 %s (%s)", m.snap.ActivityAt.Format("15:04:05"), m.snap.Source))
	}
	footer := mutedStyle.Render(strings.Join(parts, " • "))
	if m.lastErr != nil {
		footer += "\n" + errStyle.Render("刷新失败: "+m.lastErr.Error())
	}
	return footer
}

func renderActivity(events []activity.Event, width, max int) string {
	lines := []string{titleStyle.Render("Live Pulls"), strings.Repeat("─", maxInt(width-2, 10))}
	if len(events) == 0 {
		lines = append(lines, mutedStyle.Render("暂无动态"))
	}
	for i, e := range events {
		if i == max {
			break
		}
		style := lipgloss.NewStyle().Foreground(rarityColors[e.Rarity])
		lines = append(lines, fmt.Sprintf("%s %s", style.Render(e.Rarity.Stars()), e.TickerLine()))
	}
	return strings.Join(lines, "\n")
}

func renderCreators(creators []ranking.CreatorAggregate, max int) string {
	lines := []string{titleStyle.Render("Verified Creators")}
	if len(creators) == 0 {
		lines = append(lines, mutedStyle.Render("暂无认证创作者"))
	}
	for i, c := range creators {
		if i == max {
			break
		}
		lines = append(lines, fmt.Sprintf("%2d. %-14s %3d packs  max $%.2f  %s",
			i+1, market.Short(c.Name), c.Count, c.MaxValue, mutedStyle.Render(c.TopName)))
	}
	return strings.Join(lines, "\n")
}

func renderPacks(packs []market.Record, max int) string {
	lines := []string{titleStyle.Render("Verified Packs")}
	if len(packs) == 0 {
		lines = append(lines, mutedStyle.Render("暂无 pack"))
	}
	for i, p := range packs {
		if i == max {
			break
		}
		price := market.PickUsd(p)
		if price == "" {
			price = "-"
		}
		lines = append(lines, fmt.Sprintf("%-20s %-10s %s", truncate(p.Name(), 20), market.Short(p.Creator()), price))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
