package shutdown

import (
	"context"
	"sync"

	"github.com/vibedash/vibedash/pkg/logger"
)

// Handler 关闭回调，name 只用于日志
type Handler struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Manager 优雅关闭管理器：按注册的逆序依次执行
type Manager struct {
	mu       sync.Mutex
	handlers []Handler
	done     bool
}

func NewManager() *Manager {
	return &Manager{}
}

// OnShutdown 注册关闭回调
func (m *Manager) OnShutdown(name string, fn func(ctx context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, Handler{Name: name, Fn: fn})
}

// Shutdown 执行全部回调（只执行一次）；ctx 超时后剩余回调跳过
// 后注册的先关闭：HTTP 服务先停，存储最后关
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	if m.done {
		m.mu.Unlock()
		return
	}
	m.done = true
	handlers := m.handlers
	m.mu.Unlock()

	if len(handlers) == 0 {
		logger.Info("没有注册的关闭回调")
		return
	}
	logger.Infof("开始优雅关闭，共 %d 个回调", len(handlers))

	for i := len(handlers) - 1; i >= 0; i-- {
		h := handlers[i]
		if ctx.Err() != nil {
			logger.Warnf("关闭超时，跳过 %s: %v", h.Name, ctx.Err())
			continue
		}
		if err := h.Fn(ctx); err != nil {
			logger.Warnf("关闭 %s 失败: %v", h.Name, err)
			continue
		}
		logger.Debugf("已关闭 %s", h.Name)
	}
	logger.Info("所有关闭回调已完成")
}
