package dashboard

import (
	"context"
	"sync"
	"time"
)

// Poller 启动时立即刷新一次，之后按间隔刷新；interval <= 0 只做首次刷新
type Poller struct {
	state    *State
	interval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPoller(state *State, interval time.Duration) *Poller {
	return &Poller{state: state, interval: interval}
}

func (p *Poller) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.loop(ctx)
	}()
}

func (p *Poller) loop(ctx context.Context) {
	p.refresh(ctx)
	if p.interval <= 0 {
		return
	}
	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.refresh(ctx)
			if err := p.state.ReloadProfile(ctx); err != nil {
				log.Debugf("轮询刷新钱包资料失败: %v", err)
			}
		}
	}
}

func (p *Poller) refresh(ctx context.Context) {
	if err := p.state.Refresh(ctx); err != nil && ctx.Err() == nil {
		log.Warnf("轮询刷新失败: %v", err)
	}
}

// Stop 取消并等待循环退出
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
