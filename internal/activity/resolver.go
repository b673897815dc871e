package activity

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vibedash/vibedash/internal/market"
	"github.com/vibedash/vibedash/internal/metrics"
)

var log = logrus.WithField("module", "activity")

// State 本次结果来自哪个来源
type State string

const (
	Primary  State = "openings"
	Fallback State = "opened_boosterboxes"
)

// Source 两个候选来源，由 wield.API 实现
type Source interface {
	Openings(ctx context.Context, limit int) ([]market.Record, error)
	OpenedBoosterboxes(ctx context.Context, limit int) ([]market.Record, error)
}

// Result 一次解析的结果
type Result struct {
	Events    []Event   `json:"events"`
	Source    State     `json:"source"`
	FetchedAt time.Time `json:"fetchedAt"`
}

type Options struct {
	PrimaryLimit  int // 默认 80
	FallbackLimit int // 默认 140
	Now           func() time.Time
}

// Resolver 先取开包事件，任何失败都转向已开启的 booster box
type Resolver struct {
	src  Source
	opts Options
}

func NewResolver(src Source, opts Options) *Resolver {
	if opts.PrimaryLimit <= 0 {
		opts.PrimaryLimit = 80
	}
	if opts.FallbackLimit <= 0 {
		opts.FallbackLimit = 140
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Resolver{src: src, opts: opts}
}

// Resolve 两个来源都失败时返回备用来源的错误，调用方保留上一次的结果
func (r *Resolver) Resolve(ctx context.Context) (*Result, error) {
	state := Primary
	records, err := r.src.Openings(ctx, r.opts.PrimaryLimit)
	if err != nil {
		log.Warnf("openings 获取失败，转向 opened boosterbox: %v", err)
		metrics.ActivityFallbacks.Add(1)
		state = Fallback
		records, err = r.src.OpenedBoosterboxes(ctx, r.opts.FallbackLimit)
		if err != nil {
			log.Errorf("opened boosterbox 获取失败: %v", err)
			return nil, err
		}
	}

	now := r.opts.Now()
	events := make([]Event, 0, len(records))
	for _, rec := range records {
		events = append(events, FromRecord(rec, state, now))
	}
	log.WithFields(logrus.Fields{"source": state, "count": len(events)}).Debug("activity 已更新")
	return &Result{Events: events, Source: state, FetchedAt: now}, nil
}
