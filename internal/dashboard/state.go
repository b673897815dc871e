// Package dashboard 维护 pack / 动态 / 钱包资料的快照，并负责刷新
package dashboard

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vibedash/vibedash/internal/activity"
	"github.com/vibedash/vibedash/internal/market"
	"github.com/vibedash/vibedash/internal/metrics"
	"github.com/vibedash/vibedash/internal/ranking"
	"github.com/vibedash/vibedash/internal/wield"
)

var log = logrus.WithField("module", "dashboard")

// Market 由 wield.API 实现
type Market interface {
	Packs(ctx context.Context, limit int) ([]market.Record, error)
	Owner(ctx context.Context, address string) (*wield.Profile, error)
}

// ActivityResolver 由 activity.Resolver 实现
type ActivityResolver interface {
	Resolve(ctx context.Context) (*activity.Result, error)
}

type Options struct {
	PacksLimit       int
	VerifiedLimit    int
	FeaturedLimit    int
	LeaderboardLimit int
	UnknownCreator   ranking.UnknownCreatorPolicy
}

// Snapshot 一次完整的派生视图，发布后不再修改
type Snapshot struct {
	Packs       []market.Record            `json:"packs"`
	Verified    []market.Record            `json:"verified"`
	Creators    []ranking.CreatorAggregate `json:"creators"`
	Activity    []activity.Event           `json:"activity"`
	Source      activity.State             `json:"activitySource,omitempty"`
	Wallet      string                     `json:"wallet,omitempty"`
	BoughtItems []market.Record            `json:"boughtItems"`
	PacksAt     time.Time                  `json:"packsAt"`
	ActivityAt  time.Time                  `json:"activityAt"`
	Loading     bool                       `json:"loading"`
}

// State 快照持有者；各槽位独立刷新，过期结果丢弃
type State struct {
	market   Market
	resolver ActivityResolver
	opts     Options

	packsGen    Generation
	activityGen Generation
	profileGen  Generation

	mu       sync.RWMutex
	snap     Snapshot
	inflight int // 进行中的 Refresh 数，受 mu 保护

	subMu sync.Mutex
	subs  []chan Snapshot
}

func NewState(m Market, r ActivityResolver, opts Options) *State {
	if opts.PacksLimit <= 0 {
		opts.PacksLimit = 180
	}
	return &State{
		market:   m,
		resolver: r,
		opts:     opts,
		snap: Snapshot{
			Packs:       []market.Record{},
			Verified:    []market.Record{},
			Creators:    []ranking.CreatorAggregate{},
			Activity:    []activity.Event{},
			BoughtItems: []market.Record{},
		},
	}
}

// Snapshot 当前快照（切片共享底层数组，调用方只读）
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Subscribe 每次快照变化都会推送最新值；缓冲满时丢弃旧值
func (s *State) Subscribe() <-chan Snapshot {
	ch := make(chan Snapshot, 1)
	s.subMu.Lock()
	s.subs = append(s.subs, ch)
	s.subMu.Unlock()
	return ch
}

func (s *State) update(fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.snap)
	snap := s.snap
	s.mu.Unlock()

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

// Refresh 并发刷新 pack 和动态；各自失败互不影响，失败的槽位保留旧值
func (s *State) Refresh(ctx context.Context) error {
	metrics.Refreshes.Add(1)
	s.update(func(sn *Snapshot) {
		s.inflight++
		sn.Loading = true
	})
	defer s.update(func(sn *Snapshot) {
		s.inflight--
		sn.Loading = s.inflight > 0
	})

	var g errgroup.Group
	var packsErr, activityErr error
	g.Go(func() error {
		packsErr = s.RefreshPacks(ctx)
		return nil
	})
	g.Go(func() error {
		activityErr = s.RefreshActivity(ctx)
		return nil
	})
	_ = g.Wait()

	if packsErr != nil {
		return packsErr
	}
	return activityErr
}

// RefreshPacks 拉取 pack 并重算认证子集和排行
func (s *State) RefreshPacks(ctx context.Context) error {
	token := s.packsGen.Next()
	packs, err := s.market.Packs(ctx, s.opts.PacksLimit)
	if err != nil {
		metrics.FetchErrors.Add(1)
		log.Warnf("pack 获取失败，保留上次结果: %v", err)
		return err
	}
	if !s.packsGen.IsLatest(token) {
		metrics.StaleDiscards.Add(1)
		log.Debug("丢弃过期的 pack 结果")
		return nil
	}

	packs = market.Dedupe(packs)
	verified := ranking.FeaturedPacks(packs, s.opts.VerifiedLimit, s.opts.FeaturedLimit)
	creators := ranking.VerifiedCreators(packs, ranking.Options{
		Limit:          s.opts.LeaderboardLimit,
		UnknownCreator: s.opts.UnknownCreator,
	})
	now := time.Now()
	s.update(func(sn *Snapshot) {
		if !s.packsGen.IsLatest(token) {
			return
		}
		sn.Packs = packs
		sn.Verified = verified
		sn.Creators = creators
		sn.PacksAt = now
	})
	return nil
}

// RefreshActivity 两个来源都失败时保留上一次的动态
func (s *State) RefreshActivity(ctx context.Context) error {
	token := s.activityGen.Next()
	res, err := s.resolver.Resolve(ctx)
	if err != nil {
		metrics.FetchErrors.Add(1)
		return err
	}
	if !s.activityGen.IsLatest(token) {
		metrics.StaleDiscards.Add(1)
		log.Debug("丢弃过期的 activity 结果")
		return nil
	}
	s.update(func(sn *Snapshot) {
		if !s.activityGen.IsLatest(token) {
			return
		}
		sn.Activity = res.Events
		sn.Source = res.Source
		sn.ActivityAt = res.FetchedAt
	})
	return nil
}

// SetWallet 切换钱包地址：清空时 boughtItems 置空，变化时重新拉取
func (s *State) SetWallet(ctx context.Context, address string) error {
	address = strings.TrimSpace(address)
	token := s.profileGen.Next()

	changed := false
	s.update(func(sn *Snapshot) {
		changed = !strings.EqualFold(sn.Wallet, address)
		sn.Wallet = address
		if address == "" || changed {
			sn.BoughtItems = []market.Record{}
		}
	})
	if address == "" {
		return nil
	}
	return s.loadProfile(ctx, token, address)
}

// ReloadProfile 重新拉取当前钱包的资料
func (s *State) ReloadProfile(ctx context.Context) error {
	address := s.Snapshot().Wallet
	if address == "" {
		return nil
	}
	return s.loadProfile(ctx, s.profileGen.Next(), address)
}

func (s *State) loadProfile(ctx context.Context, token uint64, address string) error {
	profile, err := s.market.Owner(ctx, address)
	if !s.profileGen.IsLatest(token) {
		metrics.StaleDiscards.Add(1)
		return nil
	}
	items := []market.Record{}
	if err != nil {
		metrics.FetchErrors.Add(1)
		log.WithField("address", address).Warnf("钱包资料获取失败: %v", err)
	} else {
		items = profile.BoughtItems
	}
	s.update(func(sn *Snapshot) {
		// 令牌之外还要核对地址，防止旧地址的结果落到新钱包上
		if s.profileGen.IsLatest(token) && strings.EqualFold(sn.Wallet, address) {
			sn.BoughtItems = items
		}
	})
	return err
}

// FilterPacks 在当前快照上应用筛选
func (s *State) FilterPacks(f ranking.Filter) []market.Record {
	return f.Apply(s.Snapshot().Packs)
}
