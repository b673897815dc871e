// Package wield 封装通过代理访问的 Vibe 市场资源
package wield

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/vibedash/vibedash/internal/market"
	"github.com/vibedash/vibedash/pkg/cache"
	sdkhttp "github.com/vibedash/vibedash/pkg/sdk/http"
)

// Fetcher 由 pkg/sdk/http.Client 实现，测试中可替换
type Fetcher interface {
	Fetch(ctx context.Context, path string, opt *sdkhttp.RequestOptions) (any, error)
}

// API 带链 ID 的类型化资源访问
type API struct {
	f       Fetcher
	chainID int

	owners   cache.Cache[string, *Profile]
	ownerTTL time.Duration
}

func New(f Fetcher, chainID int) *API {
	return &API{f: f, chainID: chainID}
}

// WithOwnerCache 缓存成功的钱包资料查询，失败不缓存
func (a *API) WithOwnerCache(c cache.Cache[string, *Profile], ttl time.Duration) *API {
	a.owners = c
	a.ownerTTL = ttl
	return a
}

func (a *API) ChainID() int { return a.chainID }

// PacksPath 最近的 booster box 列表
func (a *API) PacksPath(limit int) string {
	return fmt.Sprintf("vibe/boosterbox/recent?limit=%d&includeMetadata=true&chainId=%d", limit, a.chainID)
}

// OpeningsPath 最近的开包事件
func (a *API) OpeningsPath(limit int) string {
	return fmt.Sprintf("vibe/openings/recent?limit=%d&includeMetadata=true&chainId=%d", limit, a.chainID)
}

// OpenedPath 已开启的 booster box，作为开包事件的备用来源
func (a *API) OpenedPath(limit int) string {
	return fmt.Sprintf("vibe/boosterbox/recent?limit=%d&includeMetadata=true&status=opened&chainId=%d", limit, a.chainID)
}

func (a *API) OwnerPath(address string) string {
	return fmt.Sprintf("vibe/owner/%s?chainId=%d", url.PathEscape(strings.TrimSpace(address)), a.chainID)
}

func (a *API) list(ctx context.Context, path string) ([]market.Record, error) {
	v, err := a.f.Fetch(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	return market.RecordsOf(sdkhttp.Unwrap(v)), nil
}

func (a *API) Packs(ctx context.Context, limit int) ([]market.Record, error) {
	return a.list(ctx, a.PacksPath(limit))
}

func (a *API) Openings(ctx context.Context, limit int) ([]market.Record, error) {
	return a.list(ctx, a.OpeningsPath(limit))
}

func (a *API) OpenedBoosterboxes(ctx context.Context, limit int) ([]market.Record, error) {
	return a.list(ctx, a.OpenedPath(limit))
}

// Profile vibe/owner/<address> 的返回
type Profile struct {
	BoughtItems []market.Record `json:"boughtItems"`
	Holdings    []market.Record `json:"holdings"`
}

// Owner 查询钱包资料；holdings 缺失时使用 cards
func (a *API) Owner(ctx context.Context, address string) (*Profile, error) {
	key := strings.ToLower(strings.TrimSpace(address))
	if a.owners != nil {
		if p, ok := a.owners.Get(key); ok {
			return p, nil
		}
	}
	p, err := a.fetchOwner(ctx, address)
	if err != nil {
		return nil, err
	}
	if a.owners != nil {
		a.owners.Set(key, p, a.ownerTTL)
	}
	return p, nil
}

func (a *API) fetchOwner(ctx context.Context, address string) (*Profile, error) {
	v, err := a.f.Fetch(ctx, a.OwnerPath(address), nil)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errors.Errorf("unexpected owner response %T", v)
	}
	// 兼容 {data:{...}} 包装
	if inner, ok := obj["data"].(map[string]any); ok {
		obj = inner
	}

	p := &Profile{BoughtItems: []market.Record{}, Holdings: []market.Record{}}
	if list, ok := obj["boughtItems"].([]any); ok {
		p.BoughtItems = market.RecordsOf(list)
	}
	holdings, ok := obj["holdings"].([]any)
	if !ok || len(holdings) == 0 {
		holdings, _ = obj["cards"].([]any)
	}
	if holdings != nil {
		p.Holdings = market.RecordsOf(holdings)
	}
	return p, nil
}
