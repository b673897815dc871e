package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/vibedash/vibedash/internal/activity"
	"github.com/vibedash/vibedash/internal/dashboard"
	"github.com/vibedash/vibedash/internal/market"
	"github.com/vibedash/vibedash/internal/tradelist"
	"github.com/vibedash/vibedash/internal/wield"
	"github.com/vibedash/vibedash/pkg/persistence"
)

const wallet = "0x00000000000000000000000000000000000000aa"

type fakeMarket struct {
	packs    []market.Record
	profile  *wield.Profile
	ownerErr error
}

func (f *fakeMarket) Packs(context.Context, int) ([]market.Record, error) { return f.packs, nil }

func (f *fakeMarket) Owner(context.Context, string) (*wield.Profile, error) {
	return f.profile, f.ownerErr
}

type fakeResolver struct {
	events []activity.Event
	err    error
}

func (f *fakeResolver) Resolve(context.Context) (*activity.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &activity.Result{Events: f.events, Source: activity.Primary}, nil
}

type fakeProxy struct{ hits int }

func (p *fakeProxy) Handle(c *gin.Context) {
	p.hits++
	c.String(http.StatusOK, c.Param("path"))
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func setup(t *testing.T) (http.Handler, *fakeMarket, *fakeResolver, *fakeProxy) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m := &fakeMarket{
		packs: []market.Record{
			{"id": "p1", "creator": "Alice", "name": "Dragons", "usdPrice": 120, "rarity": 4, "metadata": map[string]any{"verified": true}},
			{"id": "p2", "creator": "Bob", "name": "Cats", "usdPrice": 3},
		},
		profile: &wield.Profile{
			BoughtItems: []market.Record{{"id": "b1"}},
			Holdings:    []market.Record{{"contract": "0xc", "tokenId": "1", "name": "Held"}},
		},
	}
	r := &fakeResolver{events: []activity.Event{{ID: "e1"}, {ID: "e2"}, {ID: "e3"}}}
	state := dashboard.NewState(m, r, dashboard.Options{})
	if err := state.Refresh(context.Background()); err != nil {
		t.Fatalf("初始刷新失败: %v", err)
	}

	trades := tradelist.New(persistence.NewJSONFileService(t.TempDir()), m)
	p := &fakeProxy{}
	return New(state, trades, p, 0).Router(), m, r, p
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("解析响应失败 %s %s: %v", method, path, err)
		}
	}
	return w.Code, env
}

func decode(t *testing.T, raw json.RawMessage, v any) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("解析 data 失败: %v (%s)", err, raw)
	}
}

func expectCode(t *testing.T, want, got int, what string) {
	t.Helper()
	if got != want {
		t.Errorf("%s 状态码应该为 %d，实际为 %d", what, want, got)
	}
}

func TestPacksFilter(t *testing.T) {
	h, _, _, _ := setup(t)

	code, env := do(t, h, http.MethodGet, "/api/packs", "")
	expectCode(t, http.StatusOK, code, "GET /api/packs")
	var packs []map[string]any
	decode(t, env.Data, &packs)
	if len(packs) != 2 {
		t.Errorf("不带条件应该返回 2 个 pack，实际为 %d", len(packs))
	}

	_, env = do(t, h, http.MethodGet, "/api/packs?q=cat", "")
	decode(t, env.Data, &packs)
	if len(packs) != 1 || packs[0]["id"] != "p2" {
		t.Errorf("q=cat 应该只剩 p2，实际为 %v", packs)
	}

	_, env = do(t, h, http.MethodGet, "/api/packs?verified=true&rarity=LEGENDARY", "")
	decode(t, env.Data, &packs)
	if len(packs) != 1 || packs[0]["id"] != "p1" {
		t.Errorf("认证 + LEGENDARY 应该只剩 p1，实际为 %v", packs)
	}
}

func TestCreatorsAndVerified(t *testing.T) {
	h, _, _, _ := setup(t)

	_, env := do(t, h, http.MethodGet, "/api/creators", "")
	var creators []map[string]any
	decode(t, env.Data, &creators)
	if len(creators) != 1 {
		t.Fatalf("应该有 1 个认证创作者，实际为 %d", len(creators))
	}
	if creators[0]["creator"] != "Alice" || creators[0]["maxValue"] != 120.0 {
		t.Errorf("排行应该为 Alice/120，实际为 %v", creators[0])
	}

	_, env = do(t, h, http.MethodGet, "/api/packs/verified", "")
	var verified []map[string]any
	decode(t, env.Data, &verified)
	if len(verified) != 1 {
		t.Errorf("认证 pack 应该为 1 个，实际为 %d", len(verified))
	}
}

func TestActivityLimitAndRefreshFailure(t *testing.T) {
	h, _, r, _ := setup(t)

	_, env := do(t, h, http.MethodGet, "/api/activity?limit=2", "")
	var events []activity.Event
	decode(t, env.Data, &events)
	if len(events) != 2 {
		t.Errorf("limit=2 应该返回 2 条，实际为 %d", len(events))
	}

	code, _ := do(t, h, http.MethodGet, "/api/activity?limit=x", "")
	expectCode(t, http.StatusBadRequest, code, "非法 limit")

	r.err = errors.New("both down")
	code, env = do(t, h, http.MethodPost, "/api/activity/refresh", "")
	expectCode(t, http.StatusOK, code, "刷新失败")
	if env.Code != http.StatusBadGateway {
		t.Errorf("刷新失败时业务码应该为 502，实际为 %d", env.Code)
	}
	decode(t, env.Data, &events)
	if len(events) != 3 {
		t.Errorf("失败时应该保留上一次的 3 条动态，实际为 %d", len(events))
	}
}

func TestProfile(t *testing.T) {
	h, m, _, _ := setup(t)

	code, _ := do(t, h, http.MethodGet, "/api/profile/nope", "")
	expectCode(t, http.StatusBadRequest, code, "非法地址")

	code, env := do(t, h, http.MethodGet, "/api/profile/"+wallet, "")
	expectCode(t, http.StatusOK, code, "获取资料")
	var body struct {
		Wallet      string           `json:"wallet"`
		BoughtItems []map[string]any `json:"boughtItems"`
	}
	decode(t, env.Data, &body)
	if body.Wallet != wallet || len(body.BoughtItems) != 1 {
		t.Errorf("资料应该为 %s 和 1 条已购，实际为 %s / %d", wallet, body.Wallet, len(body.BoughtItems))
	}

	m.ownerErr = errors.New("Wield 404")
	code, _ = do(t, h, http.MethodGet, "/api/profile/"+wallet, "")
	expectCode(t, http.StatusBadGateway, code, "上游失败")
}

func TestTradesFlow(t *testing.T) {
	h, m, _, _ := setup(t)

	code, _ := do(t, h, http.MethodPost, "/api/trades", `{"notes":"x"}`)
	expectCode(t, http.StatusBadRequest, code, "缺少名称")

	code, env := do(t, h, http.MethodPost, "/api/trades", `{"name":"Card","rarity":"rare","contract":"0xc","tokenId":"9"}`)
	expectCode(t, http.StatusOK, code, "添加条目")
	var created tradelist.Item
	decode(t, env.Data, &created)
	if created.ID != "0xc-9" || created.Rarity != market.Rare {
		t.Errorf("新条目应该为 0xc-9/RARE，实际为 %s/%s", created.ID, created.Rarity)
	}

	code, env = do(t, h, http.MethodPost, "/api/trades/import", `{"address":"`+wallet+`"}`)
	expectCode(t, http.StatusOK, code, "导入")
	var items []tradelist.Item
	decode(t, env.Data, &items)
	if len(items) != 2 {
		t.Errorf("导入后应该有 2 条，实际为 %d", len(items))
	}

	m.ownerErr = errors.New("down")
	code, env = do(t, h, http.MethodPost, "/api/trades/import", `{"address":"`+wallet+`"}`)
	expectCode(t, http.StatusBadGateway, code, "导入失败")
	if !strings.Contains(env.Msg, "add manually") {
		t.Errorf("导入失败提示应该包含 add manually，实际为 %s", env.Msg)
	}

	code, _ = do(t, h, http.MethodPost, "/api/trades/import", `{}`)
	expectCode(t, http.StatusBadRequest, code, "未设置钱包")

	code, _ = do(t, h, http.MethodDelete, "/api/trades/"+created.ID, "")
	expectCode(t, http.StatusOK, code, "删除")
	code, _ = do(t, h, http.MethodDelete, "/api/trades/"+created.ID, "")
	expectCode(t, http.StatusNotFound, code, "重复删除")

	_, env = do(t, h, http.MethodGet, "/api/trades", "")
	decode(t, env.Data, &items)
	if len(items) != 1 {
		t.Errorf("删除后应该剩 1 条，实际为 %d", len(items))
	}
}

func TestHealthAndProxyRoute(t *testing.T) {
	h, _, _, p := setup(t)

	code, _ := do(t, h, http.MethodGet, "/healthz", "")
	expectCode(t, http.StatusOK, code, "/healthz")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/wield/vibe/owner/0x1", nil))
	if w.Body.String() != "/vibe/owner/0x1" {
		t.Errorf("代理应该收到 /vibe/owner/0x1，实际为 %s", w.Body.String())
	}
	if p.hits != 1 {
		t.Errorf("代理应该被调用 1 次，实际为 %d", p.hits)
	}
}

func TestRarities(t *testing.T) {
	h, _, _, _ := setup(t)
	_, env := do(t, h, http.MethodGet, "/api/rarities", "")
	var got []string
	decode(t, env.Data, &got)
	if want := []string{"ALL", "COMMON", "RARE", "EPIC", "LEGENDARY"}; !reflect.DeepEqual(got, want) {
		t.Errorf("稀有度选项应该为 %v，实际为 %v", want, got)
	}
}
