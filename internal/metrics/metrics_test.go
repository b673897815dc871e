package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDebugVars(t *testing.T) {
	Refreshes.Add(1)

	w := httptest.NewRecorder()
	newMux().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/vars", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("状态码应该为 200，实际为 %d", w.Code)
	}

	var vars map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &vars); err != nil {
		t.Fatalf("解析 /debug/vars 失败: %v", err)
	}
	for _, name := range []string{"fetch_errors", "activity_fallbacks", "refreshes", "stale_discards", "tradelist_saves"} {
		if _, ok := vars[name]; !ok {
			t.Errorf("/debug/vars 应该包含 %s", name)
		}
	}
}

func TestStartAsyncStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s, err := StartAsync(ctx, "127.0.0.1:0")
	if err != nil {
		t.Fatalf("启动 metrics 服务失败: %v", err)
	}
	if s == nil {
		t.Error("应该返回 server")
	}
}
