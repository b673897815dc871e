package persistence

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func openAll(t *testing.T) map[string]Service {
	t.Helper()
	dir := t.TempDir()
	out := map[string]Service{}
	for _, kind := range []string{BackendFile, BackendBadger, BackendSQLite} {
		path := filepath.Join(dir, kind)
		if kind == BackendSQLite {
			path = filepath.Join(dir, "sqlite", "kv.db")
		}
		svc, err := Open(kind, path)
		if err != nil {
			t.Fatalf("打开 %s 存储失败: %v", kind, err)
		}
		t.Cleanup(func() { _ = svc.Close() })
		out[kind] = svc
	}
	return out
}

func TestStoreRoundTrip(t *testing.T) {
	type item struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	for kind, svc := range openAll(t) {
		t.Run(kind, func(t *testing.T) {
			store := svc.NewStore("forTrade")

			var got []item
			if err := store.Load(&got); !errors.Is(err, ErrNotExists) {
				t.Errorf("不存在时应该返回 ErrNotExists，实际为 %v", err)
			}

			in := []item{{ID: "x1", Name: "A"}, {ID: "x2", Name: "B"}}
			if err := store.Save(in); err != nil {
				t.Fatalf("保存失败: %v", err)
			}

			raw, err := store.LoadRaw()
			if err != nil {
				t.Fatalf("读取失败: %v", err)
			}
			if want := `[{"id":"x1","name":"A"},{"id":"x2","name":"B"}]`; string(raw) != want {
				t.Errorf("保存的内容应该为紧凑 JSON\n期望: %s\n实际: %s", want, raw)
			}

			if err := store.Load(&got); err != nil {
				t.Fatalf("读取失败: %v", err)
			}
			if !reflect.DeepEqual(in, got) {
				t.Errorf("读回内容不一致: %#v", got)
			}

			// 覆盖写
			if err := store.SaveRaw([]byte(`[]`)); err != nil {
				t.Fatalf("覆盖写失败: %v", err)
			}
			raw, err = store.LoadRaw()
			if err != nil {
				t.Fatalf("读取失败: %v", err)
			}
			if string(raw) != "[]" {
				t.Errorf("覆盖写后应该为 []，实际为 %s", raw)
			}
		})
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open("redis", t.TempDir()); err == nil {
		t.Error("未知后端应该返回错误")
	}
}

func TestFileKeySanitized(t *testing.T) {
	svc := NewJSONFileService(t.TempDir())
	want := filepath.Join(svc.baseDir, "a_b_c.json")
	if got := svc.filePath("a:b/c"); got != want {
		t.Errorf("文件名应该为 %s，实际为 %s", want, got)
	}
}
