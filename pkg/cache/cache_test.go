package cache

import (
	"testing"
	"time"
)

func TestInMemoryCacheExpiry(t *testing.T) {
	c := NewInMemoryCache[string, int](time.Minute, 0)
	defer c.Close()

	base := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return base }

	c.Set("a", 1, 0)
	c.Set("b", 2, 10*time.Second)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("a 应该为 1，实际为 %d (ok=%v)", v, ok)
	}

	c.now = func() time.Time { return base.Add(30 * time.Second) }
	if _, ok := c.Get("b"); ok {
		t.Error("b 应该已过期")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a 使用默认 TTL，应该仍然有效")
	}

	if n := c.Size(); n != 2 {
		t.Errorf("清理前应该有 2 条，实际为 %d", n)
	}
	c.cleanup()
	if n := c.Size(); n != 1 {
		t.Errorf("清理后应该剩 1 条，实际为 %d", n)
	}
}

func TestInMemoryCacheDeleteClear(t *testing.T) {
	c := NewInMemoryCache[string, string](time.Minute, time.Hour)
	defer c.Close()

	c.Set("x", "1", 0)
	c.Set("y", "2", 0)
	c.Delete("x")
	if _, ok := c.Get("x"); ok {
		t.Error("x 删除后不应该存在")
	}

	c.Clear()
	if n := c.Size(); n != 0 {
		t.Errorf("Clear 后应该为空，实际为 %d", n)
	}

	// 重复 Close 不应 panic
	c.Close()
}
