package cache

import (
	"sync"
	"time"
)

// Cache 通用缓存接口
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V, ttl time.Duration)
	Delete(key K)
	Clear()
	Size() int
}

// InMemoryCache 带 TTL 的内存缓存
type InMemoryCache[K comparable, V any] struct {
	items      map[K]cacheItem[V]
	mu         sync.RWMutex
	defaultTTL time.Duration
	now        func() time.Time
	stop       chan struct{}
	stopOnce   sync.Once
}

type cacheItem[V any] struct {
	value     V
	expiresAt time.Time
}

// NewInMemoryCache 创建内存缓存；cleanupEvery > 0 时后台定期清理过期项，需调用 Close 停止
func NewInMemoryCache[K comparable, V any](defaultTTL, cleanupEvery time.Duration) *InMemoryCache[K, V] {
	c := &InMemoryCache[K, V]{
		items:      make(map[K]cacheItem[V]),
		defaultTTL: defaultTTL,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
	if cleanupEvery > 0 {
		go c.startCleanup(cleanupEvery)
	}
	return c
}

// Get 获取缓存值，过期视为不存在
func (c *InMemoryCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || c.now().After(item.expiresAt) {
		var zero V
		return zero, false
	}
	return item.value, true
}

// Set 写入缓存，ttl 为 0 时使用默认 TTL
func (c *InMemoryCache[K, V]) Set(key K, value V, ttl time.Duration) {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	c.items[key] = cacheItem[V]{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

func (c *InMemoryCache[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

func (c *InMemoryCache[K, V]) Clear() {
	c.mu.Lock()
	c.items = make(map[K]cacheItem[V])
	c.mu.Unlock()
}

// Size 条目数（包含尚未清理的过期项）
func (c *InMemoryCache[K, V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close 停止后台清理
func (c *InMemoryCache[K, V]) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *InMemoryCache[K, V]) startCleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *InMemoryCache[K, V]) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, key)
		}
	}
}
