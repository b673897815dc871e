package ratelimit

import (
	"context"
	"sync"
	"time"
)

// RateLimiter 速率限制器接口
type RateLimiter interface {
	Wait(ctx context.Context) error
	Allow() bool
}

// TokenBucket 令牌桶速率限制器（按时间连续补充令牌）
type TokenBucket struct {
	capacity   float64
	tokens     float64
	perSecond  float64
	lastRefill time.Time
	now        func() time.Time
	mu         sync.Mutex
}

// New 按每秒请求数创建限速器；perSecond <= 0 返回 nil 接口（不限速）
func New(perSecond int) RateLimiter {
	if perSecond <= 0 {
		return nil
	}
	return NewTokenBucket(perSecond, perSecond)
}

// NewTokenBucket 创建令牌桶
func NewTokenBucket(capacity, perSecond int) *TokenBucket {
	if perSecond <= 0 {
		perSecond = 1
	}
	if capacity <= 0 {
		capacity = perSecond
	}
	return &TokenBucket{
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		perSecond:  float64(perSecond),
		lastRefill: time.Now(),
		now:        time.Now,
	}
}

func (tb *TokenBucket) refill() {
	now := tb.now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	tb.tokens += elapsed * tb.perSecond
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastRefill = now
}

// Allow 检查是否允许请求（允许则消耗一个令牌）
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// Wait 阻塞直到拿到令牌或 ctx 结束
func (tb *TokenBucket) Wait(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		if tb.Allow() {
			return nil
		}

		tb.mu.Lock()
		missing := 1 - tb.tokens
		tb.mu.Unlock()
		wait := time.Duration(missing / tb.perSecond * float64(time.Second))
		if wait < time.Millisecond {
			wait = time.Millisecond
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Remaining 当前可用令牌数（向下取整）
func (tb *TokenBucket) Remaining() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill()
	return int(tb.tokens)
}
