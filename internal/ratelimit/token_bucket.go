// Package ratelimit 上传接口的令牌桶限流
package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket 实现令牌桶算法的限流器，可被多个请求并发使用
type TokenBucket struct {
	rate           float64 // 每秒生成的令牌数
	capacity       float64 // 桶的容量
	tokens         float64 // 当前令牌数
	lastRefillTime time.Time
	now            func() time.Time
	mutex          sync.Mutex
}

// NewTokenBucket 按每分钟请求数创建限流器，capacity <= 0 时取 perMinute 的一半
func NewTokenBucket(perMinute int, capacity int) *TokenBucket {
	if capacity <= 0 {
		capacity = perMinute / 2
		if capacity <= 0 {
			capacity = 1
		}
	}
	return &TokenBucket{
		rate:           float64(perMinute) / 60.0,
		capacity:       float64(capacity),
		tokens:         float64(capacity), // 初始填满
		lastRefillTime: time.Now(),
		now:            time.Now,
	}
}

// WithClock 替换时间来源
func (tb *TokenBucket) WithClock(now func() time.Time) *TokenBucket {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()
	tb.now = now
	tb.lastRefillTime = now()
	return tb
}

// refill 根据经过的时间填充令牌，调用方持有锁
func (tb *TokenBucket) refill() {
	now := tb.now()
	elapsed := now.Sub(tb.lastRefillTime).Seconds()
	if elapsed <= 0 {
		return
	}
	tb.lastRefillTime = now

	tb.tokens += elapsed * tb.rate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
}

// Allow 判断是否允许通过一个请求，消耗一个令牌
func (tb *TokenBucket) Allow() bool {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	tb.refill()
	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}
	return false
}

// RetryAfter 下一个令牌可用前需要等待的时间
func (tb *TokenBucket) RetryAfter() time.Duration {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	tb.refill()
	if tb.tokens >= 1.0 || tb.rate <= 0 {
		return 0
	}
	return time.Duration((1.0 - tb.tokens) / tb.rate * float64(time.Second))
}
