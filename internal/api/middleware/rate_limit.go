package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"miseflow/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter 令牌桶限流器
type RateLimiter struct {
	mu       sync.Mutex
	tokens   float64
	capacity float64
	rate     float64
	lastTime time.Time
}

// NewRateLimiter 創建新的限流器
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:   float64(requests),
		capacity: float64(requests),
		rate:     float64(requests) / window.Seconds(),
		lastTime: time.Now(),
	}
}

// Allow 檢查是否允許請求
func (rl *RateLimiter) Allow() bool {
	return rl.allowAt(time.Now())
}

func (rl *RateLimiter) allowAt(now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	elapsed := now.Sub(rl.lastTime).Seconds()
	if elapsed > 0 {
		rl.tokens = min(rl.capacity, rl.tokens+elapsed*rl.rate)
		rl.lastTime = now
	}

	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// idle 桶已補滿代表該用戶端閒置
func (rl *RateLimiter) idle(now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.tokens+now.Sub(rl.lastTime).Seconds()*rl.rate >= rl.capacity
}

// ClientLimiter 以用戶端 IP 區分的限流器集合
type ClientLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*RateLimiter
	requests  int
	window    time.Duration
	lastSweep time.Time
}

// NewClientLimiter 創建以 IP 區分的限流器
func NewClientLimiter(requests int, window time.Duration) *ClientLimiter {
	return &ClientLimiter{
		limiters:  make(map[string]*RateLimiter),
		requests:  requests,
		window:    window,
		lastSweep: time.Now(),
	}
}

// Allow 檢查該用戶端是否還有令牌
func (cl *ClientLimiter) Allow(client string) bool {
	now := time.Now()

	cl.mu.Lock()
	limiter, ok := cl.limiters[client]
	if !ok {
		limiter = NewRateLimiter(cl.requests, cl.window)
		cl.limiters[client] = limiter
	}
	if now.Sub(cl.lastSweep) > cl.window {
		cl.sweep(now)
	}
	cl.mu.Unlock()

	return limiter.allowAt(now)
}

// sweep 移除閒置的用戶端，呼叫端需持有鎖
func (cl *ClientLimiter) sweep(now time.Time) {
	for client, limiter := range cl.limiters {
		if limiter.idle(now) {
			delete(cl.limiters, client)
		}
	}
	cl.lastSweep = now
}

// RateLimit 限流中間件，每個用戶端 IP 各自計算
func RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	limiter := NewClientLimiter(requests, window)

	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			common.LogInfo("Rate limit exceeded",
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)

			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ErrorResponse{
				OK:      false,
				Code:    common.ErrCodeTooManyRequests,
				Message: "too many requests",
			})
			return
		}

		c.Next()
	}
}
