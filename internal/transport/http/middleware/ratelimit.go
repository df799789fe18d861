package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	resp "user-management-service/internal/transport/http/response"
)

// RateLimit 全局令牌桶限速
func RateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	lim := rate.NewLimiter(rps, burst)
	return func(c *gin.Context) {
		if lim.Allow() {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusTooManyRequests, resp.Error(resp.CodeTooManyRequests, "too many requests"))
	}
}

const (
	perIPMaxClients = 10000
	perIPIdleTTL    = 10 * time.Minute
)

// ipBuckets 每个 IP 一个令牌桶；容量有上限，空闲超过 ttl 的桶会被淘汰
type ipBuckets struct {
	mu    sync.Mutex
	rps   rate.Limit
	burst int
	lru   *expirable.LRU[string, *rate.Limiter]
}

func newIPBuckets(rps rate.Limit, burst, size int, ttl time.Duration) *ipBuckets {
	return &ipBuckets{rps: rps, burst: burst, lru: expirable.NewLRU[string, *rate.Limiter](size, nil, ttl)}
}

func (b *ipBuckets) get(ip string) *rate.Limiter {
	b.mu.Lock()
	defer b.mu.Unlock()
	lim, ok := b.lru.Get(ip)
	if !ok {
		lim = rate.NewLimiter(b.rps, b.burst)
	}
	// 重新 Add 刷新过期时间
	b.lru.Add(ip, lim)
	return lim
}

// RateLimitPerIP 每 IP 限速，用在登录这类容易被撞库的接口上
func RateLimitPerIP(rps rate.Limit, burst int) gin.HandlerFunc {
	return rateLimitPerIP(newIPBuckets(rps, burst, perIPMaxClients, perIPIdleTTL))
}

func rateLimitPerIP(b *ipBuckets) gin.HandlerFunc {
	return func(c *gin.Context) {
		if b.get(c.ClientIP()).Allow() {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusTooManyRequests, resp.Error(resp.CodeTooManyRequests, "too many requests"))
	}
}
