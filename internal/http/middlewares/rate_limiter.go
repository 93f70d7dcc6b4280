package middlewares

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/hxuan190/split-swapper/internal/common"
	"github.com/hxuan190/split-swapper/internal/http/httputil"
	"github.com/hxuan190/split-swapper/internal/metrics"
)

const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	mu      sync.Mutex
	rate    rate.Limit
	burst   int
	clients map[string]*clientLimiter
	lastGC  time.Time
}

// NewRateLimiter allows perSecond sustained requests per client with the given burst.
// perSecond <= 0 disables limiting.
func NewRateLimiter(perSecond, burst int) *RateLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	return &RateLimiter{
		rate:    limit,
		burst:   burst,
		clients: make(map[string]*clientLimiter),
		lastGC:  time.Now(),
	}
}

func (rl *RateLimiter) limiterFor(ip string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastGC) > limiterIdleTTL {
		for k, cl := range rl.clients {
			if now.Sub(cl.lastSeen) > limiterIdleTTL {
				delete(rl.clients, k)
			}
		}
		rl.lastGC = now
	}

	cl, ok := rl.clients[ip]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.clients[ip] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.rate == rate.Inf {
			c.Next()
			return
		}
		now := time.Now()
		if !rl.limiterFor(c.ClientIP(), now).AllowN(now, 1) {
			metrics.RateLimited.Inc()
			httputil.HandleError(c, common.HTTPErrorTooManyRequests("rate limit exceeded"))
			return
		}
		c.Next()
	}
}
