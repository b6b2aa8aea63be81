package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type clientInfo struct {
	start time.Time
	count int
}

// MemoryRateLimiter is the single-process fallback used when Redis is not
// configured. Counters are per client IP and reset every window.
type MemoryRateLimiter struct {
	mu          sync.Mutex
	clients     map[string]*clientInfo
	maxRequests int
	window      time.Duration
	now         func() time.Time
}

func NewMemoryRateLimiter(maxRequests int, window time.Duration) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		clients:     make(map[string]*clientInfo),
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
	}
}

// Allow counts one request for ip and reports whether it is within the limit.
func (l *MemoryRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	ci, ok := l.clients[ip]
	if !ok || now.Sub(ci.start) > l.window {
		l.clients[ip] = &clientInfo{start: now, count: 1}
		l.sweepLocked(now)
		return true
	}

	ci.count++
	return ci.count <= l.maxRequests
}

// sweepLocked drops expired windows so idle clients do not accumulate.
func (l *MemoryRateLimiter) sweepLocked(now time.Time) {
	if len(l.clients) < 1024 {
		return
	}
	for ip, ci := range l.clients {
		if now.Sub(ci.start) > l.window {
			delete(l.clients, ip)
		}
	}
}

func (l *MemoryRateLimiter) Middleware(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			RLBlocked.WithLabelValues(scope).Inc()
			c.Header("Retry-After", strconv.FormatInt(int64(l.window.Seconds()), 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Rate limit exceeded"})
			return
		}
		RLRequests.WithLabelValues(scope).Inc()
		c.Next()
	}
}
