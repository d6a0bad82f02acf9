package middlewares

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// maxTrackedKeys is the size at which idle buckets start being purged.
const maxTrackedKeys = 1024

// RateLimiter gives every key a token bucket holding limit tokens that
// refills completely over one window. State is per process; behind several
// replicas each one enforces its own budget.
type RateLimiter struct {
	limit int
	every rate.Limit
	now   func() time.Time

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

func NewRateLimiter(limit int, per time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limit:   limit,
		now:     time.Now,
		buckets: make(map[string]*rate.Limiter),
	}
	if limit > 0 && per > 0 {
		rl.every = rate.Every(per / time.Duration(limit))
	}
	return rl
}

func (rl *RateLimiter) bucket(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if b, ok := rl.buckets[key]; ok {
		return b
	}

	if len(rl.buckets) >= maxTrackedKeys {
		// a full bucket behaves exactly like a new one
		for k, b := range rl.buckets {
			if b.TokensAt(now) >= float64(rl.limit) {
				delete(rl.buckets, k)
			}
		}
	}

	b := rate.NewLimiter(rl.every, rl.limit)
	rl.buckets[key] = b
	return b
}

// Allow spends one token from key's bucket. When none is left it reports
// how long until the next one arrives.
func (rl *RateLimiter) Allow(key string) (ok bool, remaining int, retryAfter time.Duration) {
	now := rl.now()
	b := rl.bucket(key, now)

	if b.AllowN(now, 1) {
		return true, int(b.TokensAt(now)), 0
	}

	missing := 1 - b.TokensAt(now)
	wait := time.Duration(missing / float64(rl.every) * float64(time.Second))
	return false, 0, wait.Round(time.Millisecond)
}

// RateLimiterMiddleware applies the limit to the key derived by keyFn,
// falling back to the client IP. A non-positive limit turns it off.
func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit <= 0 || rl.every == 0 {
			c.Next()
			return
		}

		key := keyFn(c)
		if key == "" {
			key = clientIP(c)
		}

		ok, remaining, retryAfter := rl.Allow(key)
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !ok {
			secs := max(1, int(math.Ceil(retryAfter.Seconds())))
			c.Header("Retry-After", strconv.Itoa(secs))
			abortWithError(c, http.StatusTooManyRequests, "rate_limited", "Too many attempts. Please try again later.")
			return
		}

		c.Next()
	}
}

// KeyByIP buckets anonymous endpoints such as sign-in by caller address.
func KeyByIP(c *gin.Context) string {
	return "ip:" + clientIP(c)
}

// clientIP honours proxy headers only as far as gin's trusted proxy
// settings allow.
func clientIP(c *gin.Context) string {
	ip := c.ClientIP()
	if host, _, err := net.SplitHostPort(ip); err == nil && host != "" {
		return host
	}
	return ip
}
