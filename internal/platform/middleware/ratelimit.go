package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimitConfig controls the per-client token bucket.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// visitor is one client's bucket state. Buckets refill lazily on access
// rather than on a timer.
type visitor struct {
	tokens   float64
	lastSeen time.Time
}

const visitorTTL = 10 * time.Minute

// visitorRegistry tracks a bucket per client IP and drops idle entries so
// the map does not grow with every address ever seen.
type visitorRegistry struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	cfg       RateLimitConfig
	lastSweep time.Time
}

func newVisitorRegistry(cfg RateLimitConfig) *visitorRegistry {
	return &visitorRegistry{
		visitors:  make(map[string]*visitor),
		cfg:       cfg,
		lastSweep: time.Now(),
	}
}

// take refills the client's bucket for the elapsed time and consumes one
// token. When the bucket is empty it reports how many seconds until the
// next token becomes available.
func (r *visitorRegistry) take(ip string) (allowed bool, retryAfter int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	r.sweepLocked(now)

	v, ok := r.visitors[ip]
	if !ok {
		v = &visitor{tokens: float64(r.cfg.BurstSize)}
		r.visitors[ip] = v
	} else {
		v.tokens += now.Sub(v.lastSeen).Seconds() * r.cfg.RequestsPerSecond
		if v.tokens > float64(r.cfg.BurstSize) {
			v.tokens = float64(r.cfg.BurstSize)
		}
	}
	v.lastSeen = now

	if v.tokens < 1 {
		wait := 1
		if r.cfg.RequestsPerSecond > 0 {
			wait = int(math.Ceil((1 - v.tokens) / r.cfg.RequestsPerSecond))
		}
		if wait < 1 {
			wait = 1
		}
		return false, wait
	}

	v.tokens--
	return true, 0
}

// sweepLocked evicts buckets idle past the TTL, at most once a minute.
func (r *visitorRegistry) sweepLocked(now time.Time) {
	if now.Sub(r.lastSweep) < time.Minute {
		return
	}
	r.lastSweep = now
	for ip, v := range r.visitors {
		if now.Sub(v.lastSeen) > visitorTTL {
			delete(r.visitors, ip)
		}
	}
}

// RateLimit throttles requests per client IP.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	reg := newVisitorRegistry(cfg)
	limitHeader := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', -1, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ok, retryAfter := reg.take(c.RealIP())

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limitHeader)
			if !ok {
				h.Set("Retry-After", strconv.Itoa(retryAfter))
				h.Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
