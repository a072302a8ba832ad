package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// purgeInterval is how often expired windows are dropped from a limiter.
const purgeInterval = 5 * time.Minute

// ipEntry tracks request counts per IP within a fixed window.
type ipEntry struct {
	count     int
	windowEnd time.Time
}

// limiter counts requests per client IP. Expired entries are purged lazily
// on the request path, so no background goroutine is needed.
type limiter struct {
	limit   int
	window  time.Duration
	message string

	mu        sync.Mutex
	entries   map[string]*ipEntry
	nextPurge time.Time
	now       func() time.Time
}

func newLimiter(limit int, window time.Duration, message string) *limiter {
	return &limiter{
		limit:   limit,
		window:  window,
		message: message,
		entries: make(map[string]*ipEntry),
		now:     time.Now,
	}
}

// allow records one request from ip and reports whether it is within the limit,
// plus the end of the current window.
func (l *limiter) allow(ip string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.After(l.nextPurge) {
		l.purge(now)
		l.nextPurge = now.Add(purgeInterval)
	}

	entry, ok := l.entries[ip]
	if !ok {
		entry = &ipEntry{}
		l.entries[ip] = entry
	}
	if now.After(entry.windowEnd) {
		entry.count = 0
		entry.windowEnd = now.Add(l.window)
	}
	entry.count++
	return entry.count <= l.limit, entry.windowEnd
}

func (l *limiter) purge(now time.Time) {
	purged := 0
	for ip, entry := range l.entries {
		if now.After(entry.windowEnd) {
			delete(l.entries, ip)
			purged++
		}
	}
	if purged > 0 {
		log.Debug().
			Int("purged", purged).
			Int("remaining", len(l.entries)).
			Msg("rate limiter entries purged")
	}
}

func (l *limiter) handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, windowEnd := l.allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", windowEnd.UTC().Format(http.TimeFormat))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(l.message))
			return
		}
		c.Next()
	}
}

// LoginRateLimiter limits login and authorization attempts to 20 per minute
// per IP, which also bounds PIN guessing.
func LoginRateLimiter() gin.HandlerFunc {
	return newLimiter(20, time.Minute, "Muitas tentativas. Tente novamente em 1 minuto.").handler()
}

// RateLimiter returns a general-purpose fixed-window rate limiter.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return newLimiter(limit, window, "Muitas requisições. Tente novamente em instantes.").handler()
}
