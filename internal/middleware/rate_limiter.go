package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"pastel24h/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	defaultAPILimit   = 1000
	defaultLoginLimit = 20
	defaultWindow     = time.Minute
)

// fixedWindow counts requests per client IP in fixed windows. Expired
// counters are swept on the request path at most once per window, so the
// limiter owns no goroutine.
type fixedWindow struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	counters  map[string]*windowCounter
	nextSweep time.Time
}

type windowCounter struct {
	count   int
	resetAt time.Time
}

func newFixedWindow(limit, fallback int, window time.Duration) *fixedWindow {
	if limit <= 0 {
		limit = fallback
	}
	if window <= 0 {
		window = defaultWindow
	}
	return &fixedWindow{
		limit:    limit,
		window:   window,
		now:      time.Now,
		counters: make(map[string]*windowCounter),
	}
}

// hit records one request from key. It reports whether the request fits in
// the current window and when that window resets.
func (w *fixedWindow) hit(key string) (bool, time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if !now.Before(w.nextSweep) {
		for k, c := range w.counters {
			if !now.Before(c.resetAt) {
				delete(w.counters, k)
			}
		}
		w.nextSweep = now.Add(w.window)
	}

	c, ok := w.counters[key]
	if !ok || !now.Before(c.resetAt) {
		c = &windowCounter{resetAt: now.Add(w.window)}
		w.counters[key] = c
	}
	c.count++
	return c.count <= w.limit, c.resetAt
}

func (w *fixedWindow) size() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.counters)
}

func (w *fixedWindow) handler(scope, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		allowed, resetAt := w.hit(ip)
		if allowed {
			c.Next()
			return
		}

		wait := resetAt.Sub(w.now())
		secs := int(wait / time.Second)
		if wait%time.Second != 0 {
			secs++
		}
		c.Header("Retry-After", strconv.Itoa(secs))
		log.Warn().
			Str("request_id", c.GetString(RequestIDKey)).
			Str("limiter", scope).
			Str("ip", ip).
			Int("limit", w.limit).
			Msg("rate limit exceeded")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(message))
	}
}

// RateLimiter caps requests per client IP across the API. Non-positive
// arguments fall back to 1000 requests per minute.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return newFixedWindow(limit, defaultAPILimit, window).
		handler("api", "Muitas requisições. Tente novamente em instantes.")
}

// LoginRateLimiter slows password guessing against staff accounts.
// Non-positive arguments fall back to 20 attempts per minute.
func LoginRateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return newFixedWindow(limit, defaultLoginLimit, window).
		handler("login", "Muitas tentativas de login. Aguarde um minuto e tente novamente.")
}
