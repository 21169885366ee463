package api

import (
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/latticelabs/helix/pkg/config"
	"github.com/latticelabs/helix/pkg/metrics"
	"github.com/latticelabs/helix/pkg/models"
)

// rateWindow is one key's live window. The count resets when a request
// arrives at or after resetAt.
type rateWindow struct {
	count   int
	resetAt time.Time
}

// rateLimiter is a sliding-window request limiter keyed by client
// address. Admitted responses carry RateLimit-* headers; rejections get
// Retry-After plus a retryAfterMs body. A sweep timer purges expired
// keys and stays armed only while at least one key is live.
type rateLimiter struct {
	window    time.Duration
	max       int
	skipPaths []string

	mu         sync.Mutex
	entries    map[string]*rateWindow
	sweep      *time.Timer
	sweepArmed bool

	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// newRateLimiter builds a limiter for one route class. max comes from the
// route class (API-wide vs ask jobs); everything else from the shared
// rate limit config. A disabled config or max of zero turns the limiter
// into a pass-through.
func newRateLimiter(cfg *config.RateLimitConfig, max int, m *metrics.Metrics) *rateLimiter {
	window := cfg.Window
	if window < config.MinRateWindowMs*time.Millisecond {
		window = config.MinRateWindowMs * time.Millisecond
	}
	if !cfg.Enabled {
		max = 0
	}
	return &rateLimiter{
		window:    window,
		max:       max,
		skipPaths: cfg.SkipPaths,
		entries:   make(map[string]*rateWindow),
		now:       time.Now,
		logger:    slog.With("component", "api.ratelimit"),
		metrics:   m,
	}
}

// middleware enforces the limit. Internal faults degrade open: the
// request proceeds and the fault is logged.
func (rl *rateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.max <= 0 || rl.skipped(c.Request) {
			c.Next()
			return
		}

		allowed, remaining, resetAt, err := rl.tryAdmit(clientKey(c.Request))
		if err != nil {
			rl.logger.Error("limiter fault, admitting request", "error", err)
			c.Next()
			return
		}

		if allowed {
			h := c.Writer.Header()
			h.Set("RateLimit-Limit", strconv.Itoa(rl.max))
			h.Set("RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("RateLimit-Reset", strconv.FormatInt(secondsUntil(rl.now(), resetAt), 10))
			c.Next()
			return
		}

		if rl.metrics != nil {
			rl.metrics.RecordRejection(models.ReasonRateLimited)
		}
		c.Header("Retry-After", strconv.FormatInt(secondsUntil(rl.now(), resetAt), 10))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, rateLimitedResponse{
			Error:        models.ReasonRateLimited,
			RetryAfterMs: resetAt.Sub(rl.now()).Milliseconds(),
		})
	}
}

// tryAdmit wraps admit so a limiter bug can never take the request path
// down with it.
func (rl *rateLimiter) tryAdmit(key string) (allowed bool, remaining int, resetAt time.Time, err error) {
	defer func() {
		if r := recover(); r != nil {
			allowed = true
			err = fmt.Errorf("limiter panic: %v", r)
		}
	}()
	allowed, remaining, resetAt = rl.admit(key)
	return allowed, remaining, resetAt, nil
}

// admit counts the request against its key's window, opening a fresh
// window when none is live.
func (rl *rateLimiter) admit(key string) (bool, int, time.Time) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.entries[key]
	if !ok || !now.Before(w.resetAt) {
		w = &rateWindow{resetAt: now.Add(rl.window)}
		rl.entries[key] = w
		rl.armSweepLocked()
	}
	w.count++

	remaining := rl.max - w.count
	if remaining < 0 {
		remaining = 0
	}
	return w.count <= rl.max, remaining, w.resetAt
}

// skipped reports whether the request bypasses the limiter: CORS
// preflight, event-stream requests, and configured sub-paths.
func (rl *rateLimiter) skipped(r *http.Request) bool {
	if r.Method == http.MethodOptions {
		return true
	}
	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		return true
	}
	path := r.URL.Path
	if strings.HasSuffix(path, "/stream") {
		return true
	}
	for _, prefix := range rl.skipPaths {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// armSweepLocked schedules the next purge. The timer stays armed only
// while keys are live; the purge that empties the table lets it lapse.
func (rl *rateLimiter) armSweepLocked() {
	if rl.sweepArmed {
		return
	}
	rl.sweepArmed = true
	rl.sweep = time.AfterFunc(rl.window, rl.sweepExpired)
}

// sweepExpired purges keys whose window has passed and re-arms while any
// remain.
func (rl *rateLimiter) sweepExpired() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.sweepArmed = false
	for key, w := range rl.entries {
		if !now.Before(w.resetAt) {
			delete(rl.entries, key)
		}
	}
	if len(rl.entries) > 0 {
		rl.armSweepLocked()
	}
}

// stop cancels the sweep timer.
func (rl *rateLimiter) stop() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.sweep != nil {
		rl.sweep.Stop()
	}
	rl.sweepArmed = false
}

// liveKeys reports how many keys currently hold a window.
func (rl *rateLimiter) liveKeys() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.entries)
}

// clientKey identifies the caller: the first forwarded-for hop when
// present, else the peer address.
func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// secondsUntil rounds the span up to whole seconds, minimum 1, for the
// Retry-After and RateLimit-Reset headers.
func secondsUntil(now, deadline time.Time) int64 {
	s := int64(math.Ceil(deadline.Sub(now).Seconds()))
	if s < 1 {
		s = 1
	}
	return s
}
