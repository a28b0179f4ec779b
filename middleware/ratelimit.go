package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vidyalabs/tutor-backend/utils"
)

// RateLimiter enforces a per-client fixed-window request limit. The window
// resets every minute; state is in-process, which matches the single-node
// deployment this service targets.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	logger  *zap.Logger
}

type window struct {
	count    int
	startsAt time.Time
}

// NewRateLimiter creates a limiter allowing requestsPerMinute per client IP.
func NewRateLimiter(requestsPerMinute int, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*window),
		limit:   requestsPerMinute,
		logger:  logger,
	}
}

// Limit is the middleware entry point.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r)) {
			rl.logger.Warn("request rate limited", zap.String("ip", clientIP(r)))
			_ = utils.WriteTooManyRequests(w, "Too many requests, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	win, ok := rl.windows[ip]
	if !ok || now.Sub(win.startsAt) >= time.Minute {
		rl.windows[ip] = &window{count: 1, startsAt: now}
		rl.pruneLocked(now)
		return true
	}

	if win.count >= rl.limit {
		return false
	}
	win.count++
	return true
}

// pruneLocked drops stale windows so the map does not grow unbounded.
func (rl *RateLimiter) pruneLocked(now time.Time) {
	if len(rl.windows) < 10000 {
		return
	}
	for ip, win := range rl.windows {
		if now.Sub(win.startsAt) >= time.Minute {
			delete(rl.windows, ip)
		}
	}
}

func clientIP(r *http.Request) string {
	// RemoteAddr has already been rewritten by chi's RealIP middleware when
	// the request came through a proxy.
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
