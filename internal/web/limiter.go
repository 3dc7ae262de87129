package web

import (
	"net"
	"net/http"
	"sync"

	"crmdash/internal/config"

	"golang.org/x/time/rate"
)

// loginLimiter throttles login attempts per client IP.
type loginLimiter struct {
	limiters sync.Map
	cfg      config.LoginRateLimitConfig
}

func newLoginLimiter(cfg config.LoginRateLimitConfig) *loginLimiter {
	return &loginLimiter{cfg: cfg}
}

func (l *loginLimiter) Allow(r *http.Request) bool {
	if l.cfg.RPS <= 0 {
		return true
	}
	return l.getLimiter(clientIP(r)).Allow()
}

func (l *loginLimiter) getLimiter(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		if lim, ok := v.(*rate.Limiter); ok {
			return lim
		}
	}

	burst := l.cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(l.cfg.RPS), burst)
	actual, loaded := l.limiters.LoadOrStore(key, lim)
	if loaded {
		if actualLim, ok := actual.(*rate.Limiter); ok {
			return actualLim
		}
	}
	return lim
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
