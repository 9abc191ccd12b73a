package server

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// clientLimiter hands out one token-bucket limiter per client IP. It is the
// only shared mutable state across requests and is guarded by its mutex.
type clientLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newClientLimiter(perMinute, burst int) *clientLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	if burst <= 0 {
		burst = 10
	}
	return &clientLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
	}
}

func (c *clientLimiter) allow(clientIP string) bool {
	c.mu.Lock()
	lim, ok := c.limiters[clientIP]
	if !ok {
		lim = rate.NewLimiter(c.limit, c.burst)
		c.limiters[clientIP] = lim
	}
	c.mu.Unlock()
	return lim.Allow()
}

// middleware rejects requests over the per-client budget with 429.
func (c *clientLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !c.allow(ip) {
			http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
