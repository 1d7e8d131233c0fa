package middleware

import (
	"net/http"
	"sync"
	"time"
)

// RateLimiter throttles requests per client IP over a fixed window. It
// guards the credential endpoints (login, register), which are the only
// password-guessing surface.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientWindow
	limit   int
	window  time.Duration
	now     func() time.Time
}

type clientWindow struct {
	start time.Time
	count int
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*clientWindow),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
	go rl.evictLoop()
	return rl
}

func (rl *RateLimiter) evictLoop() {
	for {
		time.Sleep(rl.window)
		rl.mu.Lock()
		cutoff := rl.now()
		for ip, c := range rl.clients {
			if cutoff.Sub(c.start) > rl.window {
				delete(rl.clients, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// clientIP prefers the proxy-set headers so all clients behind one
// reverse proxy are not lumped into a single bucket.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// Limit rejects requests past the per-IP budget with a 429 in the
// standard response envelope. The window restarts once it has fully
// elapsed.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		rl.mu.Lock()
		c, ok := rl.clients[ip]
		if !ok || rl.now().Sub(c.start) > rl.window {
			c = &clientWindow{start: rl.now()}
			rl.clients[ip] = c
		}
		c.count++
		over := c.count > rl.limit
		rl.mu.Unlock()

		if over {
			deny(w, http.StatusTooManyRequests, "too many requests, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}
