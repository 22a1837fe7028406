package audio

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// RateLimiter allows a fixed number of requests per client in each window.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*window
	limit   int
	period  time.Duration
	now     func() time.Time
}

type window struct {
	start time.Time
	used  int
}

func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*window),
		limit:   limit,
		period:  period,
		now:     time.Now,
	}
}

func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	w, ok := rl.clients[client]
	if !ok || now.Sub(w.start) >= rl.period {
		rl.evict(now)
		rl.clients[client] = &window{start: now, used: 1}
		return rl.limit > 0
	}

	if w.used >= rl.limit {
		return false
	}
	w.used++
	return true
}

// evict drops expired windows so the map does not grow with every client seen.
func (rl *RateLimiter) evict(now time.Time) {
	for k, w := range rl.clients {
		if now.Sub(w.start) >= rl.period {
			delete(rl.clients, k)
		}
	}
}

func (rl *RateLimiter) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r)) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// peer address without its port.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
