// Package ratelimit throttles ledger writes per client address.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const (
	window     = time.Minute
	staleAfter = 10 * time.Minute
)

// Limiter allows at most limit requests per client within a fixed one-minute
// window. Idle clients are forgotten lazily on the next call after staleAfter.
type Limiter struct {
	limit int
	now   func() time.Time

	mu        sync.Mutex
	clients   map[string]*bucket
	lastSweep time.Time

	rejected atomic.Int64
}

type bucket struct {
	windowStart time.Time
	lastSeen    time.Time
	count       int
}

// New returns a limiter for limit requests per minute. A limit below one
// disables limiting.
func New(limit int) *Limiter {
	return &Limiter{
		limit:   limit,
		now:     time.Now,
		clients: make(map[string]*bucket),
	}
}

// Allow records one request from client and reports whether it fits the
// current window.
func (l *Limiter) Allow(client string) bool {
	if l.limit < 1 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweepLocked(now)

	b, ok := l.clients[client]
	if !ok || now.Sub(b.windowStart) >= window {
		l.clients[client] = &bucket{windowStart: now, lastSeen: now, count: 1}
		return true
	}
	b.lastSeen = now
	b.count++
	if b.count > l.limit {
		l.rejected.Add(1)
		return false
	}
	return true
}

func (l *Limiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < staleAfter {
		return
	}
	cutoff := now.Add(-staleAfter)
	for k, b := range l.clients {
		if b.lastSeen.Before(cutoff) {
			delete(l.clients, k)
		}
	}
	l.lastSweep = now
}

// Clients reports how many clients are tracked.
func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Rejected reports how many requests were refused.
func (l *Limiter) Rejected() int64 { return l.rejected.Load() }

// Middleware limits requests whose method changes state. Reads pass through.
// onLimit writes the refusal; Retry-After is already set when it runs.
func (l *Limiter) Middleware(clientKey func(*http.Request) string, onLimit http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			if !l.Allow(clientKey(r)) {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				onLimit(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
