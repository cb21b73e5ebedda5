package ratelimit

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Limiter is a fixed-window request limiter keyed by client.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*window
	now     func() time.Time
	hits    atomic.Int64

	limit      int
	windowSize time.Duration
	staleAfter time.Duration
}

type window struct {
	start    time.Time
	requests int
}

// Config holds rate limiter configuration.
type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		CleanupInterval:   5 * time.Minute,
	}
}

// NewLimiter creates a limiter. Call Run to start evicting idle clients.
func NewLimiter(config Config) *Limiter {
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = DefaultConfig().RequestsPerMinute
	}
	return &Limiter{
		clients:    make(map[string]*window),
		now:        time.Now,
		limit:      config.RequestsPerMinute,
		windowSize: time.Minute,
		staleAfter: 10 * time.Minute,
	}
}

// Allow records one request from client and reports whether it is within
// the limit of the current window.
func (l *Limiter) Allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.clients[client]
	if !ok || now.Sub(w.start) >= l.windowSize {
		l.clients[client] = &window{start: now, requests: 1}
		return true
	}
	w.requests++
	if w.requests > l.limit {
		l.hits.Add(1)
		return false
	}
	return true
}

// retryAfter returns the seconds until client's window resets.
func (l *Limiter) retryAfter(client string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.clients[client]
	if !ok {
		return 0
	}
	left := l.windowSize - l.now().Sub(w.start)
	return int((left + time.Second - 1) / time.Second)
}

// Run evicts idle clients every interval until ctx is done.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultConfig().CleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.cleanupStaleEntries()
		case <-ctx.Done():
			return
		}
	}
}

func (l *Limiter) cleanupStaleEntries() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.staleAfter)
	removed := 0
	for client, w := range l.clients {
		if w.start.Before(cutoff) {
			delete(l.clients, client)
			removed++
		}
	}
	return removed
}

// Metrics for monitoring rate limiting.
type Metrics struct {
	TotalHits   int64
	ClientCount int64
}

func (l *Limiter) GetMetrics() Metrics {
	l.mu.Lock()
	clients := int64(len(l.clients))
	l.mu.Unlock()
	return Metrics{TotalHits: l.hits.Load(), ClientCount: clients}
}

// Middleware limits state-changing requests (POST, PUT, PATCH, DELETE) per
// client. Reads are never limited.
func (l *Limiter) Middleware(extractIP func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			default:
				next.ServeHTTP(w, r)
				return
			}
			client := extractIP(r)
			if !l.Allow(client) {
				w.Header().Set("Retry-After", strconv.Itoa(l.retryAfter(client)))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
