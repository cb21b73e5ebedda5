package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(perMinute int) (*Limiter, *time.Time) {
	l := NewLimiter(Config{RequestsPerMinute: perMinute})
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestAllowWindow(t *testing.T) {
	l, now := newTestLimiter(2)

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if l.Allow("a") {
		t.Fatal("third request in the window should be limited")
	}
	if !l.Allow("b") {
		t.Fatal("clients are limited independently")
	}

	*now = now.Add(time.Minute)
	if !l.Allow("a") {
		t.Fatal("a new window should reset the count")
	}
	if got := l.GetMetrics(); got.TotalHits != 1 || got.ClientCount != 2 {
		t.Fatalf("metrics = %+v", got)
	}
}

func TestCleanupStaleEntries(t *testing.T) {
	l, now := newTestLimiter(5)
	l.Allow("old")
	*now = now.Add(11 * time.Minute)
	l.Allow("fresh")

	if removed := l.cleanupStaleEntries(); removed != 1 {
		t.Fatalf("removed %d, want 1", removed)
	}
	if got := l.GetMetrics().ClientCount; got != 1 {
		t.Fatalf("clients = %d, want 1", got)
	}
}

func TestMiddlewareLimitsWritesOnly(t *testing.T) {
	l, _ := newTestLimiter(1)
	h := l.Middleware(func(*http.Request) string { return "10.0.0.1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

	do := func(method string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, "/businesses", nil))
		return rec
	}

	if rec := do(http.MethodPost); rec.Code != http.StatusNoContent {
		t.Fatalf("first POST = %d", rec.Code)
	}
	rec := do(http.MethodPost)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second POST = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
	}
	for range 3 {
		if rec := do(http.MethodGet); rec.Code != http.StatusNoContent {
			t.Fatalf("GET = %d, reads must not be limited", rec.Code)
		}
	}
}
