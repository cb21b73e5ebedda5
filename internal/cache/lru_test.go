package cache

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(size int, ttl time.Duration) (*LRUCache[string], *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](size, ttl)
	c.now = clock.Now
	return c, clock
}

func TestLRUEviction(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should be cached")
	}
	c.Set("c", "3") // evicts b, the least recently used

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Errorf("a = %q, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Errorf("size = %d, want 2", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	c.Set("long", "x")
	c.SetWithTTL("short", "y", 10*time.Second)
	c.SetWithTTL("capped", "z", time.Hour)

	clock.Advance(30 * time.Second)
	if _, ok := c.Get("short"); ok {
		t.Error("short should have expired")
	}
	if _, ok := c.Get("long"); !ok {
		t.Error("long should still be cached")
	}

	clock.Advance(time.Minute)
	if _, ok := c.Get("capped"); ok {
		t.Error("ttl above the default should be capped")
	}
}

func TestSetWithNonPositiveTTLRemoves(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	c.Set("k", "v")
	c.SetWithTTL("k", "v2", 0)
	if _, ok := c.Get("k"); ok {
		t.Fatal("key should be removed")
	}
}

func TestCleanExpiredAndManager(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	c.SetWithTTL("c", "3", time.Second)
	clock.Advance(2 * time.Second)

	m := NewManager()
	m.Register(c)
	if n := m.CleanNow(); n != 1 {
		t.Fatalf("cleaned %d, want 1", n)
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d, want 2", c.Size())
	}

	m.StartCleanup(context.Background(), time.Millisecond)
	m.StartCleanup(context.Background(), time.Millisecond)
	clock.Advance(time.Hour)
	deadline := time.Now().Add(2 * time.Second)
	for c.Size() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	m.Stop()
	m.Stop()
	if c.Size() != 0 {
		t.Fatalf("background cleanup left %d entries", c.Size())
	}
}
