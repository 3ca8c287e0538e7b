package cache

import (
	"testing"
	"time"
)

func TestTTLCacheGetSet(t *testing.T) {
	c := NewTTLCache[int](10, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set("k", 42)
	got, ok := c.Get("k")
	if !ok || got != 42 {
		t.Fatalf("Get() = %d, %v; want 42, true", got, ok)
	}

	c.Set("k", 43)
	if got, _ := c.Get("k"); got != 43 {
		t.Fatalf("Get() after overwrite = %d, want 43", got)
	}

	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache[string](10, 10*time.Millisecond)

	c.Set("k", "v")
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected hit inside window")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after window elapsed")
	}
}

func TestTTLCacheSizeBound(t *testing.T) {
	c := NewTTLCache[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	if got := c.Size(); got != 2 {
		t.Fatalf("Size() = %d, want 2", got)
	}
	// The oldest entry is the one evicted.
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected oldest entry to be evicted")
	}
}

func TestCleanExpired(t *testing.T) {
	c := NewTTLCache[int](10, 10*time.Millisecond)

	c.Set("a", 1)
	c.Set("b", 2)
	time.Sleep(20 * time.Millisecond)
	c.Set("fresh", 3)

	if removed := c.CleanExpired(); removed != 2 {
		t.Fatalf("CleanExpired() = %d, want 2", removed)
	}
	if got := c.Size(); got != 1 {
		t.Fatalf("Size() after cleanup = %d, want 1", got)
	}
}

func TestManagerCleanup(t *testing.T) {
	c := NewTTLCache[int](10, 5*time.Millisecond)
	c.Set("a", 1)

	m := NewManager()
	m.Register(c)
	m.StartCleanup(10 * time.Millisecond)
	defer m.Stop()

	deadline := time.After(500 * time.Millisecond)
	for c.Size() > 0 {
		select {
		case <-deadline:
			t.Fatal("manager never cleaned the expired entry")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestManagerStopWithoutStart(t *testing.T) {
	m := NewManager()
	m.Register(NewTTLCache[int](10, time.Minute))

	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked with no cleanup running")
	}
}
