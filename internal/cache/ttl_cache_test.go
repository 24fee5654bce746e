package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestGetSetRoundTrip(t *testing.T) {
	c := NewTTLCache[string, int](10, time.Minute)

	c.Set("a", 1)
	got, ok := c.Get("a")
	if !ok || got != 1 {
		t.Fatalf("expected (1, true), got (%d, %v)", got, ok)
	}

	if _, ok := c.Get("missing"); ok {
		t.Fatalf("expected miss for absent key")
	}
}

func TestExpiredEntriesAreAbsent(t *testing.T) {
	c := NewTTLCache[string, int](10, 10*time.Millisecond)

	c.Set("a", 1)
	time.Sleep(25 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected expired entry to read as absent")
	}
	if c.Len() != 0 {
		t.Fatalf("expected lazy eviction on read, len=%d", c.Len())
	}
}

func TestEvictsLeastRecentlyUsedWhenFull(t *testing.T) {
	c := NewTTLCache[string, int](3, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	// Touch "a" so "b" becomes the LRU entry.
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected hit for a")
	}

	c.Set("d", 4)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected LRU entry b to be evicted")
	}
	for _, k := range []string{"a", "c", "d"} {
		if _, ok := c.Get(k); !ok {
			t.Fatalf("expected %s to survive eviction", k)
		}
	}
}

func TestSetExistingKeyRefreshesEntry(t *testing.T) {
	c := NewTTLCache[string, int](2, time.Minute)

	c.Set("a", 1)
	c.Set("a", 2)
	if c.Len() != 1 {
		t.Fatalf("expected single entry after overwrite, len=%d", c.Len())
	}

	got, ok := c.Get("a")
	if !ok || got != 2 {
		t.Fatalf("expected overwritten value 2, got (%d, %v)", got, ok)
	}
}

func TestCapacityIsBounded(t *testing.T) {
	c := NewTTLCache[string, int](100, time.Minute)

	for i := 0; i < 500; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i)
	}

	if c.Len() != 100 {
		t.Fatalf("expected len capped at 100, got %d", c.Len())
	}
}
