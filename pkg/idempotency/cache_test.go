package idempotency

import (
	"testing"
	"time"

	"venue_go/internal/domain"
)

func TestCacheHit(t *testing.T) {
	c := New(time.Minute)
	c.Set("abc", domain.OrderResult{VenueOrderID: "42"})

	got, ok := c.Get("abc")
	if !ok || got.VenueOrderID != "42" {
		t.Errorf("Get = (%+v, %v), want hit with id 42", got, ok)
	}
}

func TestCacheMiss(t *testing.T) {
	c := New(time.Minute)
	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := New(10 * time.Millisecond)
	c.Set("abc", domain.OrderResult{VenueOrderID: "42"})
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("abc"); ok {
		t.Error("expected entry to expire")
	}
}

func TestNilCacheIsNoop(t *testing.T) {
	var c *Cache
	c.Set("abc", domain.OrderResult{})
	if _, ok := c.Get("abc"); ok {
		t.Error("nil cache should never hit")
	}
}
