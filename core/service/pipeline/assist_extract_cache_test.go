package pipeline

import (
	"testing"
	"time"

	"assist_server/core/domain"
)

func TestExtractionCacheHitWithinTTL(t *testing.T) {
	clock := newFakeClock()
	cache := NewExtractionCache(60*time.Second, clock)

	result := &domain.ExtractionResult{Ask: "schedule something"}
	result.Sanitize()
	key := ContentHash("raw input text")
	cache.Set(key, result)

	clock.Advance(59 * time.Second)

	got, ok := cache.Get(key)
	if !ok {
		t.Fatal("expected cache hit inside TTL")
	}
	if got.Ask != "schedule something" {
		t.Errorf("Ask = %q", got.Ask)
	}
}

func TestExtractionCacheExpiresLazily(t *testing.T) {
	clock := newFakeClock()
	cache := NewExtractionCache(60*time.Second, clock)

	key := ContentHash("raw input text")
	cache.Set(key, &domain.ExtractionResult{Ask: "stale"})

	clock.Advance(61 * time.Second)

	// The entry sits in the map until a read observes its age.
	if cache.Len() != 1 {
		t.Fatalf("Len() = %d before read, want 1", cache.Len())
	}
	if _, ok := cache.Get(key); ok {
		t.Fatal("expected miss after TTL")
	}
	if cache.Len() != 0 {
		t.Errorf("Len() = %d after expired read, want 0", cache.Len())
	}
}

func TestExtractionCacheKeyIsRawText(t *testing.T) {
	if ContentHash("Hello  world") == ContentHash("hello world") {
		t.Error("different raw texts must hash to different keys")
	}
	if ContentHash("same text") != ContentHash("same text") {
		t.Error("identical raw text must hash to the same key")
	}
}

func TestExtractionCacheReplace(t *testing.T) {
	clock := newFakeClock()
	cache := NewExtractionCache(60*time.Second, clock)
	key := ContentHash("text")

	cache.Set(key, &domain.ExtractionResult{Ask: "first"})
	clock.Advance(30 * time.Second)
	cache.Set(key, &domain.ExtractionResult{Ask: "second"})
	clock.Advance(45 * time.Second)

	// Replacement reset the entry's age, so 45s after the second insert it
	// is still live.
	got, ok := cache.Get(key)
	if !ok {
		t.Fatal("expected hit after replacement")
	}
	if got.Ask != "second" {
		t.Errorf("Ask = %q, want second", got.Ask)
	}
}
