package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"assist_server/core/domain"
)

const DefaultExtractionTTL = 60 * time.Second

// ContentHash keys cache entries by the raw, pre-normalization text so a
// lookup can happen before any other work.
func ContentHash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

type extractionEntry struct {
	result     *domain.ExtractionResult
	insertedAt time.Time
}

// ExtractionCache is an in-memory TTL cache for extraction results. Entries
// are immutable snapshots; expiry is lazy on read, there is no background
// sweeper.
type ExtractionCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	clock   Clock
	entries map[string]extractionEntry
}

func NewExtractionCache(ttl time.Duration, clock Clock) *ExtractionCache {
	if ttl <= 0 {
		ttl = DefaultExtractionTTL
	}
	if clock == nil {
		clock = NewClock()
	}
	return &ExtractionCache{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]extractionEntry),
	}
}

// Get returns the cached result for key, treating expired entries as misses.
func (c *ExtractionCache) Get(key string) (*domain.ExtractionResult, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if c.clock.Now().Sub(entry.insertedAt) > c.ttl {
		c.mu.Lock()
		if current, still := c.entries[key]; still && current.insertedAt.Equal(entry.insertedAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return entry.result, true
}

// Set inserts or replaces the whole entry for key. Callers must not mutate
// the result afterwards.
func (c *ExtractionCache) Set(key string, result *domain.ExtractionResult) {
	c.mu.Lock()
	c.entries[key] = extractionEntry{result: result, insertedAt: c.clock.Now()}
	c.mu.Unlock()
}

// Len reports live plus expired-but-unread entries; used by metrics only.
func (c *ExtractionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
