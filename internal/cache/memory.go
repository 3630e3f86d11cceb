package cache

import (
	"context"
	"sync"
	"time"

	"github.com/openlove/feedrank/internal/feed"
)

// memoryEntry is one cached page with its expiry.
type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// Memory is an in-memory implementation of feed.PageCache for tests and
// single-process development. Pages go through the same CBOR codec as
// the Redis cache so serialization behavior matches production.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory creates an in-memory page cache. A non-positive ttl selects
// DefaultTTL seconds.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL * time.Second
	}
	return &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached page for key, or ok=false on a miss or an
// expired entry.
func (m *Memory) Get(_ context.Context, key feed.PageKey) (*feed.FeedPage, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[Key(key)]
	m.mu.RUnlock()

	if !ok || m.now().After(entry.expiresAt) {
		return nil, false, nil
	}

	page, err := decodePage(entry.data)
	if err != nil {
		return nil, false, err
	}
	return page, true, nil
}

// Set stores the page under key with the configured TTL.
func (m *Memory) Set(_ context.Context, key feed.PageKey, page *feed.FeedPage) error {
	data, err := encodePage(page)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.entries[Key(key)] = memoryEntry{
		data:      data,
		expiresAt: m.now().Add(m.ttl),
	}
	m.mu.Unlock()
	return nil
}

// Invalidate removes the cached page for key, if present.
func (m *Memory) Invalidate(key feed.PageKey) {
	m.mu.Lock()
	delete(m.entries, Key(key))
	m.mu.Unlock()
}

// Len reports the number of live entries. Test helper.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
