package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	appErr "github.com/agoraforum/agora/internal/pkg/errors"
)

const defaultMemoryMaxEntries = 65536

type memoryEntry struct {
	value    string
	deadline time.Time // zero means no expiry
}

// MemoryStore is a bounded in-process Store. Expiry is lazy: an
// expired entry is dropped on the Get that observes it, or by Purge.
type MemoryStore struct {
	entries *lru.Cache[string, memoryEntry]
}

func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = defaultMemoryMaxEntries
	}
	entries, _ := lru.New[string, memoryEntry](maxEntries)
	return &MemoryStore{entries: entries}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	_ = ctx
	entry, ok := s.entries.Get(key)
	if !ok {
		return "", appErr.ErrNotFound
	}
	if !entry.deadline.IsZero() && time.Now().After(entry.deadline) {
		s.entries.Remove(key)
		return "", appErr.ErrNotFound
	}
	return entry.value, nil
}

func (s *MemoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	_ = ctx
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.deadline = time.Now().Add(ttl)
	}
	s.entries.Add(key, entry)
	return nil
}

func (s *MemoryStore) Del(ctx context.Context, key string) error {
	_ = ctx
	s.entries.Remove(key)
	return nil
}

// Purge drops entries whose deadline has passed. The redis store needs
// nothing like this; it only matters for long-lived memory deployments.
func (s *MemoryStore) Purge(ctx context.Context) int {
	_ = ctx
	now := time.Now()
	removed := 0
	for _, key := range s.entries.Keys() {
		entry, ok := s.entries.Peek(key)
		if !ok {
			continue
		}
		if !entry.deadline.IsZero() && now.After(entry.deadline) {
			s.entries.Remove(key)
			removed++
		}
	}
	return removed
}
