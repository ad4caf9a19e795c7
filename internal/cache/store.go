package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/agoraforum/agora/internal/config"
)

// Store is a key/value store with optional per-key expiry. Get returns
// errors.ErrNotFound on a missing or expired key. A ttl <= 0 on Set
// stores the value without expiry.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// New builds a Store from config. Type "redis" talks to a redis
// server, "memory" keeps a bounded in-process table.
func New(cfg config.CacheConfig) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "", "memory":
		return NewMemoryStore(cfg.MemoryMaxEntries), nil
	case "redis":
		if cfg.Redis.Addr == "" {
			return nil, fmt.Errorf("cache.redis.addr is required")
		}
		return NewRedisStore(cfg.Redis), nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}
