package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/agoraforum/agora/internal/model"
	appErr "github.com/agoraforum/agora/internal/pkg/errors"
)

// UserTTL bounds how long a cached user snapshot may outlive the row
// it was read from. Freshness after writes does not rely on it: every
// mutating path must call Invalidate once the store write is
// acknowledged.
const UserTTL = 3600 * time.Second

// UserLoader is the slice of the credential store the cache reads
// through on a miss.
type UserLoader interface {
	SelectByID(ctx context.Context, id int64) (*model.User, error)
}

// UserCache is a read-through cache of user records. Concurrent misses
// for the same id may each hit the loader and write the cache; the
// last writer wins and both writers hold equal snapshots, so the race
// is left unserialized.
type UserCache struct {
	store  Store
	loader UserLoader
}

func NewUserCache(store Store, loader UserLoader) *UserCache {
	return &UserCache{store: store, loader: loader}
}

// Get returns the cached user, populating the cache from the loader on
// a miss. A loader miss is returned as ErrNotFound and leaves no cache
// entry behind.
func (c *UserCache) Get(ctx context.Context, userID int64) (*model.User, error) {
	key := UserKey(userID)
	raw, err := c.store.Get(ctx, key)
	if err == nil {
		var user model.User
		if uerr := json.Unmarshal([]byte(raw), &user); uerr == nil {
			return &user, nil
		}
		// An undecodable entry is treated as a miss and overwritten below.
		logutil.GetLogger(ctx).Warn("drop corrupt user cache entry", zap.String("key", key))
	} else if err != appErr.ErrNotFound {
		return nil, err
	}
	user, err := c.loader.SelectByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(user)
	if err != nil {
		return nil, err
	}
	if err := c.store.Set(ctx, key, string(encoded), UserTTL); err != nil {
		return nil, err
	}
	return user, nil
}

// Invalidate removes the cache entry for the user unconditionally.
func (c *UserCache) Invalidate(ctx context.Context, userID int64) error {
	return c.store.Del(ctx, UserKey(userID))
}
