package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/agoraforum/agora/internal/cache"
)

// CachePurgeJob drops expired entries from the in-process cache store.
// Redis expires keys itself; this only runs for memory deployments.
type CachePurgeJob struct {
	store *cache.MemoryStore
}

func NewCachePurgeJob(store *cache.MemoryStore) *CachePurgeJob {
	return &CachePurgeJob{store: store}
}

func (j *CachePurgeJob) Name() string {
	return "cache_purge"
}

func (j *CachePurgeJob) Run(ctx context.Context) error {
	removed := j.store.Purge(ctx)
	if removed > 0 {
		logutil.GetLogger(ctx).Info("purged expired cache entries", zap.Int("removed", removed))
	}
	return nil
}
