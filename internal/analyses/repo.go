package analyses

import (
	"context"
	"time"
)

// Repo defines persistence operations for analyses.
type Repo interface {
	// GetByCacheKey returns ErrNotFound when no analysis has the key.
	GetByCacheKey(ctx context.Context, cacheKey string) (Analysis, error)
	// Create returns ErrDuplicateKey when the cache key already exists.
	Create(ctx context.Context, analysis Analysis) error
	// Touch increments the access count and sets the last access time.
	Touch(ctx context.Context, cacheKey string, at time.Time) error
	Stats(ctx context.Context) (Stats, error)
	// DeleteUnusedBefore removes analyses created before cutoff that were never re-requested
	// and returns their cache keys.
	DeleteUnusedBefore(ctx context.Context, cutoff time.Time) ([]string, error)
}
