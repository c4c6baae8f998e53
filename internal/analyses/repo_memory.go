package analyses

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores analyses in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu    sync.RWMutex
	byKey map[string]Analysis
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byKey: make(map[string]Analysis)}
}

func (r *MemoryRepo) GetByCacheKey(ctx context.Context, cacheKey string) (Analysis, error) {
	if err := ctx.Err(); err != nil {
		return Analysis{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byKey[cacheKey]
	if !ok {
		return Analysis{}, ErrNotFound
	}
	return a.clone(), nil
}

func (r *MemoryRepo) Create(ctx context.Context, analysis Analysis) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byKey[analysis.CacheKey]; exists {
		return ErrDuplicateKey
	}
	r.byKey[analysis.CacheKey] = analysis.clone()
	return nil
}

func (r *MemoryRepo) Touch(ctx context.Context, cacheKey string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byKey[cacheKey]
	if !ok {
		return ErrNotFound
	}
	a.AccessCount++
	a.LastAccessedAt = at
	r.byKey[cacheKey] = a
	return nil
}

func (r *MemoryRepo) Stats(ctx context.Context) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var stats Stats
	var total int64
	for _, a := range r.byKey {
		stats.TotalAnalyses++
		total += int64(a.AccessCount)
	}
	if stats.TotalAnalyses > 0 {
		stats.AverageAccessCount = float64(total) / float64(stats.TotalAnalyses)
	}
	return stats, nil
}

func (r *MemoryRepo) DeleteUnusedBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted []string
	for key, a := range r.byKey {
		if a.CreatedAt.Before(cutoff) && a.AccessCount == 1 {
			deleted = append(deleted, key)
			delete(r.byKey, key)
		}
	}
	sort.Strings(deleted)
	return deleted, nil
}
