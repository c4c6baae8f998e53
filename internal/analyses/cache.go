package analyses

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"career-gap-backend/internal/fingerprint"
	"career-gap-backend/internal/shared/metrics"
	"career-gap-backend/internal/shared/telemetry"
)

const defaultTouchTimeout = 10 * time.Second

// Cache implements lookup-or-create over a Repo with an optional hot tier.
type Cache struct {
	Repo Repo
	Hot  HotCache
	// Now defaults to time.Now when nil.
	Now          func() time.Time
	TouchTimeout time.Duration

	touches sync.WaitGroup
}

// NewCache constructs a Cache. hot may be nil.
func NewCache(repo Repo, hot HotCache) *Cache {
	return &Cache{Repo: repo, Hot: hot}
}

func (c *Cache) now() time.Time {
	if c.Now != nil {
		return c.Now().UTC()
	}
	return time.Now().UTC()
}

// Lookup returns the analysis stored under cacheKey. Storage faults are logged and reported as a miss.
// A hit schedules an access-count update that never blocks or alters the returned record.
func (c *Cache) Lookup(ctx context.Context, cacheKey string) (Analysis, bool) {
	fields := map[string]any{
		"cache_key":  fingerprint.Short(cacheKey),
		"request_id": requestIDFromContext(ctx),
	}

	if c.Hot != nil {
		a, found, err := c.Hot.Get(ctx, cacheKey)
		switch {
		case err != nil:
			fields["error"] = err.Error()
			telemetry.Warn("cache.hot_lookup_failed", fields)
			delete(fields, "error")
		case found:
			c.touchAsync(ctx, cacheKey)
			return a, true
		}
	}

	a, err := c.Repo.GetByCacheKey(ctx, cacheKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			fields["error"] = err.Error()
			telemetry.Warn("cache.lookup_failed", fields)
		}
		return Analysis{}, false
	}
	c.touchAsync(ctx, cacheKey)
	c.warmHot(ctx, a)
	return a, true
}

func (c *Cache) touchAsync(ctx context.Context, cacheKey string) {
	bg := detachedWithRequestID(ctx)
	at := c.now()
	timeout := c.TouchTimeout
	if timeout <= 0 {
		timeout = defaultTouchTimeout
	}

	c.touches.Add(1)
	go func() {
		defer c.touches.Done()
		tctx, cancel := context.WithTimeout(bg, timeout)
		defer cancel()
		err := c.Repo.Touch(tctx, cacheKey, at)
		if errors.Is(err, ErrNotFound) && c.Hot != nil {
			// The durable row is gone (cleanup whose hot eviction failed); stop serving it.
			if derr := c.Hot.Delete(tctx, cacheKey); derr != nil {
				telemetry.Warn("cache.hot_evict_failed", map[string]any{
					"cache_key": fingerprint.Short(cacheKey),
					"error":     derr.Error(),
				})
			}
		}
		if err != nil {
			metrics.IncTouchFailure()
			telemetry.Warn("cache.touch_failed", map[string]any{
				"cache_key":  fingerprint.Short(cacheKey),
				"request_id": requestIDFromContext(bg),
				"error":      err.Error(),
			})
		}
	}()
}

// Wait blocks until every scheduled access update has finished.
func (c *Cache) Wait() {
	c.touches.Wait()
}

// Store persists a freshly validated response. It returns ErrDuplicateKey when another request won the insert.
func (c *Cache) Store(ctx context.Context, cacheKey, resumeText, jobDescriptionText string, resp ValidatedResponse) (Analysis, error) {
	now := c.now()
	a := Analysis{
		ID:                 uuid.NewString(),
		CacheKey:           cacheKey,
		ResumeText:         resumeText,
		JobDescriptionText: jobDescriptionText,
		MissingSkills:      cloneStrings(resp.MissingSkills),
		LearningSteps:      cloneStrings(resp.LearningSteps),
		InterviewQuestions: cloneStrings(resp.InterviewQuestions),
		RoadmapMarkdown:    resp.RoadmapMarkdown,
		AccessCount:        1,
		LastAccessedAt:     now,
		CreatedAt:          now,
	}
	if err := c.Repo.Create(ctx, a); err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			return Analysis{}, ErrDuplicateKey
		}
		return Analysis{}, &StorageError{Op: "store", Err: err}
	}
	c.warmHot(ctx, a)
	return a, nil
}

func (c *Cache) warmHot(ctx context.Context, a Analysis) {
	if c.Hot == nil {
		return
	}
	if err := c.Hot.Set(ctx, a); err != nil {
		telemetry.Warn("cache.hot_store_failed", map[string]any{
			"cache_key":  fingerprint.Short(a.CacheKey),
			"request_id": requestIDFromContext(ctx),
			"error":      err.Error(),
		})
	}
}

// Stats returns aggregate counts from the Repo.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	stats, err := c.Repo.Stats(ctx)
	if err != nil {
		return Stats{}, &StorageError{Op: "stats", Err: err}
	}
	return stats, nil
}

// Cleanup deletes analyses older than daysOld days that were never re-requested.
func (c *Cache) Cleanup(ctx context.Context, daysOld int) (int, error) {
	if daysOld < 0 {
		return 0, ErrInvalidDaysOld
	}
	cutoff := c.now().AddDate(0, 0, -daysOld)
	deleted, err := c.Repo.DeleteUnusedBefore(ctx, cutoff)
	if err != nil {
		return 0, &StorageError{Op: "cleanup", Err: err}
	}
	if c.Hot != nil && len(deleted) > 0 {
		if err := c.Hot.Delete(ctx, deleted...); err != nil {
			telemetry.Warn("cache.hot_evict_failed", map[string]any{
				"count": len(deleted),
				"error": err.Error(),
			})
		}
	}
	telemetry.Info("cache.cleanup", map[string]any{
		"days_old":      daysOld,
		"cutoff":        cutoff.Format(time.RFC3339),
		"deleted_count": len(deleted),
	})
	return len(deleted), nil
}
