package analyses

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const hotCachePrefix = "analysis:"

// HotCache is an optional fast tier consulted before the Repo.
type HotCache interface {
	// Get reports found=false on a miss.
	Get(ctx context.Context, cacheKey string) (Analysis, bool, error)
	Set(ctx context.Context, analysis Analysis) error
	Delete(ctx context.Context, cacheKeys ...string) error
}

// RedisHotCache stores analyses as JSON values with a TTL.
type RedisHotCache struct {
	rdb *goredis.Client
	ttl time.Duration
}

// hotEntry keeps the fields the public JSON form hides.
type hotEntry struct {
	Analysis
	ResumeText         string `json:"resumeText"`
	JobDescriptionText string `json:"jobDescriptionText"`
}

// NewRedisHotCache connects to redisURL and verifies it with a ping.
func NewRedisHotCache(ctx context.Context, redisURL string, ttl time.Duration) (*RedisHotCache, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	rdb := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisHotCacheFromClient(rdb, ttl), nil
}

// NewRedisHotCacheFromClient wraps an existing client without pinging it.
func NewRedisHotCacheFromClient(rdb *goredis.Client, ttl time.Duration) *RedisHotCache {
	return &RedisHotCache{rdb: rdb, ttl: ttl}
}

func (c *RedisHotCache) Get(ctx context.Context, cacheKey string) (Analysis, bool, error) {
	raw, err := c.rdb.Get(ctx, hotCachePrefix+cacheKey).Bytes()
	if errors.Is(err, goredis.Nil) {
		return Analysis{}, false, nil
	}
	if err != nil {
		return Analysis{}, false, err
	}
	var entry hotEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Analysis{}, false, fmt.Errorf("decode hot cache entry: %w", err)
	}
	a := entry.Analysis
	a.ResumeText = entry.ResumeText
	a.JobDescriptionText = entry.JobDescriptionText
	return a, true, nil
}

func (c *RedisHotCache) Set(ctx context.Context, analysis Analysis) error {
	raw, err := json.Marshal(hotEntry{
		Analysis:           analysis,
		ResumeText:         analysis.ResumeText,
		JobDescriptionText: analysis.JobDescriptionText,
	})
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, hotCachePrefix+analysis.CacheKey, raw, c.ttl).Err()
}

func (c *RedisHotCache) Delete(ctx context.Context, cacheKeys ...string) error {
	if len(cacheKeys) == 0 {
		return nil
	}
	keys := make([]string, len(cacheKeys))
	for i, k := range cacheKeys {
		keys[i] = hotCachePrefix + k
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// Close releases the underlying client.
func (c *RedisHotCache) Close() error {
	return c.rdb.Close()
}
