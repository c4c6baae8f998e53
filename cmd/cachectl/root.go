package main

import (
	"context"
	"errors"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"career-gap-backend/internal/analyses"
	"career-gap-backend/internal/shared/config"
	"career-gap-backend/internal/shared/storage/db"
)

// openCacheFunc returns a cache over the durable store and a func releasing it.
type openCacheFunc func(ctx context.Context) (*analyses.Cache, func(), error)

// confirmFunc asks the operator to confirm a destructive step.
type confirmFunc func(label string) (bool, error)

func newRootCmd(open openCacheFunc, confirm confirmFunc) *cobra.Command {
	root := &cobra.Command{
		Use:          "cachectl",
		Short:        "Inspect and prune the career gap analysis cache",
		SilenceUsage: true,
	}
	root.AddCommand(newStatsCmd(open))
	root.AddCommand(newCleanupCmd(open, confirm))
	root.AddCommand(newFingerprintCmd())
	return root
}

func cacheOpener(cfg config.Config) openCacheFunc {
	return func(ctx context.Context) (*analyses.Cache, func(), error) {
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return nil, nil, errors.New("DATABASE_URL is required")
		}
		sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.DefaultCLIOptions())
		if err != nil {
			return nil, nil, err
		}
		cache := analyses.NewCache(&analyses.PGRepo{DB: sqlDB}, nil)
		var hot *analyses.RedisHotCache
		if url := strings.TrimSpace(cfg.RedisURL); url != "" {
			// Best effort: cleanup still succeeds without hot-tier eviction.
			if h, err := analyses.NewRedisHotCache(ctx, url, cfg.RedisTTL); err == nil {
				hot = h
				cache.Hot = h
			}
		}
		release := func() {
			cache.Wait()
			if hot != nil {
				_ = hot.Close()
			}
			_ = sqlDB.Close()
		}
		return cache, release, nil
	}
}

func confirmPrompt(label string) (bool, error) {
	prompt := promptui.Prompt{Label: label, IsConfirm: true}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
