// Command cachectl inspects and prunes the analysis cache.
//
//	go run ./cmd/cachectl stats
//	go run ./cmd/cachectl cleanup --days 30
//	go run ./cmd/cachectl fingerprint --resume resume.txt --job job.txt
package main

import (
	"os"

	"career-gap-backend/internal/shared/config"
	"career-gap-backend/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	_ = telemetry.Init(cfg.Env, cfg.LogLevel)
	defer telemetry.Sync()

	root := newRootCmd(cacheOpener(cfg), confirmPrompt)
	if err := root.Execute(); err != nil {
		telemetry.Sync()
		os.Exit(1)
	}
}
