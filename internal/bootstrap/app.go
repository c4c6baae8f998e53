package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"career-gap-backend/internal/analyses"
	"career-gap-backend/internal/llm"
	"career-gap-backend/internal/llm/anthropic"
	"career-gap-backend/internal/llm/gemini"
	"career-gap-backend/internal/llm/openai"
	"career-gap-backend/internal/shared/config"
	"career-gap-backend/internal/shared/server"
	"career-gap-backend/internal/shared/server/middleware"
	"career-gap-backend/internal/shared/storage/db"
	"career-gap-backend/internal/shared/storage/object"
	localstore "career-gap-backend/internal/shared/storage/object/local"
	"career-gap-backend/internal/shared/telemetry"
	"career-gap-backend/internal/uploads"
)

// App holds the process-wide dependencies.
type App struct {
	Config   config.Config
	Router   *gin.Engine
	DB       *sql.DB
	Hot      *analyses.RedisHotCache
	Store    object.ObjectStore
	Cache    *analyses.Cache
	Provider llm.Provider
	Service  *analyses.Service

	AnalysesHandler *analyses.Handler
	UploadsHandler  *uploads.Handler

	shutdownTracing func(context.Context) error
}

// Build wires the application from a validated config. The provider is resolved
// once here and kept for the lifetime of the process.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "development"
	}

	shutdownTracing, err := telemetry.InitTracing(ctx, telemetry.TracingConfig{
		Enabled:     cfg.OTelEnabled,
		ServiceName: server.ServiceName,
		Environment: cfg.Env,
		Endpoint:    cfg.OTelEndpoint,
		Insecure:    cfg.OTelInsecure,
		SampleRatio: cfg.OTelSampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	app := &App{Config: cfg, shutdownTracing: shutdownTracing}

	provider, err := NewProvider(ctx, cfg)
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}
	app.Provider = provider

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}
	app.DB = sqlDB

	if url := strings.TrimSpace(cfg.RedisURL); url != "" {
		hot, err := analyses.NewRedisHotCache(ctx, url, cfg.RedisTTL)
		if err != nil {
			// The durable store is authoritative; run without the hot tier.
			telemetry.Warn("bootstrap.redis_unavailable", map[string]any{"error": err})
		} else {
			app.Hot = hot
		}
	}

	var repo analyses.Repo
	if app.DB != nil {
		repo = &analyses.PGRepo{DB: app.DB}
	} else {
		repo = analyses.NewMemoryRepo()
	}
	if app.Hot != nil {
		app.Cache = analyses.NewCache(repo, app.Hot)
	} else {
		app.Cache = analyses.NewCache(repo, nil)
	}

	app.Service = analyses.NewService(app.Cache, provider.Name(), llm.Bind(provider), cfg.AITimeout)
	app.Store = localstore.New(cfg.UploadDir)
	app.AnalysesHandler = analyses.NewHandler(app.Service,
		middleware.AnalyzeRateLimit(cfg.AnalyzeRateLimitRPS, cfg.AnalyzeRateLimitBurst))
	app.UploadsHandler = uploads.NewHandler(app.Store)

	app.Router = server.NewRouter(server.Options{
		Env:         cfg.Env,
		CORSOrigins: cfg.CORSOrigins,
		Tracing:     cfg.OTelEnabled,
		Routes:      []server.Routes{app.AnalysesHandler, app.UploadsHandler},
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":       cfg.Env,
		"provider":  provider.Name(),
		"storage":   storageKind(app.DB),
		"hot_cache": app.Hot != nil,
	})
	return app, nil
}

// NewProvider constructs the completion backend selected by AI_PROVIDER.
func NewProvider(ctx context.Context, cfg config.Config) (llm.Provider, error) {
	name, err := llm.ParseProviderName(cfg.AIProvider)
	if err != nil {
		return nil, err
	}
	settings := cfg.ProviderSettings(name)

	var provider llm.Provider
	switch name {
	case llm.ProviderOpenAI:
		provider, err = openai.New(settings)
	case llm.ProviderAnthropic:
		provider, err = anthropic.New(settings)
	case llm.ProviderGemini:
		provider, err = gemini.New(ctx, settings)
	default:
		err = fmt.Errorf("unsupported AI provider %q", name)
	}
	if err != nil {
		return nil, fmt.Errorf("configure %s provider: %w", name, err)
	}
	return provider, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.Env == "production" {
			return nil, errors.New("DATABASE_URL is required")
		}
		telemetry.Warn("bootstrap.memory_store", map[string]any{"reason": "DATABASE_URL empty"})
		return nil, nil
	}

	opts := db.DefaultServerOptions().Merge(db.Options{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		PingTimeout:     cfg.DBPingTimeout,
	})
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

// Close waits for background access updates and releases every resource.
func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	if a.Cache != nil {
		a.Cache.Wait()
	}
	var errs []error
	if a.Hot != nil {
		errs = append(errs, a.Hot.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	if a.shutdownTracing != nil {
		errs = append(errs, a.shutdownTracing(ctx))
	}
	return errors.Join(errs...)
}

func storageKind(sqlDB *sql.DB) string {
	if sqlDB != nil {
		return "postgres"
	}
	return "memory"
}
