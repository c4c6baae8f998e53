package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"career-gap-backend/internal/shared/metrics"
	"career-gap-backend/internal/shared/server/middleware"
	"career-gap-backend/internal/shared/telemetry"
)

// ServiceName identifies the API in traces and logs.
const ServiceName = "career-gap-backend"

// Routes is implemented by feature handlers.
type Routes interface {
	RegisterRoutes(rg gin.IRoutes)
}

type Options struct {
	Env         string
	CORSOrigins []string
	// Tracing mounts otelgin; leave off when no tracer provider is installed.
	Tracing bool
	Routes  []Routes
	// Now is used for the health timestamp and uptime. Defaults to time.Now.
	Now func() time.Time
}

// NewRouter constructs the Gin engine with middleware and routes registered.
// Feature routes are served both at the root and under /api.
func NewRouter(opts Options) *gin.Engine {
	if opts.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	started := now()

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		cors.New(corsConfig(opts.CORSOrigins)),
	)
	if opts.Tracing {
		r.Use(otelgin.Middleware(ServiceName))
	}

	r.GET("/health", func(c *gin.Context) {
		t := now()
		c.JSON(http.StatusOK, gin.H{
			"status":      "OK",
			"timestamp":   t.UTC().Format(time.RFC3339Nano),
			"uptime":      t.Sub(started).Seconds(),
			"environment": opts.Env,
		})
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	for _, routes := range opts.Routes {
		routes.RegisterRoutes(r)
		routes.RegisterRoutes(api)
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, origin := range origins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		switch {
		case origin == "*":
			cfg.AllowAllOrigins = true
			cfg.AllowOrigins = nil
			cfg.AllowCredentials = false
			return cfg
		case strings.HasPrefix(origin, "http://"), strings.HasPrefix(origin, "https://"):
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		case origin != "":
			telemetry.Warn("cors.origin_ignored", map[string]any{"origin": origin})
		}
	}
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = []string{"http://localhost:3000"}
	}
	return cfg
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":5000"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
