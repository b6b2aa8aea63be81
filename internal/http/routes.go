package http

import (
	"time"

	"taskora/internal/http/handlers"
	"taskora/internal/http/middleware"
	"taskora/internal/service"
	"taskora/internal/ws"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

type Options struct {
	Version        string
	RateLimit      int
	RateWindow     time.Duration
	Redis          *redis.Client // nil falls back to the in-memory limiter
	Auth           middleware.TokenParser
	AllowedOrigins []string
}

func RegisterRoutes(r *gin.Engine, tasks *service.TaskService, hub *ws.Hub, opts Options) {
	r.Use(middleware.RequestLogger(), middleware.Metrics())

	taskHandler := handlers.NewTaskHandler(tasks)
	healthHandler := handlers.NewHealthHandler(tasks, hub, opts.Version)

	// Health checks (no rate limiting)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	api := r.Group("/api")
	api.GET("/health", healthHandler.Health)

	var wsAuth ws.TokenParser
	if opts.Auth != nil {
		wsAuth = opts.Auth
	}
	api.GET("/ws", ws.HandleWS(hub, opts.AllowedOrigins, wsAuth))

	limited := api.Group("/tasks", rateLimiter(opts))
	limited.GET("", taskHandler.List)
	limited.GET("/:id", taskHandler.Get)

	writes := limited.Group("")
	if opts.Auth != nil {
		writes.Use(middleware.JWT(opts.Auth))
	}
	writes.POST("", taskHandler.Create)
	writes.PUT("/:id", taskHandler.Update)
	writes.DELETE("/:id", taskHandler.Delete)
}

func rateLimiter(opts Options) gin.HandlerFunc {
	limit, window := opts.RateLimit, opts.RateWindow
	if limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if window <= 0 {
		window = time.Minute
	}
	if opts.Redis != nil {
		return middleware.RedisRateLimit(opts.Redis, "api", limit, window)
	}
	return middleware.NewMemoryRateLimiter(limit, window).Middleware("api")
}
