package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskora/internal/config"
	"taskora/internal/db"
	httpServer "taskora/internal/http"
	"taskora/internal/logger"
	"taskora/internal/repository"
	"taskora/internal/service"
	"taskora/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore := openStore(ctx, cfg)
	defer closeStore()

	hub := ws.NewHub()
	var events service.EventPublisher = hub

	rdb := db.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if rdb != nil {
		defer rdb.Close()
		// the relay broadcasts on the hub itself; Redis only carries events
		// to and from other instances
		relay := ws.NewRedisRelay(rdb, ws.DefaultRelayChannel, hub)
		events = relay
		go func() {
			if err := relay.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("cross-instance event relay stopped, local feed unaffected", "error", err)
			}
		}()
	}

	tasks, err := service.NewTaskService(store, events)
	if err != nil {
		logger.Fatal("task service", "error", err)
	}

	opts := httpServer.Options{
		Version:        cfg.AppVersion,
		RateLimit:      cfg.APIRateLimit,
		RateWindow:     cfg.APIRateWindow,
		Redis:          rdb,
		AllowedOrigins: cfg.AllowedOrigins,
	}
	if cfg.AuthEnabled() {
		jwtManager, err := service.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
		if err != nil {
			logger.Fatal("jwt manager", "error", err)
		}
		opts.Auth = jwtManager
		logger.Info("bearer auth enabled for mutations")
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	httpServer.RegisterRoutes(r, tasks, hub, opts)

	// CORS for the browser and console clients
	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           c.Handler(r),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "store", cfg.StoreDriver, "version", cfg.AppVersion)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited")
}

// openStore connects the backend named by STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config) (service.TaskStore, func()) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool := db.Connect(cfg.DatabaseURL)
		return repository.NewTaskRepository(pool), pool.Close

	case config.DriverMongo:
		client := db.ConnectMongo(cfg.MongoURI)
		repo := repository.NewMongoTaskRepository(client, cfg.MongoDatabase)

		idxCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := repo.EnsureIndexes(idxCtx); err != nil {
			logger.Fatal("mongo indexes", "error", err)
		}
		return repo, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(closeCtx)
		}

	default:
		logger.Warn("using in-memory task store; data is lost on restart")
		return repository.NewMemoryTaskRepository(), func() {}
	}
}
