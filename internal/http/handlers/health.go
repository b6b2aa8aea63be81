package handlers

import (
	"context"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"taskora/internal/logger"

	"github.com/gin-gonic/gin"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// FeedStats is satisfied by ws.Hub.
type FeedStats interface {
	ClientCount() int
}

type HealthHandler struct {
	store   Pinger
	feed    FeedStats
	started time.Time
	version string
}

// NewHealthHandler reports on store and, when feed is non-nil, on the event feed.
func NewHealthHandler(store Pinger, feed FeedStats, version string) *HealthHandler {
	return &HealthHandler{
		store:   store,
		feed:    feed,
		started: time.Now(),
		version: version,
	}
}

type ReadinessResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version,omitempty"`
	Uptime    string            `json:"uptime"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// Liveness answers as long as the process serves HTTP.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness fails with 503 while the task store is unreachable.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{"store": "healthy"}
	code := http.StatusOK
	status := "ready"

	if err := h.store.Ping(ctx); err != nil {
		logger.WithContext(ctx).Warn("readiness: store ping failed", "error", err)
		checks["store"] = "unhealthy"
		code = http.StatusServiceUnavailable
		status = "not_ready"
	}
	if h.feed != nil {
		checks["feed_clients"] = strconv.Itoa(h.feed.ClientCount())
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	checks["heap_alloc_mb"] = strconv.FormatFloat(float64(m.HeapAlloc)/(1<<20), 'f', 2, 64)
	checks["goroutines"] = strconv.Itoa(runtime.NumGoroutine())

	c.JSON(code, ReadinessResponse{
		Status:    status,
		Version:   h.version,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}

// Health is the API's own health endpoint: ok when the store answers.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		logger.WithContext(ctx).Error("health: store ping failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"message": "store unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": h.version,
	})
}
