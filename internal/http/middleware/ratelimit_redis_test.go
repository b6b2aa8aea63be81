package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	client := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD"), DB: db})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisRateLimit_WindowAndHeaders(t *testing.T) {
	client := redisClient(t)

	// unique scope so reruns do not share counters
	scope := "test-" + strconv.FormatInt(time.Now().UnixNano(), 10)
	limit := 2

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/tasks", RedisRateLimit(client, scope, limit, 2*time.Second), func(c *gin.Context) {
		c.JSON(http.StatusOK, []any{})
	})

	get := func() *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.RemoteAddr = "10.1.2.3:5555"
		r.ServeHTTP(rr, req)
		return rr
	}

	for i := 0; i < limit; i++ {
		rr := get()
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200 got %d", i+1, rr.Code)
		}
		if got := rr.Header().Get("X-RateLimit-Remaining"); got != strconv.Itoa(limit-i-1) {
			t.Fatalf("request %d: remaining=%q", i+1, got)
		}
	}

	rr := get()
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After")
	}
}

func TestRedisRateLimit_FailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond})
	defer client.Close()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/tasks", RedisRateLimit(client, "down", 1, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected fail-open 200 got %d", rr.Code)
		}
		if rr.Header().Get("X-RateLimit-Error") == "" {
			t.Fatalf("missing X-RateLimit-Error header")
		}
	}
}
