package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"taskora/internal/logger"

	"github.com/joho/godotenv"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	AppPort    string
	AppVersion string

	StoreDriver   string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	APIRateLimit  int
	APIRateWindow time.Duration

	JWTSecret string
	JWTTTL    time.Duration

	AllowedOrigins  []string
	LogLevel        string
	LogJSON         bool
	ShutdownTimeout time.Duration
}

// Load reads the process environment, after merging a .env file if present.
func Load() *Config {
	_ = godotenv.Load()

	driver := strings.ToLower(getenv("STORE_DRIVER", DriverMemory))
	switch driver {
	case DriverMemory, DriverPostgres, DriverMongo:
	default:
		logger.Fatal("unknown STORE_DRIVER", "value", driver)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if driver == DriverPostgres && dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	var origins []string
	for _, o := range strings.Split(getenv("ALLOWED_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return &Config{
		AppPort:    getenv("APP_PORT", "5000"),
		AppVersion: getenv("APP_VERSION", "dev"),

		StoreDriver:   driver,
		DatabaseURL:   dbURL,
		MongoURI:      getenv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getenv("MONGODB_DATABASE", "taskmanagement"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       positiveInt("REDIS_DB", 0),

		APIRateLimit:  positiveInt("API_RATE_LIMIT", 120),
		APIRateWindow: time.Duration(positiveInt("API_RATE_WINDOW_SECONDS", 60)) * time.Second,

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTTTL:    time.Duration(positiveInt("JWT_TTL_HOURS", 24)) * time.Hour,

		AllowedOrigins:  origins,
		LogLevel:        getenv("LOG_LEVEL", "info"),
		LogJSON:         os.Getenv("LOG_JSON") == "true",
		ShutdownTimeout: time.Duration(positiveInt("SHUTDOWN_TIMEOUT_SECONDS", 10)) * time.Second,
	}
}

// AuthEnabled reports whether mutations require a bearer token.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// positiveInt falls back to def for unset, malformed or negative values.
func positiveInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		logger.Warn("ignoring invalid integer env", "key", key, "value", v)
		return def
	}
	return n
}
