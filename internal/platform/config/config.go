package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
	LogLevel        string
	LogFormat       string
	Database        Database
	Redis           RedisConfig
	Audit           Audit
}

// Database selects the store backend. An empty URL runs on the in-memory
// gateway.
type Database struct {
	Driver  string
	URL     string
	Migrate bool
}

// RedisConfig configures the code registry cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CodeCacheTTL time.Duration
}

// Audit configures audit event delivery. Zero buffer delivers synchronously.
type Audit struct {
	Buffer  int
	Persist bool
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:            env("ARHO_ADDR", ":8080"),
		ShutdownTimeout: envDuration("ARHO_SHUTDOWN_TIMEOUT", 10*time.Second),
		LogLevel:        env("ARHO_LOG_LEVEL", "info"),
		LogFormat:       env("ARHO_LOG_FORMAT", "json"),
		Database: Database{
			Driver:  env("ARHO_DB_DRIVER", "pgx"),
			URL:     os.Getenv("ARHO_DB_URL"),
			Migrate: envBool("ARHO_DB_MIGRATE", true),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("ARHO_REDIS_URL"),
			PoolSize:     envInt("ARHO_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("ARHO_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("ARHO_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("ARHO_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("ARHO_REDIS_WRITE_TIMEOUT", 3*time.Second),
			CodeCacheTTL: envDuration("ARHO_CODE_CACHE_TTL", time.Hour),
		},
		Audit: Audit{
			Buffer:  envInt("ARHO_AUDIT_BUFFER", 0),
			Persist: envBool("ARHO_AUDIT_PERSIST", false),
		},
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return fallback
}
