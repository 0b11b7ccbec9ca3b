package config

import (
	"os"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr                string
	ShutdownTimeout     time.Duration
	HealthProbeInterval time.Duration
	Redis               RedisConfig
}

// RedisConfig holds connection settings for the optional Redis-backed
// response cache. An empty URL means Redis is not configured and the
// in-memory cache is used instead.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("URBANCLEAR_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	probeInterval := time.Minute
	if raw := os.Getenv("HEALTH_PROBE_INTERVAL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			probeInterval = d
		}
	}

	return Server{
		Addr:                addr,
		ShutdownTimeout:     10 * time.Second,
		HealthProbeInterval: probeInterval,
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}
}
