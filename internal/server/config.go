package server

import (
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Port               int
	DatabaseURL        string
	RoomIdleTimeout    time.Duration
	CleanupInterval    time.Duration
	ExchangeDelay      time.Duration
	RateLimitPerSecond int
	LogLevel           string
	AppEnv             string
}

func DefaultConfig() Config {
	return Config{
		Port:               8080,
		RoomIdleTimeout:    2 * time.Hour,
		CleanupInterval:    5 * time.Minute,
		ExchangeDelay:      3 * time.Second,
		RateLimitPerSecond: 10,
		LogLevel:           "info",
		AppEnv:             "production",
	}
}

// LoadConfig reads the environment (and .env, if present) over the defaults.
// Values that fail to parse keep their default and are reported back so the
// caller can log them once a logger exists.
func LoadConfig() (Config, []error) {
	cfg := DefaultConfig()
	var problems []error

	intVar := func(key string, dst *int) {
		raw, ok := os.LookupEnv(key)
		if !ok || raw == "" {
			return
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			problems = append(problems, fmt.Errorf("%s=%q is not a positive integer, using %d", key, raw, *dst))
			return
		}
		*dst = v
	}

	durationVar := func(key string, dst *time.Duration, allowZero bool) {
		raw, ok := os.LookupEnv(key)
		if !ok || raw == "" {
			return
		}
		v, err := time.ParseDuration(raw)
		if err != nil || v < 0 || (v == 0 && !allowZero) {
			problems = append(problems, fmt.Errorf("%s=%q is not a valid duration, using %s", key, raw, *dst))
			return
		}
		*dst = v
	}

	intVar("PORT", &cfg.Port)
	intVar("RATE_LIMIT_PER_SECOND", &cfg.RateLimitPerSecond)
	durationVar("ROOM_IDLE_TIMEOUT", &cfg.RoomIdleTimeout, false)
	durationVar("CLEANUP_INTERVAL", &cfg.CleanupInterval, false)
	durationVar("EXCHANGE_DELAY", &cfg.ExchangeDelay, true)

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.AppEnv = v
	}

	return cfg, problems
}

func (c Config) Development() bool {
	return c.AppEnv == "development"
}
