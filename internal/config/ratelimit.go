package config

import (
	"strconv"
	"time"
)

// RateLimitConfig drives the fixed-window request limiter. Limit requests
// are allowed per Window for each client key; Prefix namespaces the Redis
// counters.
type RateLimitConfig struct {
	Enabled bool
	Limit   int
	Window  time.Duration
	Prefix  string
}

// LoadRateLimitConfig builds a RateLimitConfig from environment variables,
// falling back to 60 requests per minute. Nonsensical values are clamped
// so the limiter never divides by zero or blocks everything outright.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled: getenv("RATE_LIMIT_ENABLED", "true") == "true",
		Limit:   atoi(getenv("RATE_LIMIT_REQUESTS", "60")),
		Window:  parseWindow(getenv("RATE_LIMIT_WINDOW", "1m")),
		Prefix:  getenv("RATE_LIMIT_PREFIX", "rl"),
	}
	if cfg.Limit < 1 {
		cfg.Limit = 1
	}
	return cfg
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func parseWindow(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}
