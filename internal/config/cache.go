package config

import (
	"os"
	"time"
)

// CacheConfig controls the note entity cache. When Enabled is false or no
// Redis client could be constructed, note reads and writes go straight to
// the database. TTL bounds how long a cached note may lag a write performed
// by another process. Prefix namespaces keys so the cache can be shared
// with other resource kinds without id collisions.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// Defaults are used when variables are not set. Cached notes live for 24
// hours unless CACHE_TTL overrides it.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled: getenv("CACHE_ENABLED", "true") == "true",
		TTL:     parseDur(getenv("CACHE_TTL", "24h")),
		Prefix:  getenv("CACHE_PREFIX", "note"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}
