package config

import "time"

// CacheConfig controls the availability response cache. The sale page
// polls availability aggressively, so even a short TTL takes most of
// the read load off the database; bookings invalidate nothing because
// a few seconds of staleness is acceptable on a display-only endpoint.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// LoadCacheConfig reads CACHE_ENABLED, CACHE_TTL and CACHE_PREFIX,
// defaulting to a 5 second cache.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled: envStr("CACHE_ENABLED", "true") == "true",
		TTL:     envDur("CACHE_TTL", 5*time.Second),
		Prefix:  envStr("CACHE_PREFIX", "cache"),
	}
}
