package cache

import (
	"time"
)

// CacheService represents a generic cache service. Two things live in it:
// per-brand fetch rate-limit blocks and vision-classifier verdicts.
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}

// RateLimitKey builds the cache key for a brand's fetch block
func RateLimitKey(brand string) string {
	return "ratelimit:" + brand
}

// VerdictKey builds the cache key for a classifier verdict on an image URL
func VerdictKey(imageURL string) string {
	return "verdict:" + imageURL
}
