package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Timezone names only change when the IANA database moves an airport across
// a boundary, so the cache can live long.
const defaultTTL = 30 * 24 * time.Hour

const connectTimeout = 5 * time.Second

// Connect parses redisURL, creates a client, and verifies connectivity with
// a bounded ping. The cache is optional; callers treat failure as fatal only
// when a REDIS_URL was explicitly configured.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return client, nil
}

// TimezoneCache memoizes resolved IANA zone names per IATA code in Redis,
// saving the polygon lookup across pipeline runs.
type TimezoneCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTimezoneCache constructs a TimezoneCache with the default TTL.
func NewTimezoneCache(client *redis.Client) *TimezoneCache {
	return &TimezoneCache{client: client, ttl: defaultTTL}
}

// key returns the Redis key for the given airport code.
func key(iataCode string) string {
	return "tz:" + strings.ToUpper(strings.TrimSpace(iataCode))
}

// Get retrieves the cached zone name for an airport.
// Returns "", nil on a cache miss (not an error).
func (c *TimezoneCache) Get(ctx context.Context, iataCode string) (string, error) {
	val, err := c.client.Get(ctx, key(iataCode)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("cache get for airport %s: %w", iataCode, err)
	}
	return val, nil
}

// Set stores the zone name for an airport with the configured TTL.
func (c *TimezoneCache) Set(ctx context.Context, iataCode, zoneName string) error {
	if zoneName == "" {
		return nil
	}
	if err := c.client.Set(ctx, key(iataCode), zoneName, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set for airport %s: %w", iataCode, err)
	}
	return nil
}
