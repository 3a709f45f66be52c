package redis

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Cache provides typed caching utilities on top of the shared client
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

// Get retrieves a cached value. Returns (false, nil) on a miss or when
// Redis is disabled.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	fullKey := fmt.Sprintf("%s:cache:%s", c.prefix, key)
	data, err := c.client.Redis().Get(ctx, fullKey).Bytes()
	if err != nil {
		// Key not found is not an error
		return false, nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	fullKey := fmt.Sprintf("%s:cache:%s", c.prefix, key)
	return c.client.Redis().Set(ctx, fullKey, data, ttl).Err()
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}

	fullKey := fmt.Sprintf("%s:cache:%s", c.prefix, key)
	return c.client.Redis().Del(ctx, fullKey).Err()
}

// Predefined TTLs
const (
	TTLQuery   = 45 * time.Second // screener query results
	TTLSession = 10 * time.Minute // scraper session tokens
	TTLHistory = 1 * time.Hour    // index / symbol history
)

// QueryKey builds a cache key from a screener query string.
// Queries are long free-form filter expressions, so they are normalized
// and hashed instead of embedded verbatim.
func QueryKey(query string, limit int) string {
	norm := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	sum := sha1.Sum([]byte(norm))
	return fmt.Sprintf("screener:query:%s:%d", hex.EncodeToString(sum[:8]), limit)
}

// HistoryKey builds a cache key for symbol history lookups
func HistoryKey(symbol string, days int) string {
	return fmt.Sprintf("history:%s:%d", symbol, days)
}
