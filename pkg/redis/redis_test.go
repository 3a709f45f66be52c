package redis

import (
	"context"
	"testing"

	"github.com/sidkm/sift/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(Disabled(), "test")

	// When Redis is disabled, all requests should be allowed
	allowed, remaining, err := limiter.Allow(context.Background(), ChartinkRateLimit)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !allowed {
		t.Error("Expected request to be allowed when Redis disabled")
	}
	if remaining != ChartinkRateLimit.Limit {
		t.Errorf("Expected remaining = %d, got %d", ChartinkRateLimit.Limit, remaining)
	}
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(Disabled(), "test")

	// When Redis is disabled, cache operations should be no-ops
	var result string
	found, err := cache.Get(context.Background(), "key", &result)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Expected cache miss when Redis disabled")
	}

	if err := cache.Set(context.Background(), "key", "value", TTLQuery); err != nil {
		t.Errorf("Set() error = %v", err)
	}
}

func TestQueryKey(t *testing.T) {
	// Whitespace and case differences must normalize to the same key
	a := QueryKey("( {cash} ( latest close > 100 ) )", 50)
	b := QueryKey("  ( {CASH} ( latest  close > 100 ) )  ", 50)
	if a != b {
		t.Errorf("expected normalized keys to match: %q vs %q", a, b)
	}

	// Different limits produce different keys
	c := QueryKey("( {cash} ( latest close > 100 ) )", 25)
	if a == c {
		t.Error("expected limit to be part of the key")
	}
}

func TestHistoryKey(t *testing.T) {
	if got := HistoryKey("^NSEI", 30); got != "history:^NSEI:30" {
		t.Errorf("got %q", got)
	}
}
