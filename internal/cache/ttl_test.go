package cache

import (
	"testing"
	"time"

	"crypto-signal-scanner/internal/keylevels"
)

func TestTTLCacheGetSet(t *testing.T) {
	clock := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)
	c := NewTTLCache(time.Hour, func() time.Time { return clock })

	if _, ok := c.Get("BTCUSDT"); ok {
		t.Error("empty cache must miss")
	}

	levels := keylevels.Levels{keylevels.KeyPOCWeekly: 50000}
	c.Set("BTCUSDT", levels)

	got, ok := c.Get("BTCUSDT")
	if !ok {
		t.Fatal("expected a hit before expiry")
	}
	if got[keylevels.KeyPOCWeekly] != 50000 {
		t.Errorf("got %v, want 50000", got[keylevels.KeyPOCWeekly])
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	clock := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)
	c := NewTTLCache(time.Hour, func() time.Time { return clock })

	c.Set("BTCUSDT", keylevels.Levels{keylevels.KeyVAH: 51000})

	clock = clock.Add(59 * time.Minute)
	if _, ok := c.Get("BTCUSDT"); !ok {
		t.Error("entry expired too early")
	}

	clock = clock.Add(2 * time.Minute)
	if _, ok := c.Get("BTCUSDT"); ok {
		t.Error("entry must expire after the TTL")
	}
}

func TestTTLCacheCleanupExpired(t *testing.T) {
	clock := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)
	c := NewTTLCache(time.Hour, func() time.Time { return clock })

	c.Set("BTCUSDT", keylevels.Levels{})
	clock = clock.Add(30 * time.Minute)
	c.Set("ETHUSDT", keylevels.Levels{})

	clock = clock.Add(45 * time.Minute)
	c.CleanupExpired()

	if _, ok := c.Get("BTCUSDT"); ok {
		t.Error("expired entry must be removed")
	}
	if _, ok := c.Get("ETHUSDT"); !ok {
		t.Error("live entry must survive cleanup")
	}
}

func TestTTLCacheClear(t *testing.T) {
	c := NewTTLCache(time.Hour, nil)
	c.Set("BTCUSDT", keylevels.Levels{})
	c.Clear()
	if _, ok := c.Get("BTCUSDT"); ok {
		t.Error("cleared cache must miss")
	}
}
