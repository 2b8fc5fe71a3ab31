// Package cache stores serialized graphs and query responses.
//
// The [Cache] interface is byte oriented; [GetJSON] and [SetJSON] handle
// encoding. Three backends are provided:
//
//   - [FileCache]: entries as files under a directory, used by the CLI
//   - [RedisCache]: shared cache for the HTTP server
//   - [NullCache]: never stores anything, used with --no-cache
//
// Keys come from a [Keyer] so that every backend sees the same layout.
// [Instrument] wraps a backend and reports hits, misses and writes to the
// observability cache hooks.
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/matzehuels/lineage/pkg/observability"
)

// Default TTLs.
const (
	// GraphTTL bounds how long a unified graph built from classification
	// files is reused.
	GraphTTL = 24 * time.Hour

	// QueryTTL bounds how long a query response is reused.
	QueryTTL = time.Hour
)

// Cache is a key/value store with per-entry expiry. A ttl of zero means
// the entry does not expire.
type Cache interface {
	// Get returns the stored bytes and true, or nil and false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// GetJSON decodes the entry at key into v. It returns ErrCacheMiss when
// the key is absent. An entry that no longer decodes is deleted and
// reported as a miss.
func GetJSON(ctx context.Context, c Cache, key string, v any) error {
	data, ok, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCacheMiss
	}
	if err := json.Unmarshal(data, v); err != nil {
		_ = c.Delete(ctx, key)
		return ErrCacheMiss
	}
	return nil
}

// SetJSON encodes v and stores it at key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}

// instrumented reports cache traffic to the observability hooks.
type instrumented struct {
	Cache
}

// Instrument wraps c so that every Get and Set is reported through
// observability.Cache(). The key type is the key's prefix up to the first
// colon ("graph", "query", ...).
func Instrument(c Cache) Cache {
	if _, ok := c.(*instrumented); ok {
		return c
	}
	return &instrumented{Cache: c}
}

func (c *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := c.Cache.Get(ctx, key)
	if err == nil {
		if ok {
			observability.Cache().OnCacheHit(ctx, keyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, keyType(key))
		}
	}
	return data, ok, err
}

func (c *instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := c.Cache.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	}
	return err
}

// keyType strips scope prefixes and the hash: "lineage:query:ab12" and
// "query:ab12" both give "query".
func keyType(key string) string {
	parts := strings.Split(key, ":")
	if len(parts) < 2 {
		return "other"
	}
	return parts[len(parts)-2]
}
