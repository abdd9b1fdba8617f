package cache

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/micograph/pkg/observability"
)

// Observed reports hits, misses and writes of c to the cache hooks.
func Observed(c Cache) Cache { return &observed{Cache: c} }

type observed struct{ Cache }

func (o *observed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := o.Cache.Get(ctx, key)
	if err == nil {
		if ok {
			observability.Cache().OnCacheHit(ctx, KeyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, KeyType(key))
		}
	}
	return data, ok, err
}

func (o *observed) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := o.Cache.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, KeyType(key), len(data))
	}
	return err
}

var keyTypes = []string{"http", "graph", "application", "layout", "artifact"}

// KeyType returns the kind of a key built by a Keyer, ignoring any scope
// prefix, or "other".
func KeyType(key string) string {
	for _, kt := range keyTypes {
		if strings.HasPrefix(key, kt+":") || strings.Contains(key, ":"+kt+":") {
			return kt
		}
	}
	return "other"
}
