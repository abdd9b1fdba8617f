// Package cache stores raw bytes under string keys for the API client, the
// layout store and the render pipeline.
//
// Three backends implement [Cache]:
//   - [FileCache]: one JSON file per key, used by the CLI
//   - [RedisCache]: shared cache for several server instances
//   - [NullCache]: disables caching
//
// Keys are built by a [Keyer] so that every component agrees on the key
// layout. Wrap a keyer with [NewScopedKeyer] to isolate tenants or
// environments sharing one backend.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Cache is a byte store with per-entry expiration.
//
// Get reports a miss as (nil, false, nil). Expired entries are misses.
// A ttl of 0 passed to Set never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Default TTLs per entry kind.
const (
	HTTPTTL     = 10 * time.Minute
	GraphTTL    = time.Hour
	ArtifactTTL = 24 * time.Hour
	LayoutTTL   = 0
)

// GetJSON reads key and unmarshals it into v.
// A corrupt entry is reported as a miss.
func GetJSON(ctx context.Context, c Cache, key string, v any) (bool, error) {
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, nil
	}
	return true, nil
}

// SetJSON marshals v and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}

// Keyer builds cache keys.
type Keyer interface {
	// HTTPKey is the key of a raw API response.
	HTTPKey(namespace, key string) string
	// GraphKey is the key of a service dependency graph snapshot.
	GraphKey(shortName, version string) string
	// ApplicationKey is the key of an application snapshot.
	ApplicationKey(shortName, version string) string
	// LayoutKey is the key of the user layout of one view root.
	LayoutKey(view, rootID string) string
	// ArtifactKey is the key of a rendered artifact.
	ArtifactKey(graphHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the render options that change an artifact.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	View     string  `json:"view"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	ZoomMode string  `json:"zoom_mode,omitempty"`
	Style    string  `json:"style,omitempty"`
}

// DefaultKeyer is the plain key layout.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the plain key layout.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

func (DefaultKeyer) GraphKey(shortName, version string) string {
	return "graph:" + shortName + ":" + version
}

func (DefaultKeyer) ApplicationKey(shortName, version string) string {
	return "application:" + shortName + ":" + version
}

func (DefaultKeyer) LayoutKey(view, rootID string) string {
	return "layout:" + view + ":" + rootID
}

func (DefaultKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", graphHash, opts)
}
