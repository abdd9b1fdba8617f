package layoutstore

import (
	"context"

	"github.com/matzehuels/micograph/pkg/cache"
	"github.com/matzehuels/micograph/pkg/graph"
)

// CacheStore keeps layouts as JSON cache entries without expiry.
type CacheStore struct {
	cache cache.Cache
	keyer cache.Keyer
}

// NewCacheStore stores layouts in c. A nil keyer uses the default layout.
func NewCacheStore(c cache.Cache, keyer cache.Keyer) *CacheStore {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &CacheStore{cache: c, keyer: keyer}
}

func (s *CacheStore) key(root string) (string, error) {
	view, rootID, err := splitRoot(root)
	if err != nil {
		return "", err
	}
	return s.keyer.LayoutKey(view, rootID), nil
}

func (s *CacheStore) Load(ctx context.Context, root string) (graph.Layout, error) {
	key, err := s.key(root)
	if err != nil {
		return graph.Layout{}, err
	}
	var l graph.Layout
	ok, err := cache.GetJSON(ctx, s.cache, key, &l)
	if err != nil {
		return graph.Layout{}, err
	}
	if !ok {
		return graph.Layout{}, notFound(root)
	}
	return l, nil
}

func (s *CacheStore) Save(ctx context.Context, l graph.Layout) error {
	if err := stamp(&l); err != nil {
		return err
	}
	key, _ := s.key(l.Root)
	return cache.SetJSON(ctx, s.cache, key, l, cache.LayoutTTL)
}

func (s *CacheStore) Delete(ctx context.Context, root string) error {
	key, err := s.key(root)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, key)
}

// Close leaves the cache open; it belongs to the caller.
func (s *CacheStore) Close() error { return nil }
