// Package layoutstore persists the node positions users choose, so that a
// dependency view looks the same after a restart.
//
// Backends:
//   - [CacheStore]: on top of any pkg/cache backend (file or Redis)
//   - [SQLiteStore]: a local database file
//   - [MongoStore]: a shared MongoDB collection
package layoutstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/micograph/pkg/errors"
	"github.com/matzehuels/micograph/pkg/graph"
)

// Store loads and saves view layouts by root, "<view>:<rootID>".
//
// Load returns an error with code LAYOUT_NOT_FOUND for unknown roots.
type Store interface {
	Load(ctx context.Context, root string) (graph.Layout, error)
	Save(ctx context.Context, l graph.Layout) error
	Delete(ctx context.Context, root string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
	BackendNone   = "none"
)

func notFound(root string) error {
	return errors.New(errors.ErrCodeLayoutNotFound, "no layout for %s", root)
}

// IsNotFound reports whether err means the layout does not exist.
func IsNotFound(err error) bool { return errors.Is(err, errors.ErrCodeLayoutNotFound) }

func splitRoot(root string) (view, rootID string, err error) {
	view, rootID, ok := strings.Cut(root, ":")
	if !ok || view == "" || rootID == "" {
		return "", "", errors.New(errors.ErrCodeInvalidInput, "layout root %q is not <view>:<id>", root)
	}
	return view, rootID, nil
}

// stamp fills UpdatedAt and validates the root.
func stamp(l *graph.Layout) error {
	if _, _, err := splitRoot(l.Root); err != nil {
		return err
	}
	if l.UpdatedAt.IsZero() {
		l.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// NullStore forgets everything.
type NullStore struct{}

func (NullStore) Load(_ context.Context, root string) (graph.Layout, error) {
	return graph.Layout{}, notFound(root)
}
func (NullStore) Save(context.Context, graph.Layout) error { return nil }
func (NullStore) Delete(context.Context, string) error     { return nil }
func (NullStore) Close() error                             { return nil }

// LoadOrEmpty is Load with a missing layout turned into an empty one.
func LoadOrEmpty(ctx context.Context, s Store, root string) (graph.Layout, error) {
	l, err := s.Load(ctx, root)
	if IsNotFound(err) {
		return graph.Layout{Root: root}, nil
	}
	if err != nil {
		return graph.Layout{}, fmt.Errorf("load layout %s: %w", root, err)
	}
	return l, nil
}
