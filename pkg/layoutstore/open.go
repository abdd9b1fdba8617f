package layoutstore

import (
	"context"

	"github.com/matzehuels/micograph/pkg/cache"
	"github.com/matzehuels/micograph/pkg/errors"
)

// Options select and configure a backend.
type Options struct {
	Backend    string      // file (default), mongo, sqlite or none
	Cache      cache.Cache // file backend storage
	Keyer      cache.Keyer
	SQLitePath string
	Mongo      MongoConfig
}

// Open creates the configured store.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendFile:
		if opts.Cache == nil {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "file layout store needs a cache")
		}
		return NewCacheStore(opts.Cache, opts.Keyer), nil
	case BackendSQLite:
		if opts.SQLitePath == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "sqlite layout store needs a path")
		}
		s, err := NewSQLiteStore(ctx, opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendMongo:
		if opts.Mongo.URI == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "mongo layout store needs a uri")
		}
		s, err := NewMongoStore(ctx, opts.Mongo)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendNone:
		return NullStore{}, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown layout backend %q", opts.Backend)
}
