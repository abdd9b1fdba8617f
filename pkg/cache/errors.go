package cache

import "errors"

// ErrCacheMiss is returned by helpers that require an entry to exist.
var ErrCacheMiss = errors.New("cache miss")

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown cache backend")
