// Package api is a client for the MICO REST API.
//
// The client implements the snapshot source and the dependee client of the
// reconcile package. GET responses are written through to a cache; when the
// API cannot be reached the last cached response is served instead, so
// renders keep working offline.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/micograph/pkg/buildinfo"
	"github.com/matzehuels/micograph/pkg/cache"
	"github.com/matzehuels/micograph/pkg/errors"
	"github.com/matzehuels/micograph/pkg/httputil"
)

// DefaultBaseURL is the local mico-core address.
const DefaultBaseURL = "http://localhost:8080/"

const cacheNamespace = "api"

// Options configure a Client.
type Options struct {
	BaseURL  string        // API root; DefaultBaseURL if empty
	Timeout  time.Duration // per request; httputil.DefaultTimeout if zero
	Attempts int           // tries per request; 3 if zero
	Backoff  time.Duration // initial retry delay; 1s if zero
	Cache    cache.Cache   // response cache; NullCache if nil
	Keyer    cache.Keyer   // cache key layout; DefaultKeyer if nil
	Offline  bool          // serve from the cache only
	Logger   *log.Logger
}

// Client talks to mico-core.
type Client struct {
	base     *url.URL
	http     *http.Client
	cache    cache.Cache
	keyer    cache.Keyer
	attempts int
	backoff  time.Duration
	offline  bool
	logger   *log.Logger
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	raw := opts.BaseURL
	if raw == "" {
		raw = DefaultBaseURL
	}
	if err := errors.ValidateURL(raw); err != nil {
		return nil, err
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "api base url")
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	c := &Client{
		base:     base,
		http:     httputil.NewClient(opts.Timeout),
		cache:    opts.Cache,
		keyer:    opts.Keyer,
		attempts: opts.Attempts,
		backoff:  opts.Backoff,
		offline:  opts.Offline,
		logger:   opts.Logger,
	}
	if c.cache == nil {
		c.cache = cache.NewNullCache()
	}
	if c.keyer == nil {
		c.keyer = cache.NewDefaultKeyer()
	}
	if c.attempts <= 0 {
		c.attempts = 3
	}
	if c.backoff <= 0 {
		c.backoff = time.Second
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	return c, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.base.String() }

func (c *Client) resolve(segments ...string) string {
	return c.base.JoinPath(segments...).String()
}

// getJSON fetches segments into v. A successful response is cached; a
// failed fetch falls back to the cache unless the API answered 404.
func (c *Client) getJSON(ctx context.Context, v any, segments ...string) error {
	key := c.keyer.HTTPKey(cacheNamespace, strings.Join(segments, "/"))
	if c.offline {
		ok, err := cache.GetJSON(ctx, c.cache, key, v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "read cache")
		}
		if !ok {
			return errors.New(errors.ErrCodeNotFound, "%s not cached", strings.Join(segments, "/"))
		}
		return nil
	}

	var body []byte
	err := httputil.Retry(ctx, c.attempts, c.backoff, func() error {
		var err error
		body, _, err = c.do(ctx, http.MethodGet, c.resolve(segments...))
		return err
	})
	if err != nil {
		if errors.HTTPStatus(err) == http.StatusNotFound {
			return err
		}
		if ok, _ := cache.GetJSON(ctx, c.cache, key, v); ok {
			c.logger.Warn("api unreachable, serving cached response", "path", strings.Join(segments, "/"), "err", err)
			return nil
		}
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s", strings.Join(segments, "/"))
	}
	if err := c.cache.Set(ctx, key, body, cache.HTTPTTL); err != nil {
		c.logger.Debug("cache write failed", "key", key, "err", err)
	}
	return nil
}

// send performs a mutating request. A 5xx answer may mean the change was
// applied, so only connection failures are retried.
func (c *Client) send(ctx context.Context, method string, segments ...string) error {
	if c.offline {
		return errors.New(errors.ErrCodeUnsupported, "%s not possible offline", method)
	}
	return httputil.Retry(ctx, c.attempts, c.backoff, func() error {
		_, status, err := c.do(ctx, method, c.resolve(segments...))
		if status >= 500 {
			return httputil.Permanent(err)
		}
		return err
	})
}

// do performs one request and returns the body and status. Connection
// failures are retryable and report status 0.
func (c *Client) do(ctx context.Context, method, target string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, http.NoBody)
	if err != nil {
		return nil, 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, httputil.TransportError(err, "%s %s", method, req.URL.Path)
	}
	defer resp.Body.Close()
	if err := httputil.CheckStatus(resp); err != nil {
		return nil, resp.StatusCode, err
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "read %s", req.URL.Path))
	}
	return body, resp.StatusCode, nil
}
