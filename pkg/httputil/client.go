package httputil

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/matzehuels/micograph/pkg/errors"
	"github.com/matzehuels/micograph/pkg/observability"
)

// DefaultTimeout bounds a single API request.
const DefaultTimeout = 10 * time.Second

// NewClient returns a client with the given timeout (DefaultTimeout if
// zero) whose requests are reported to the HTTP hooks.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &observedTransport{next: http.DefaultTransport},
	}
}

type observedTransport struct {
	next http.RoundTripper
}

func (t *observedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, method, host, path := req.Context(), req.Method, req.URL.Host, req.URL.Path
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, method, host, path)
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		hooks.OnError(ctx, method, host, path, err)
		return nil, err
	}
	hooks.OnResponse(ctx, method, host, path, resp.StatusCode, time.Since(start))
	return resp, nil
}

// TransportError wraps a request that got no response. Timeouts are coded
// TIMEOUT and everything else NETWORK_ERROR; both are retryable.
func TransportError(err error, format string, args ...any) error {
	code := errors.ErrCodeNetwork
	var ne net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &ne) && ne.Timeout()) {
		code = errors.ErrCodeTimeout
	}
	return Retryable(errors.Wrap(code, err, format, args...))
}

// CheckStatus converts a non-2xx response into a coded error. Server
// errors and 429 are retryable. The body is drained but not closed.
func CheckStatus(resp *http.Response) error {
	code := resp.StatusCode
	if code >= 200 && code < 300 {
		return nil
	}
	msg := readMessage(resp.Body)
	switch {
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "%s %s: not found", resp.Request.Method, resp.Request.URL.Path)
	case code == http.StatusConflict:
		return errors.New(errors.ErrCodeConflict, "%s", msg)
	case code == http.StatusTooManyRequests:
		return Retryable(errors.New(errors.ErrCodeRateLimited, "status %d", code))
	case code >= 500:
		return Retryable(errors.New(errors.ErrCodeNetwork, "status %d: %s", code, msg))
	case code >= 400:
		return errors.New(errors.ErrCodeInvalidInput, "status %d: %s", code, msg)
	}
	return errors.New(errors.ErrCodeNetwork, "unexpected status %d", code)
}

func readMessage(body io.Reader) string {
	if body == nil {
		return ""
	}
	data, _ := io.ReadAll(io.LimitReader(body, 512))
	if len(data) == 0 {
		return "no body"
	}
	return fmt.Sprintf("%q", data)
}
