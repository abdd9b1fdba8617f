package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	merrors "github.com/matzehuels/micograph/pkg/errors"
)

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	base := errors.New("boom")
	err := Retryable(base)
	if !IsRetryable(err) {
		t.Error("IsRetryable should be true for a wrapped error")
	}
	if !errors.Is(err, base) {
		t.Error("wrapped error should unwrap to its cause")
	}
	if IsRetryable(base) {
		t.Error("IsRetryable should be false for a plain error")
	}
}

func TestRetry(t *testing.T) {
	ctx := context.Background()
	permanent := errors.New("permanent")

	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   bool
	}{
		{"success", 0, nil, 1, false},
		{"permanent stops", 5, permanent, 1, true},
		{"transient recovers", 2, Retryable(errors.New("flaky")), 3, false},
		{"transient exhausts", 5, Retryable(errors.New("flaky")), 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Retry(ctx, 3, time.Millisecond, func() error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRetryContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, 3, time.Hour, func() error { return Retryable(errors.New("x")) })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		status    int
		wantCode  merrors.Code
		retryable bool
	}{
		{http.StatusOK, "", false},
		{http.StatusNoContent, "", false},
		{http.StatusNotFound, merrors.ErrCodeNotFound, false},
		{http.StatusConflict, merrors.ErrCodeConflict, false},
		{http.StatusBadRequest, merrors.ErrCodeInvalidInput, false},
		{http.StatusTooManyRequests, merrors.ErrCodeRateLimited, true},
		{http.StatusBadGateway, merrors.ErrCodeNetwork, true},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		resp, err := NewClient(time.Second).Get(srv.URL + "/services/a/1")
		if err != nil {
			t.Fatal(err)
		}
		err = CheckStatus(resp)
		resp.Body.Close()
		srv.Close()

		if got := merrors.GetCode(err); got != tt.wantCode {
			t.Errorf("status %d: code = %q, want %q", tt.status, got, tt.wantCode)
		}
		if IsRetryable(err) != tt.retryable {
			t.Errorf("status %d: retryable = %v, want %v", tt.status, IsRetryable(err), tt.retryable)
		}
	}
}

func TestTransportError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want merrors.Code
	}{
		{"deadline", context.DeadlineExceeded, merrors.ErrCodeTimeout},
		{"refused", errors.New("connection refused"), merrors.ErrCodeNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := TransportError(tt.err, "GET %s", "/services")
			if got := merrors.GetCode(err); got != tt.want {
				t.Errorf("code = %v, want %v", got, tt.want)
			}
			if !IsRetryable(err) {
				t.Error("transport errors should be retryable")
			}
			if !errors.Is(err, tt.err) {
				t.Error("cause not preserved")
			}
		})
	}
}
