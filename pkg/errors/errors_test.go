package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			"message only",
			New(ErrCodeServiceNotFound, "service %s not found", "auth:1.0.0"),
			"SERVICE_NOT_FOUND: service auth:1.0.0 not found",
		},
		{
			"with cause",
			Wrap(ErrCodeNetwork, errors.New("connection refused"), "GET /services/auth/1.0.0"),
			"NETWORK_ERROR: GET /services/auth/1.0.0: connection refused",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Wrap(ErrCodeTimeout, cause, "poll dependees")

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if New(ErrCodeInternal, "x").Cause != nil {
		t.Error("New should not set a cause")
	}
}

func TestCodeLookup(t *testing.T) {
	inner := New(ErrCodeInvalidVersion, "bad version")
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"coded", inner, ErrCodeInvalidVersion},
		{"outermost wins", Wrap(ErrCodeNetwork, inner, "fetch"), ErrCodeNetwork},
		{"fmt wrapped", fmt.Errorf("load: %w", inner), ErrCodeInvalidVersion},
		{"plain", errors.New("plain"), ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %q, want %q", got, tt.want)
			}
			if tt.want != "" && !Is(tt.err, tt.want) {
				t.Errorf("Is(err, %s) = false, want true", tt.want)
			}
			if Is(tt.err, "") {
				t.Error(`Is(err, "") = true, want false`)
			}
		})
	}
}

func TestGetCodeOr(t *testing.T) {
	if got := GetCodeOr(errors.New("plain"), ErrCodeInternal); got != ErrCodeInternal {
		t.Errorf("GetCodeOr(plain) = %v, want %v", got, ErrCodeInternal)
	}
	if got := GetCodeOr(New(ErrCodeConflict, "x"), ErrCodeInternal); got != ErrCodeConflict {
		t.Errorf("GetCodeOr(coded) = %v, want %v", got, ErrCodeConflict)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"coded", New(ErrCodeInvalidNodeID, "node id must not be empty"), "node id must not be empty"},
		{"coded with cause", Wrap(ErrCodeNetwork, errors.New("eof"), "read body"), "read body"},
		{"plain", errors.New("something broke"), "something broke"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{ErrCodeInvalidShortName, http.StatusBadRequest},
		{ErrCodeInvalidFormat, http.StatusBadRequest},
		{ErrCodeServiceNotFound, http.StatusNotFound},
		{ErrCodeLayoutNotFound, http.StatusNotFound},
		{ErrCodeConflict, http.StatusConflict},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeNetwork, http.StatusBadGateway},
		{ErrCodeTimeout, http.StatusGatewayTimeout},
		{ErrCodeNotInitialized, http.StatusServiceUnavailable},
		{ErrCodeUnsupported, http.StatusNotImplemented},
		{ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := HTTPStatus(New(tt.code, "x")); got != tt.want {
				t.Errorf("HTTPStatus(%s) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
	if got := HTTPStatus(errors.New("plain")); got != http.StatusInternalServerError {
		t.Errorf("HTTPStatus(plain) = %d, want 500", got)
	}
}
