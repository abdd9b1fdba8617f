// Package server exposes the render pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz
//	GET  /metrics
//	GET  /services/{shortName}/{version}/graph.{format}
//	POST /services/{shortName}/{version}/nodes/{nodeID}/move     {"x": 1, "y": 2}
//	POST /services/{shortName}/{version}/nodes/{nodeID}/version  {"version": "2.0.0"}
//	GET  /applications/{shortName}/{version}/graph.{format}
//
// Graph routes accept the query parameters width, height, detailed and
// refresh. Errors are JSON objects with an error message and code.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/micograph/pkg/errors"
	"github.com/matzehuels/micograph/pkg/pipeline"
)

// RequestIDHeader carries the request id in requests and responses.
const RequestIDHeader = "X-Request-ID"

const shutdownTimeout = 5 * time.Second

// Options configure a Server.
type Options struct {
	Runner *pipeline.Runner
	// Base holds defaults for every request, such as viewport and
	// templates. Per-request values override them.
	Base    pipeline.Options
	Logger  *log.Logger
	Metrics prometheus.Gatherer // prometheus.DefaultGatherer if nil
}

// Server serves rendered dependency graphs.
type Server struct {
	runner *pipeline.Runner
	base   pipeline.Options
	logger *log.Logger
	router chi.Router
}

// New builds the router.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Metrics == nil {
		opts.Metrics = prometheus.DefaultGatherer
	}
	s := &Server{runner: opts.Runner, base: opts.Base, logger: opts.Logger}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "ok\n")
	})
	r.Handle("/metrics", promhttp.HandlerFor(opts.Metrics, promhttp.HandlerOpts{}))

	r.Route("/services/{shortName}/{version}", func(r chi.Router) {
		r.Get("/graph.{format}", s.graph(pipeline.ViewService))
		r.Post("/nodes/{nodeID}/move", s.moveNode)
		r.Post("/nodes/{nodeID}/version", s.changeVersion)
	})
	r.Get("/applications/{shortName}/{version}/graph.{format}", s.graph(pipeline.ViewApplication))

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(sctx)
	}
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) options(r *http.Request, view string) (pipeline.Options, error) {
	opts := s.base
	opts.View = view
	opts.ShortName = chi.URLParam(r, "shortName")
	opts.Version = chi.URLParam(r, "version")
	opts.File = ""
	opts.Logger = s.logger.With("request_id", r.Header.Get(RequestIDHeader))

	q := r.URL.Query()
	for name, dst := range map[string]*float64{"width": &opts.Width, "height": &opts.Height} {
		if v := q.Get(name); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f <= 0 {
				return opts, errors.New(errors.ErrCodeInvalidInput, "invalid %s %q", name, v)
			}
			*dst = f
		}
	}
	opts.Detailed = q.Has("detailed")
	opts.Refresh = q.Has("refresh")
	return opts, nil
}

func (s *Server) graph(view string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := s.options(r, view)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		format := chi.URLParam(r, "format")
		if err := pipeline.ValidateFormat(format); err != nil {
			s.writeError(w, r, err)
			return
		}
		opts.Formats = []string{format}

		res, err := s.runner.Execute(r.Context(), opts)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", pipeline.ContentTypes[format])
		w.Header().Set("X-Cache", cacheHeader(res.CacheInfo.RenderHit))
		if res.SnapshotHash != "" {
			w.Header().Set("ETag", strconv.Quote(res.SnapshotHash))
		}
		_, _ = w.Write(res.Artifacts[format])
	}
}

// MoveRequest is the body of a move request.
type MoveRequest struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

func (s *Server) moveNode(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(r, pipeline.ViewService)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req MoveRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.X == nil || req.Y == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "x and y are required"))
		return
	}

	layout, err := s.runner.MoveNode(r.Context(), opts, chi.URLParam(r, "nodeID"), *req.X, *req.Y)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, layout)
}

// VersionRequest is the body of a version change request.
type VersionRequest struct {
	Version string `json:"version"`
}

func (s *Server) changeVersion(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(r, pipeline.ViewService)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req VersionRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := errors.ValidateVersion(req.Version); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.runner.ChangeVersion(r.Context(), opts, chi.URLParam(r, "nodeID"), req.Version); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Helpers
// =============================================================================

const maxBody = 1 << 16

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}

// ErrorResponse is the body of failed requests.
type ErrorResponse struct {
	Error     string      `json:"error"`
	Code      errors.Code `json:"code"`
	RequestID string      `json:"requestId,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	code := errors.GetCodeOr(err, errors.ErrCodeInternal)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "code", code, "err", err)
	}
	writeJSON(w, status, ErrorResponse{
		Error:     errors.UserMessage(err),
		Code:      code,
		RequestID: r.Header.Get(RequestIDHeader),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}

// requestID keeps a client supplied request id or assigns a new one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
			r.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", r.Header.Get(RequestIDHeader))
	})
}
