// Package server fronts an application origin with the offline asset cache.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mmcdole/wanderlist/internal/config"
	"github.com/mmcdole/wanderlist/internal/domain"
	"github.com/mmcdole/wanderlist/internal/offline"
)

// ControlPrefix is reserved for the server's own endpoints
const ControlPrefix = "/_wanderlist"

// hopHeaders are connection-scoped and never forwarded
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Server routes browser traffic through the host's active cache manager
type Server struct {
	host        *Host
	storage     domain.CacheStorage
	origin      *url.URL
	metrics     http.Handler
	metricsPath string
	logger      *slog.Logger
}

// Option configures a Server
type Option func(*Server)

// WithMetricsHandler mounts a metrics handler at path
func WithMetricsHandler(path string, h http.Handler) Option {
	return func(s *Server) {
		s.metricsPath = path
		s.metrics = h
	}
}

// New creates a Server forwarding to origin
func New(host *Host, storage domain.CacheStorage, origin *url.URL, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{host: host, storage: storage, origin: origin, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the chi router
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Route(ControlPrefix, func(r chi.Router) {
		r.Get("/health", s.health)
		r.Get("/cache", s.cacheStatus)
	})

	if s.metrics != nil {
		r.Handle(s.metricsPath, s.metrics)
	}

	// Everything else is intercepted
	r.Handle("/*", http.HandlerFunc(s.intercept))
	return r
}

// Run serves on addr until ctx is cancelled
func (s *Server) Run(ctx context.Context, addr string, readTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "origin", s.origin.String())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.host.Close()
	s.logger.Info("shut down")
	return err
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]string{"status": "ok"}
	if s.host.Active() == nil {
		status = http.StatusServiceUnavailable
		body["status"] = "no active cache"
	}
	writeJSON(w, status, body)
}

// GenerationStatus describes one stored cache generation
type GenerationStatus struct {
	Name    string `json:"name"`
	Entries int    `json:"entries"`
	Current bool   `json:"current"`
}

// CacheStatus is the body of the cache status endpoint
type CacheStatus struct {
	Active      string             `json:"active,omitempty"`
	State       string             `json:"state,omitempty"`
	Generations []GenerationStatus `json:"generations"`
}

func (s *Server) cacheStatus(w http.ResponseWriter, r *http.Request) {
	m := s.host.Active()
	current := ""
	if m != nil {
		current = m.Name()
	}

	status, err := Status(s.storage, current)
	if err != nil {
		s.logger.Error("failed to read cache status", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if m != nil {
		status.State = m.State().String()
	}
	writeJSON(w, http.StatusOK, status)
}

// Status summarises the stored generations, flagging the one named current.
// It never creates a generation: one deleted while the summary is built is
// left out.
func Status(storage domain.CacheStorage, current string) (*CacheStatus, error) {
	names, err := storage.Keys()
	if err != nil {
		return nil, err
	}

	status := &CacheStatus{Active: current, Generations: make([]GenerationStatus, 0, len(names))}
	for _, name := range names {
		n, err := storage.Count(name)
		if errors.Is(err, domain.ErrGenerationNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		status.Generations = append(status.Generations, GenerationStatus{Name: name, Entries: n, Current: name == current})
	}
	return status, nil
}

// intercept forwards a browser request through the active manager
func (s *Server) intercept(w http.ResponseWriter, r *http.Request) {
	m := s.host.Active()
	if m == nil {
		http.Error(w, "offline cache not active", http.StatusServiceUnavailable)
		return
	}

	out, err := s.outbound(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := s.dispatch(m, out)
	if err != nil {
		if errors.Is(err, domain.ErrNotActive) {
			http.Error(w, "offline cache not active", http.StatusServiceUnavailable)
			return
		}
		s.logger.Warn("upstream request failed", "url", out.URL.String(), "error", err)
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	header := w.Header()
	for k, vv := range resp.Header {
		for _, v := range vv {
			header.Add(k, v)
		}
	}
	removeHopHeaders(header)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		s.logger.Debug("failed to copy response body", "url", out.URL.String(), "error", err)
	}
}

// dispatch hands out to m. A manager retired after it was looked up passes
// the request on to its successor.
func (s *Server) dispatch(m *offline.Manager, out *http.Request) (*http.Response, error) {
	resp, err := m.HandleRequest(out)
	if !errors.Is(err, domain.ErrNotActive) {
		return resp, err
	}
	if next := s.host.Active(); next != nil && next != m {
		return next.HandleRequest(out)
	}
	return nil, err
}

// outbound rewrites an incoming request onto the origin
func (s *Server) outbound(r *http.Request) (*http.Request, error) {
	target := config.JoinOrigin(s.origin, r.URL.Path, r.URL.RawQuery)
	out, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), r.Body)
	if err != nil {
		return nil, err
	}
	out.Header = r.Header.Clone()
	removeHopHeaders(out.Header)
	out.ContentLength = r.ContentLength
	return out, nil
}

func removeHopHeaders(h http.Header) {
	for _, k := range hopHeaders {
		h.Del(k)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logArgs := []any{
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		}
		if strings.HasPrefix(r.URL.Path, ControlPrefix) {
			s.logger.Debug("request completed", logArgs...)
			return
		}
		s.logger.Info("request completed", logArgs...)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
