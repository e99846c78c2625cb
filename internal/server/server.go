// Package server exposes the resolver over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"tiksnap/internal/logging"
	"tiksnap/internal/media"
	"tiksnap/internal/resolver"
)

// maxBody caps request bodies; a request is one URL.
const maxBody = 64 * 1024

// Resolver is the resolution pipeline.
type Resolver interface {
	Resolve(ctx context.Context, req resolver.Request) (*resolver.Result, error)
}

// Recorder stores resolution outcomes.
type Recorder interface {
	Record(ctx context.Context, e media.HistoryEntry) error
}

// Options configures a Server.
type Options struct {
	Logger         *slog.Logger
	History        Recorder // optional
	AllowOrigin    string   // CORS origin, "*" when empty
	VerboseErrors  bool     // add status and timestamp to error bodies
	DefaultQuality media.Quality
}

// Server serves the resolve API.
type Server struct {
	resolver Resolver
	opts     Options
	now      func() time.Time
}

// New creates a Server.
func New(r Resolver, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.AllowOrigin == "" {
		opts.AllowOrigin = "*"
	}
	if opts.DefaultQuality == "" {
		opts.DefaultQuality = media.SD
	}
	return &Server{resolver: r, opts: opts, now: time.Now}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/tik.json", s.withRequestLogger(http.HandlerFunc(s.handleResolve)))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.opts.Logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// withRequestLogger tags every request with an id and carries a scoped
// logger in its context.
func (s *Server) withRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		log := s.opts.Logger.With("request_id", id, "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(logging.WithLogger(r.Context(), log)))
	})
}

type resolveRequest struct {
	URL     string `json:"url"`
	Quality string `json:"quality"`
}

type errorBody struct {
	Error     string `json:"error"`
	Status    int    `json:"status,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", s.opts.AllowOrigin)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	var req resolveRequest
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodGet:
		req.URL = r.URL.Query().Get("url")
		req.Quality = r.URL.Query().Get("quality")
	case http.MethodPost:
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	default:
		w.Header().Set("Allow", "GET, POST, OPTIONS")
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx := r.Context()
	log := logging.FromContext(ctx).With("url", req.URL)
	ctx = logging.WithLogger(ctx, log)

	quality := s.opts.DefaultQuality
	if req.Quality != "" {
		quality = media.ParseQuality(req.Quality)
	}

	start := s.now()
	res, err := s.resolver.Resolve(ctx, resolver.Request{Text: req.URL, Quality: quality})
	if err != nil {
		re := &resolver.Error{Status: http.StatusInternalServerError, Message: resolver.MsgFailed, Err: err}
		errors.As(err, &re)
		log.Error("resolution failed", "status", re.Status, "err", err, "elapsed", time.Since(start))
		s.record(ctx, media.HistoryEntry{Source: req.URL, Status: re.Status})
		s.writeError(w, re.Status, re.Message)
		return
	}

	log.Info("resolution succeeded", "backend", res.Backend, "type", res.Response.Type, "elapsed", time.Since(start))
	s.record(ctx, media.HistoryEntry{
		Source:    req.URL,
		Canonical: res.Canonical,
		Backend:   res.Backend,
		Type:      res.Response.Type,
		Status:    http.StatusOK,
	})
	writeJSON(w, http.StatusOK, res.Response)
}

func (s *Server) record(ctx context.Context, e media.HistoryEntry) {
	if s.opts.History == nil {
		return
	}
	if err := s.opts.History.Record(ctx, e); err != nil {
		logging.FromContext(ctx).Warn("recording history failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	body := errorBody{Error: msg}
	if s.opts.VerboseErrors {
		body.Status = status
		body.Timestamp = s.now().UTC().Format(time.RFC3339)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
