// Package resolver turns a pasted share link into a media.Response by
// driving the backends in priority order.
package resolver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"tiksnap/internal/backend"
	"tiksnap/internal/httputil"
	"tiksnap/internal/linkutil"
	"tiksnap/internal/logging"
	"tiksnap/internal/media"
)

// State is a step of the fallback chain.
type State int

const (
	TryPrimary State = iota
	TrySecondary
	TryLibrary
	TryTerminal
	Success
	Exhausted
)

func (s State) String() string {
	switch s {
	case TryPrimary:
		return "TRY_PRIMARY"
	case TrySecondary:
		return "TRY_SECONDARY"
	case TryLibrary:
		return "TRY_LIBRARY"
	case TryTerminal:
		return "TRY_TERMINAL"
	case Success:
		return "SUCCESS"
	case Exhausted:
		return "EXHAUSTED"
	default:
		return "UNKNOWN"
	}
}

// stateFor names the i-th of n backends. The last one is always terminal;
// anything between the secondary and the terminal counts as library.
func stateFor(i, n int) State {
	if i == n-1 {
		return TryTerminal
	}
	return min(State(i), TryLibrary)
}

// Attempt is one backend try.
type Attempt struct {
	Backend  string
	State    State
	Err      error
	Duration time.Duration
}

// Request is one resolution request.
type Request struct {
	Text    string // URL or pasted text containing one
	Quality media.Quality
}

// Result is a successful resolution.
type Result struct {
	Response  media.Response
	Canonical string
	Backend   string
	Attempts  []Attempt
}

// Resolver owns the ordered backend chain.
type Resolver struct {
	backends []backend.Backend
	client   *http.Client
	pick     HDPicker
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHDPicker replaces the HD selection policy.
func WithHDPicker(p HDPicker) Option {
	return func(r *Resolver) { r.pick = p }
}

// WithClient sets the client used for short-link resolution.
func WithClient(c *http.Client) Option {
	return func(r *Resolver) { r.client = c }
}

// New creates a Resolver trying backends in the given order.
func New(backends []backend.Backend, opts ...Option) *Resolver {
	r := &Resolver{backends: backends, pick: PickHD}
	for _, o := range opts {
		o(r)
	}
	if r.client == nil {
		r.client = httputil.NewClient(0)
	}
	return r
}

// Resolve normalizes the input, expands short links and runs the chain.
// Failures are always *Error.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Result, error) {
	canonical := linkutil.Clean(req.Text)
	if !linkutil.IsValid(canonical) {
		return nil, &Error{Status: http.StatusBadRequest, Message: MsgInvalidURL, Err: backend.ErrInvalidURL}
	}
	log := logging.FromContext(ctx)

	if linkutil.IsShortLink(canonical) {
		resolved, err := httputil.ResolveRedirect(ctx, r.client, canonical)
		if err != nil {
			log.Warn("short link not resolved, continuing with original", "url", canonical, "err", err)
		} else if expanded := linkutil.Clean(resolved); !linkutil.IsValid(expanded) {
			log.Warn("short link left TikTok, continuing with original", "url", canonical, "resolved", resolved)
		} else {
			canonical = expanded
			log.Debug("short link resolved", "url", canonical)
		}
	}

	rec, name, attempts, err := r.run(ctx, canonical)
	if err != nil {
		return nil, err
	}
	return &Result{
		Response:  Normalize(rec, req.Quality, r.pick),
		Canonical: canonical,
		Backend:   name,
		Attempts:  attempts,
	}, nil
}

// run tries each backend in turn. It stops at the first record with media
// and never starts a backend before the previous one has failed.
func (r *Resolver) run(ctx context.Context, canonical string) (*media.Record, string, []Attempt, error) {
	log := logging.FromContext(ctx)
	attempts := make([]Attempt, 0, len(r.backends))

	var lastErr error
	for i, b := range r.backends {
		state := stateFor(i, len(r.backends))
		start := time.Now()
		rec, err := b.Fetch(ctx, canonical)
		if err == nil && !rec.HasMedia() {
			err = backend.ErrNoMedia
		}
		attempts = append(attempts, Attempt{Backend: b.Name(), State: state, Err: err, Duration: time.Since(start)})

		if err == nil {
			log.Info("resolved", "backend", b.Name(), "state", state, "next", Success)
			return rec, b.Name(), attempts, nil
		}
		log.Warn("backend failed", "backend", b.Name(), "state", state, "err", err)
		lastErr = err
	}

	if lastErr == nil {
		lastErr = errors.New("no backends configured")
	}
	log.Error("all backends failed", "state", Exhausted, "attempts", len(attempts))
	return nil, "", attempts, classify(lastErr)
}

// User-visible messages.
const (
	MsgInvalidURL = "Invalid TikTok URL"
	MsgTimeout    = "Request timed out"
	MsgForbidden  = "Access blocked by upstream"
	MsgNotFound   = "Video is private or deleted"
	MsgFailed     = "Failed to process video"
)

// Error is a failed resolution with the HTTP status it maps to.
// Message is safe to show to users; Err is for logs only.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// classify maps the last backend error to a user-facing status. Only
// typed errors and messages an upstream sent are inspected; error text
// that may carry request URLs is not.
func classify(err error) *Error {
	e := &Error{Status: http.StatusInternalServerError, Message: MsgFailed, Err: err}

	var status int
	if se := (*httputil.HTTPStatusError)(nil); errors.As(err, &se) {
		status = se.StatusCode
	}
	var upstream string
	if re := (*backend.RejectedError)(nil); errors.As(err, &re) {
		upstream = strings.ToLower(re.Message)
	}
	says := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(upstream, w) {
				return true
			}
		}
		return false
	}

	switch {
	case httputil.IsTimeout(err), says("timeout", "timed out"):
		e.Status, e.Message = http.StatusRequestTimeout, MsgTimeout
	case status == http.StatusForbidden, says("forbidden", "blocked"):
		e.Status, e.Message = http.StatusForbidden, MsgForbidden
	case status == http.StatusNotFound, status == http.StatusGone,
		errors.Is(err, backend.ErrUnavailable), says("private", "deleted", "not found"):
		e.Status, e.Message = http.StatusNotFound, MsgNotFound
	}
	return e
}
