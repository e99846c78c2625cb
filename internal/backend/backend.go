// Package backend defines the interface for third-party extraction backends
// and their implementations.
package backend

import (
	"context"
	"errors"
	"fmt"

	"tiksnap/internal/media"
)

// Backend fetches one post through one third-party service.
//
// Fetch never retries; fallback between backends belongs to the resolver.
type Backend interface {
	// Name is the short lowercase identifier used in config and logs.
	Name() string

	// Fetch resolves a canonical post URL into a Record.
	Fetch(ctx context.Context, canonicalURL string) (*media.Record, error)
}

var (
	ErrInvalidURL     = errors.New("invalid TikTok URL")
	ErrMarkerNotFound = errors.New("expected marker missing")
	ErrNoMedia        = errors.New("no media in response")
	ErrLowConfidence  = errors.New("low-confidence result")
	ErrUpstream       = errors.New("upstream rejected request")
	ErrUnavailable    = errors.New("video is private or deleted")
)

// RejectedError carries the message an upstream sent with a refusal.
// It matches ErrUpstream under errors.Is.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	return ErrUpstream.Error() + ": " + e.Message
}

func (e *RejectedError) Is(target error) bool { return target == ErrUpstream }

func rejected(format string, args ...any) error {
	return &RejectedError{Message: fmt.Sprintf(format, args...)}
}

// Error is a backend failure tagged with the step that failed.
type Error struct {
	Backend string // backend name
	Stage   string // "validate", "token", "submit", "parse", "download"
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend=%s stage=%s: %v", e.Backend, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func fail(backend, stage string, err error) error {
	return &Error{Backend: backend, Stage: stage, Err: err}
}
