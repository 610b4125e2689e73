package sift

import (
	"fmt"
	"time"
)

// PathError reports a malformed field path, rejected at parse time
// before any document is touched.
type PathError struct {
	Path   string
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("field path %q: %s", e.Path, e.Reason)
}

// EmbedError reports a failed embedding call for one batch of chunks.
// First and Last are record indices within the field's batch.
type EmbedError struct {
	Provider string
	First    int
	Last     int
	Err      error
}

func (e *EmbedError) Error() string {
	return fmt.Sprintf("%s: embed batch %d-%d: %v", e.Provider, e.First, e.Last, e.Err)
}

func (e *EmbedError) Unwrap() error { return e.Err }

// ErrHTTP is a transport-level error from a remote embedder or sink.
// Status 429 and 503 are treated as transient by the retry decorators.
type ErrHTTP struct {
	Status     int
	Body       string
	RetryAfter time.Duration
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Body)
}

// TransientError marks errors that retry decorators may retry. Sinks
// wrapping backend-specific failures can implement it to opt in.
type TransientError interface {
	error
	Transient() bool
}
