package store

import "errors"

// Sentinel errors returned by Store operations (§4.1, §7 TransportRetryable).
var (
	// ErrNotFound is returned when a lookup finds no matching document. Surfaced
	// to the caller, never retried.
	ErrNotFound = errors.New("store: not found")

	// ErrConflict is returned when a write would violate an invariant (e.g. I1:
	// more than one active Plan per session).
	ErrConflict = errors.New("store: conflict")

	// ErrTransport is returned for transient connectivity failures. Retried with
	// bounded exponential backoff before being surfaced.
	ErrTransport = errors.New("store: transport error")
)
