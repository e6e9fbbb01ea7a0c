package domain

import "errors"

// Sentinel errors shared across services. Handlers map these to HTTP
// status codes; everything else is treated as an internal error.
var (
	// ErrNotFound indicates a missing session, version, job, or permission row.
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied indicates the principal lacks the required access
	// level, or attempted an owner-only action.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrSessionBusy indicates the session lock is held by another in-flight
	// operation. It is never retried internally.
	ErrSessionBusy = errors.New("session busy")

	// ErrInvalidRange indicates a replacement descriptor that is out of
	// bounds or non-contiguous.
	ErrInvalidRange = errors.New("invalid slide range")

	// ErrExternalService indicates the generation or rendering collaborator
	// failed or timed out.
	ErrExternalService = errors.New("external service failure")
)
