// Package pkg holds helpers shared across layers: domain errors and the
// HTTP response writers that map them to status codes.
//
// Errors are sentinel values wrapped with context, so callers compare with
// errors.Is instead of matching strings:
//
//	if errors.Is(err, pkg.ErrNotFound) { ... }
package pkg

import "errors"

// Domain errors. Services return them (wrapped), handlers map them to HTTP
// statuses in mapErrorToStatus.
var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrAlreadyExists   = errors.New("already exists")
	ErrBadRequest      = errors.New("bad request")
	ErrTooManyRequests = errors.New("too many requests")
	ErrInternal        = errors.New("internal error")
)
