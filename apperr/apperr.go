// Package apperr defines the sentinel errors the rest of the application
// wraps and the HTTP handlers translate into response statuses.
package apperr

import "errors"

var (
	ErrValidation   = errors.New("invalid request")
	ErrConflict     = errors.New("already exists")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrUpstream     = errors.New("upstream failure")
)
