// Package apperr defines the sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrNotConfigured = errors.New("not configured")
	ErrInvalidInput  = errors.New("invalid input")
	ErrTimeout       = errors.New("timeout")
	ErrUpstream      = errors.New("upstream failure")
)
