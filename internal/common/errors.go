package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// User input errors.
	ErrEmptyText = errors.New("empty text")

	// Service-level errors.
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("remote unavailable")
	ErrNotSignedIn  = errors.New("not signed in")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Mirror document errors.
	ErrInvalidDocument = errors.New("invalid document")
	ErrRateLimited     = errors.New("rate limited")
)
