// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across store/service layers.
var (
	// ErrNotFound indicates the requested account or record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a unique constraint violation (username or email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnauthorized indicates failed authentication (bad identifier or credential).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrValidation indicates rejected input (empty required field, bad email format).
	ErrValidation = errors.New("validation failed")

	// ErrNoChanges indicates an update request carrying no fields to apply.
	// Distinct from ErrNotFound: the target may well exist.
	ErrNoChanges = errors.New("no changes")

	// ErrPersistence indicates a storage I/O failure (serialization, disk).
	ErrPersistence = errors.New("persistence failure")
)
