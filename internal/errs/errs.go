// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

var (
	// ErrValidation indicates malformed, missing or out-of-domain input.
	ErrValidation = errors.New("validation failed")

	// ErrConflict indicates a uniqueness violation (duplicate email or task description).
	ErrConflict = errors.New("conflict")

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates the caller is authenticated but does not own the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthenticated indicates missing or invalid credentials.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrDelivery indicates a notification could not be handed off or sent.
	ErrDelivery = errors.New("delivery failed")

	// ErrStore indicates a persistence I/O failure.
	ErrStore = errors.New("store failure")
)
