package services

import "errors"

// Error taxonomy surfaced by the service layer. Handlers map these to HTTP
// statuses with errors.Is; anything unmatched is an internal error and must
// not leak detail to the client.
var (
	// ErrValidation marks missing or malformed input fields
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks an unknown document id
	ErrNotFound = errors.New("not found")
	// ErrForbidden marks an authenticated caller without ownership or admin role
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthenticated marks a mutation attempted with no identity
	ErrUnauthenticated = errors.New("authentication required")
	// ErrUploadRejected marks a non-image or oversized upload
	ErrUploadRejected = errors.New("upload rejected")
)
