package types

import "errors"

// Sentinel errors shared across handlers, services and repositories.
// Every failure a handler reports to a client wraps exactly one of these.
var (
	ErrNotFound         = errors.New("requested item not found")
	ErrConflict         = errors.New("item already exists")
	ErrUnauthenticated  = errors.New("unauthorized")
	ErrValidation       = errors.New("validation failed")
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrUpstream         = errors.New("upstream storage failure")
)

// Response represents a generic API response for success or error messages.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
