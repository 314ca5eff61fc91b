package domain

import "errors"

// Sentinel errors for to-do operations
var (
	// ErrTransport indicates the remote store could not be reached or
	// answered with a non-success status
	ErrTransport = errors.New("todo server request failed")

	// ErrValidation indicates the payload was rejected as malformed
	ErrValidation = errors.New("todo rejected as invalid")

	// ErrNotFound indicates the referenced to-do does not exist
	ErrNotFound = errors.New("todo not found")
)
