package contract

import "errors"

var (
	// ErrConfiguration means a required credential or endpoint is absent.
	// Raised when the dependent component is constructed, never per call.
	ErrConfiguration = errors.New("configuration error")

	// ErrUpstream means a network or backend failure calling the model or
	// the commerce backend.
	ErrUpstream = errors.New("upstream failure")

	// ErrNotFound means an operation referenced an unknown session.
	ErrNotFound = errors.New("session not found")

	// ErrValidation means malformed or missing required input.
	ErrValidation = errors.New("validation failed")
)
