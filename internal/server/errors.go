package server

import "errors"

// Sentinel errors for lifecycle operations. Store-level not-found conditions
// surface as store.ErrNotFound and are mapped alongside these in the HTTP
// layer.
var (
	ErrInvalidStatus     = errors.New("invalid task status")
	ErrInvalidPriority   = errors.New("invalid task priority")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrEmptyInput        = errors.New("text is required")
)
