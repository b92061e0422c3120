package services

import "errors"

// Service error kinds. Handlers map these to distinct HTTP responses so the
// client can tell "seats full" from "not allowed" from "already decided".
var (
	ErrUnauthorized = errors.New("actor is not allowed to perform this action")
	ErrInvalidState = errors.New("action is not valid in the current state")
	ErrFull         = errors.New("no seats available")
	ErrConflict     = errors.New("passenger already has an active request for this trip")
	ErrNotFound     = errors.New("record not found")

	// ErrUpstreamUnavailable marks a routing oracle failure. It never leaves
	// the estimator; callers receive the fallback estimate instead.
	ErrUpstreamUnavailable = errors.New("routing service unavailable")
)
