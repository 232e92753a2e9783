package db

import "errors"

var (
	// ErrNotFound is returned when a lookup by id matches no document.
	ErrNotFound = errors.New("document not found")
	// ErrNotClaimed is returned when a conditional section update loses its
	// guard: the section was finalized or the claim token no longer matches.
	ErrNotClaimed = errors.New("section claim not held")
)
