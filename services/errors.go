package services

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstreamUnavailable means the language model could not be reached or
	// returned no usable completion.
	ErrUpstreamUnavailable = errors.New("language model unavailable")
	// ErrUnparseableResponse is matched by *UnparseableResponseError.
	ErrUnparseableResponse = errors.New("model output could not be parsed")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidID           = errors.New("invalid id")
	// ErrGenerationFailed is returned to a caller that waited on another
	// caller's generation which then gave up without a result.
	ErrGenerationFailed = errors.New("section generation failed")
)

// UnparseableResponseError carries the raw model text for diagnostics. Raw is
// logged, never sent to clients.
type UnparseableResponseError struct {
	Raw string
}

func (e *UnparseableResponseError) Error() string {
	return fmt.Sprintf("%s (%d bytes)", ErrUnparseableResponse, len(e.Raw))
}

func (e *UnparseableResponseError) Is(target error) bool {
	return target == ErrUnparseableResponse
}
