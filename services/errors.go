package services

import (
	"errors"
	"fmt"
)

// ErrCustomerDataNotFound means the object store has no document for the
// requested customer.
var ErrCustomerDataNotFound = errors.New("customer data not found")

// UpstreamError wraps a failure from one of the external providers
// (embedding, search, cache, object store).
type UpstreamError struct {
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s provider error: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// GenerationParseError means the structured completion could not be parsed
// or failed field validation. The raw text is kept for diagnostics.
type GenerationParseError struct {
	Raw string
	Err error
}

func (e *GenerationParseError) Error() string {
	return fmt.Sprintf("generation output invalid: %v", e.Err)
}

func (e *GenerationParseError) Unwrap() error {
	return e.Err
}
