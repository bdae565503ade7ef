// Package errors provides domain-specific error types and sentinel errors
// for improved error handling across the application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNoEvents indicates a schedule document yielded zero event records.
	ErrNoEvents = errors.New("no events parsed from document")

	// ErrLLMUnavailable indicates no LLM provider is configured or reachable.
	ErrLLMUnavailable = errors.New("llm provider unavailable")

	// ErrNotReady indicates a required dependency failed to initialize or
	// has not finished initializing.
	ErrNotReady = errors.New("service is not ready")
)

// ValidationError represents input validation failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IngestError represents schedule ingestion failures with source context.
type IngestError struct {
	Source string
	Err    error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest error (source=%s): %v", e.Source, e.Err)
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

// NewIngestError creates a new ingest error.
func NewIngestError(source string, err error) *IngestError {
	return &IngestError{
		Source: source,
		Err:    err,
	}
}
