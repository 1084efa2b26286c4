package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInsightNotFound signals an unknown insight id.
	ErrInsightNotFound = fmt.Errorf("insight %w", ErrNotFound)
	// ErrToolNotFound signals an unknown tool id.
	ErrToolNotFound = fmt.Errorf("tool %w", ErrNotFound)
	// ErrSessionNotFound signals an expired or unknown session.
	ErrSessionNotFound = fmt.Errorf("session %w", ErrNotFound)

	// ErrInvalidRequest signals caller input that failed validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrRateLimited signals a rate limit hit at a provider.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrJudgeProviderError signals a judgment provider failure or unusable judge output.
	ErrJudgeProviderError = errors.New("judge provider error")
	// ErrKeywordSearchNotSupported signals that the backend lacks keyword search.
	ErrKeywordSearchNotSupported = errors.New("keyword search not supported by backend")
)

// ValidationError describes a single rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidRequest.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRequest }

// NewValidationError creates an error matching ErrInvalidRequest.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
