package domain

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ===========================================
	// Identity Errors
	// ===========================================

	// ErrInvalidRole indicates a role outside the closed ADMIN/READER set.
	ErrInvalidRole = errors.New("invalid role")

	// ===========================================
	// Blog Post Errors
	// ===========================================

	// ErrInvalidPostStatus indicates a status outside the closed DRAFT/PUBLISHED set.
	ErrInvalidPostStatus = errors.New("invalid post status")

	// ErrEmptySlug indicates a title that yields no slug characters.
	ErrEmptySlug = errors.New("title must contain at least one letter or digit")

	// ErrUnpublish indicates an attempt to move a published post back to draft.
	ErrUnpublish = errors.New("a published post cannot return to draft")
)

// DomainError wraps a domain error with additional context.
type DomainError struct {
	// Err is the underlying domain error.
	Err error

	// Message provides additional context.
	Message string

	// Resource identifies the affected resource (e.g., post slug, project id).
	Resource string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Resource != "" && e.Message != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Err.Error(), e.Message, e.Resource)
	}
	if e.Resource != "" {
		return fmt.Sprintf("%s (%s)", e.Err.Error(), e.Resource)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError with context.
func NewDomainError(err error, message, resource string) *DomainError {
	return &DomainError{
		Err:      err,
		Message:  message,
		Resource: resource,
	}
}
