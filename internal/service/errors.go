// Package service provides the business logic of folio: the administrator
// credential store, the blog post lifecycle and the project catalogue.
package service

import "errors"

// Common service errors.
var (
	// Input errors
	ErrValidation              = errors.New("validation failed")
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	// Identity errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")

	// Content errors
	ErrPostNotFound    = errors.New("post not found")
	ErrProjectNotFound = errors.New("project not found")
	ErrDuplicateSlug   = errors.New("a post with this slug already exists")

	// General errors
	ErrInternalError = errors.New("internal server error")
)
