// Package auth provides bearer-token authentication and role checks for folio.
package auth

import (
	"errors"
	"net/http"
)

// Token verification errors.
var (
	// ErrInvalidToken indicates the token is malformed, has a bad signature,
	// uses an unexpected algorithm, or carries unusable claims.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken indicates the token is past its expiry.
	ErrExpiredToken = errors.New("token expired")
)

// Access control errors.
var (
	// ErrMissingCredential indicates the request carried no bearer token.
	ErrMissingCredential = errors.New("missing credential")

	// ErrInvalidCredential indicates the bearer token failed verification.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrInsufficientRole indicates the caller's role does not permit the route.
	ErrInsufficientRole = errors.New("insufficient role")
)

// ErrorCode is a stable identifier for an auth failure.
type ErrorCode string

const (
	// CodeMissingCredential maps to HTTP 401
	CodeMissingCredential ErrorCode = "MissingCredential"

	// CodeInvalidCredential maps to HTTP 403
	CodeInvalidCredential ErrorCode = "InvalidCredential"

	// CodeInsufficientRole maps to HTTP 403
	CodeInsufficientRole ErrorCode = "InsufficientRole"
)

// AuthError represents an access control failure ready to be written to a client.
type AuthError struct {
	// Code is the failure class.
	Code ErrorCode

	// Message is the client-facing message.
	Message string

	// HTTPStatus is the HTTP status code.
	HTTPStatus int

	// Err is the underlying cause.
	Err error
}

func (e *AuthError) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError creates a new AuthError from a standard error.
// A missing token is 401; a token that fails verification and a role
// mismatch are both 403.
func NewAuthError(err error) *AuthError {
	switch {
	case errors.Is(err, ErrMissingCredential):
		return &AuthError{
			Code:       CodeMissingCredential,
			Message:    "Access token required",
			HTTPStatus: http.StatusUnauthorized,
			Err:        err,
		}

	case errors.Is(err, ErrInsufficientRole):
		return &AuthError{
			Code:       CodeInsufficientRole,
			Message:    "Admin access required",
			HTTPStatus: http.StatusForbidden,
			Err:        err,
		}

	default:
		return &AuthError{
			Code:       CodeInvalidCredential,
			Message:    "Invalid or expired token",
			HTTPStatus: http.StatusForbidden,
			Err:        err,
		}
	}
}
