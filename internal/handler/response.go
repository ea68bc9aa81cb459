package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/prn-tf/folio/internal/auth"
	"github.com/prn-tf/folio/internal/service"
)

// APIError is an error ready to be written as {"error": Message}.
type APIError struct {
	HTTPStatus int
	Message    string
}

// Error implements the error interface.
func (e APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.HTTPStatus, e.Message)
}

// Common API errors.
var (
	ErrRouteNotFound = APIError{HTTPStatus: http.StatusNotFound, Message: "Route not found"}
	ErrInternal      = APIError{HTTPStatus: http.StatusInternalServerError, Message: "Internal server error"}
	ErrPanic         = APIError{HTTPStatus: http.StatusInternalServerError, Message: "Something went wrong!"}
	ErrInvalidBody   = APIError{HTTPStatus: http.StatusBadRequest, Message: "Invalid JSON body"}
	ErrBodyTooLarge  = APIError{HTTPStatus: http.StatusRequestEntityTooLarge, Message: "Request body too large"}
)

// NewAPIError maps a service error to its HTTP status and client message.
// Validation details are passed through; server-side failures are generic.
func NewAPIError(err error) APIError {
	var (
		apiErr  APIError
		authErr *auth.AuthError
	)
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &authErr):
		return APIError{HTTPStatus: authErr.HTTPStatus, Message: authErr.Message}
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidStatusTransition):
		return APIError{HTTPStatus: http.StatusBadRequest, Message: err.Error()}
	case errors.Is(err, service.ErrInvalidCredentials):
		return APIError{HTTPStatus: http.StatusUnauthorized, Message: "Invalid credentials"}
	case errors.Is(err, service.ErrUserNotFound):
		return APIError{HTTPStatus: http.StatusNotFound, Message: "User not found"}
	case errors.Is(err, service.ErrPostNotFound):
		return APIError{HTTPStatus: http.StatusNotFound, Message: "Post not found"}
	case errors.Is(err, service.ErrProjectNotFound):
		return APIError{HTTPStatus: http.StatusNotFound, Message: "Project not found"}
	case errors.Is(err, service.ErrDuplicateSlug):
		return APIError{HTTPStatus: http.StatusConflict, Message: "A post with this title already exists"}
	default:
		return ErrInternal
	}
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response for err, logging server-side failures.
func writeError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error) {
	apiErr := NewAPIError(err)
	if apiErr.HTTPStatus >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, apiErr.HTTPStatus, map[string]string{"error": apiErr.Message})
}

// decodeJSON decodes the request body into v, capping it at maxBytes.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, v any) error {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ErrBodyTooLarge
		}
		return ErrInvalidBody
	}
	return nil
}

type messageResponse struct {
	Message string `json:"message"`
}
