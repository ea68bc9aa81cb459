package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/prn-tf/folio/internal/domain"
)

// Verifier verifies bearer tokens. *TokenService implements it.
type Verifier interface {
	Verify(token string) (*Claims, error)
}

// claimsContextKey is the context key for verified Claims.
type claimsContextKey struct{}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext retrieves the verified claims attached by Middleware.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*Claims)
	return claims, ok && claims != nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
// It returns ErrMissingCredential when no token is present and
// ErrInvalidCredential when the scheme is not Bearer.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	scheme, token, _ := strings.Cut(header, " ")
	token = strings.TrimSpace(token)

	if token == "" {
		return "", ErrMissingCredential
	}
	if !strings.EqualFold(scheme, "Bearer") {
		return "", ErrInvalidCredential
	}
	return token, nil
}

// Authorize authenticates r and, if required is non-empty, checks the role.
// It returns the verified claims or an error matching one of
// ErrMissingCredential, ErrInvalidCredential or ErrInsufficientRole.
func Authorize(r *http.Request, v Verifier, required domain.Role) (*Claims, error) {
	token, err := BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		return nil, err
	}

	claims, err := v.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}

	if required != "" && !claims.HasRole(required) {
		return nil, ErrInsufficientRole
	}

	return claims, nil
}

// Middleware creates an authentication middleware that requires a valid
// bearer token and attaches its claims to the request context.
func Middleware(v Verifier, logger zerolog.Logger) func(http.Handler) http.Handler {
	return middleware(v, "", logger)
}

// RequireRole creates a middleware that requires a valid bearer token whose
// role is role.
func RequireRole(v Verifier, role domain.Role, logger zerolog.Logger) func(http.Handler) http.Handler {
	return middleware(v, role, logger)
}

func middleware(v Verifier, role domain.Role, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := Authorize(r, v, role)
			if err != nil {
				authErr := NewAuthError(err)
				logger.Debug().
					Err(err).
					Str("code", string(authErr.Code)).
					Str("path", r.URL.Path).
					Msg("request rejected by access control")
				writeAuthError(w, authErr)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// writeAuthError writes a JSON error body.
func writeAuthError(w http.ResponseWriter, authErr *AuthError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(authErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": authErr.Message})
}
