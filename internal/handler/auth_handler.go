package handler

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/prn-tf/folio/internal/auth"
	"github.com/prn-tf/folio/internal/domain"
	"github.com/prn-tf/folio/internal/metrics"
	"github.com/prn-tf/folio/internal/service"
)

// AuthHandler serves login and session endpoints.
type AuthHandler struct {
	credentials *service.CredentialService
	tokens      *auth.TokenService
	metrics     *metrics.Metrics
	maxBody     int64
	logger      zerolog.Logger
}

// NewAuthHandler creates an AuthHandler. m may be nil.
func NewAuthHandler(credentials *service.CredentialService, tokens *auth.TokenService, m *metrics.Metrics, maxBody int64, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		credentials: credentials,
		tokens:      tokens,
		metrics:     m,
		maxBody:     maxBody,
		logger:      logger.With().Str("handler", "auth").Logger(),
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User    *domain.User `json:"user"`
	Token   string       `json:"token"`
	Message string       `json:"message"`
}

type userResponse struct {
	User *domain.User `json:"user"`
}

// Login exchanges an email and password for a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, r, h.logger, APIError{HTTPStatus: http.StatusBadRequest, Message: "Email and password are required"})
		return
	}

	user, err := h.credentials.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.metrics.RecordLogin(metrics.LoginFailure)
		writeError(w, r, h.logger, err)
		return
	}

	token, _, err := h.tokens.Issue(user)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.metrics.RecordLogin(metrics.LoginSuccess)
	writeJSON(w, http.StatusOK, loginResponse{
		User:    user,
		Token:   token,
		Message: "Login successful",
	})
}

// Me returns the identity behind the bearer token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, h.logger, auth.NewAuthError(auth.ErrMissingCredential))
		return
	}

	user, err := h.credentials.GetByID(r.Context(), claims.UserID())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{User: user})
}

// Logout acknowledges a logout. Tokens are stateless, so the client simply
// discards its token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logout successful"})
}
