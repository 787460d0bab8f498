package identity

import (
	"net/http"

	"github.com/blogcore/blogcore/internal/domain"
	"github.com/blogcore/blogcore/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Handler handles HTTP requests for the identity module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new identity handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: httputil.NewValidator(),
	}
}

// RegisterRoutes registers public auth routes. loginLimit, when not nil, wraps
// the login endpoint.
func (h *Handler) RegisterRoutes(r chi.Router, loginLimit func(http.Handler) http.Handler) {
	if loginLimit != nil {
		r.With(loginLimit).Post("/auth/login", h.Login)
	} else {
		r.Post("/auth/login", h.Login)
	}
	r.Post("/auth/password-strength", h.PasswordStrength)
}

// RegisterProtectedRoutes registers routes that require authentication.
func (h *Handler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/me", h.Me)
	r.Get("/auth/token", h.TokenInfo)
}

// LoginRequest represents login request body.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginResponse represents login response.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        *domain.User `json:"user"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !httputil.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	result, err := h.service.Login(r.Context(), LoginInput(req))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, httputil.ErrorMapping{
			Error:  ErrLoginThrottled,
			Status: http.StatusTooManyRequests,
		})
		return
	}

	httputil.JSON(w, http.StatusOK, LoginResponse{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
		ExpiresIn:   result.ExpiresIn,
		User:        result.User,
	})
}

// PasswordStrengthRequest represents password strength request body.
type PasswordStrengthRequest struct {
	Password string `json:"password" validate:"required"`
}

// PasswordStrength handles POST /auth/password-strength.
func (h *Handler) PasswordStrength(w http.ResponseWriter, r *http.Request) {
	var req PasswordStrengthRequest
	if !httputil.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]int{
		"score": h.service.PasswordStrength(req.Password),
	})
}

// Me handles GET /me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r.Context())
	if userID == "" {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.service.GetUserByID(r.Context(), userID)
	if err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, user)
}

// TokenInfoResponse describes the caller's access token.
type TokenInfoResponse struct {
	Subject          string         `json:"subject"`
	Email            string         `json:"email"`
	Roles            domain.RoleSet `json:"roles"`
	ExpiresInSeconds int64          `json:"expires_in_seconds"`
}

// TokenInfo handles GET /auth/token.
func (h *Handler) TokenInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.InspectToken(r.Header.Get("Authorization"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, TokenInfoResponse(*info))
}
