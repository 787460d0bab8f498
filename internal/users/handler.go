package users

import (
	"net/http"

	"github.com/blogcore/blogcore/internal/domain"
	"github.com/blogcore/blogcore/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Handler handles HTTP requests for the users module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new users handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: httputil.NewValidator(),
	}
}

// RegisterRoutes registers user management routes (admin only).
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/users", h.CreateUser)
	r.Get("/users", h.ListUsers)
	r.Get("/users/{id}", h.GetUser)
	r.Put("/users/{id}", h.UpdateUser)
	r.Delete("/users/{id}", h.DeleteUser)
}

// CreateUserRequest represents the request body for creating a user.
type CreateUserRequest struct {
	Email    string        `json:"email" validate:"required,email"`
	Password string        `json:"password" validate:"required,min=6"`
	Roles    []domain.Role `json:"roles" validate:"required,min=1,dive,oneof=VIEWER AUTHOR ADMIN"`
}

// UpdateUserRequest represents the request body for updating a user.
type UpdateUserRequest struct {
	Roles []domain.Role `json:"roles" validate:"omitempty,min=1,dive,oneof=VIEWER AUTHOR ADMIN"`
}

// CreateUser handles POST /users.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !httputil.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	user, err := h.service.CreateUser(r.Context(), CreateUserInput(req))
	if err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, user)
}

// ListUsers handles GET /users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListUsers(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, list)
}

// GetUser handles GET /users/{id}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseUUIDParam(r, "id")
	if err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, user)
}

// UpdateUser handles PUT /users/{id}.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseUUIDParam(r, "id")
	if err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	var req UpdateUserRequest
	if !httputil.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	user, err := h.service.UpdateUser(r.Context(), id, UpdateUserInput(req))
	if err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, user)
}

// DeleteUser handles DELETE /users/{id}.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseUUIDParam(r, "id")
	if err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	httputil.NoContent(w)
}
