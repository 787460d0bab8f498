package posts

import (
	"net/http"

	"github.com/blogcore/blogcore/internal/pkg/httputil"
	"github.com/blogcore/blogcore/internal/pkg/pagination"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Handler handles HTTP requests for the posts module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new posts handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: httputil.NewValidator(),
	}
}

// RegisterPublicRoutes registers read-only routes.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/posts", h.ListPosts)
	r.Get("/posts/{id}", h.GetPost)
	r.Get("/users/{id}/posts", h.ListPostsByAuthor)
}

// RegisterRoutes registers routes that require the author or admin role.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/posts", h.CreatePost)
	r.Put("/posts/{id}", h.UpdatePost)
	r.Delete("/posts/{id}", h.DeletePost)
}

// CreatePostRequest represents the request body for creating a post.
type CreatePostRequest struct {
	Title   string `json:"title" validate:"required,min=5"`
	Content string `json:"content" validate:"required,min=10"`
}

// UpdatePostRequest represents the request body for updating a post.
type UpdatePostRequest struct {
	Title   string `json:"title" validate:"omitempty,min=5"`
	Content string `json:"content" validate:"omitempty,min=10"`
}

// CreatePost handles POST /posts.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	caller, ok := httputil.GetIdentity(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreatePostRequest
	if !httputil.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	post, err := h.service.CreatePost(r.Context(), caller, CreatePostInput(req))
	if err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, post)
}

// ListPosts handles GET /posts.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	page, err := pagination.Parse(r)
	if err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	result, err := h.service.ListPosts(r.Context(), page)
	if err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

// GetPost handles GET /posts/{id}.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseUUIDParam(r, "id")
	if err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	post, err := h.service.GetPost(r.Context(), id)
	if err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, post)
}

// ListPostsByAuthor handles GET /users/{id}/posts.
func (h *Handler) ListPostsByAuthor(w http.ResponseWriter, r *http.Request) {
	authorID, err := httputil.ParseUUIDParam(r, "id")
	if err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	page, err := pagination.Parse(r)
	if err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	result, err := h.service.ListPostsByAuthor(r.Context(), authorID, page)
	if err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

// UpdatePost handles PUT /posts/{id}.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	caller, ok := httputil.GetIdentity(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := httputil.ParseUUIDParam(r, "id")
	if err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	var req UpdatePostRequest
	if !httputil.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	post, err := h.service.UpdatePost(r.Context(), caller, id, UpdatePostInput(req))
	if err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, post)
}

// DeletePost handles DELETE /posts/{id}.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	caller, ok := httputil.GetIdentity(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := httputil.ParseUUIDParam(r, "id")
	if err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	if err := h.service.DeletePost(r.Context(), caller, id); err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	httputil.NoContent(w)
}
