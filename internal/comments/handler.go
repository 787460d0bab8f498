package comments

import (
	"net/http"

	"github.com/blogcore/blogcore/internal/pkg/httputil"
	"github.com/blogcore/blogcore/internal/pkg/pagination"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Handler handles HTTP requests for the comments module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new comments handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: httputil.NewValidator(),
	}
}

// RegisterPublicRoutes registers read-only routes.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/posts/{id}/comments", h.ListComments)
	r.Get("/posts/{id}/comments/{commentID}", h.GetComment)
}

// RegisterRoutes registers routes that require authentication.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/posts/{id}/comments", h.CreateComment)
	r.Put("/posts/{id}/comments/{commentID}", h.UpdateComment)
	r.Delete("/posts/{id}/comments/{commentID}", h.DeleteComment)
}

// CommentRequest represents the request body for creating or updating a comment.
type CommentRequest struct {
	Content string `json:"content" validate:"required,min=3"`
}

// CreateComment handles POST /posts/{id}/comments.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	caller, ok := httputil.GetIdentity(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	postID, err := httputil.ParseUUIDParam(r, "id")
	if err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	var req CommentRequest
	if !httputil.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	comment, err := h.service.CreateComment(r.Context(), caller, postID, req.Content)
	if err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, comment)
}

// ListComments handles GET /posts/{id}/comments.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	postID, err := httputil.ParseUUIDParam(r, "id")
	if err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	page, err := pagination.Parse(r)
	if err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	result, err := h.service.ListComments(r.Context(), postID, page)
	if err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

// GetComment handles GET /posts/{id}/comments/{commentID}.
func (h *Handler) GetComment(w http.ResponseWriter, r *http.Request) {
	postID, commentID, ok := commentParams(w, r)
	if !ok {
		return
	}

	comment, err := h.service.GetComment(r.Context(), postID, commentID)
	if err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, comment)
}

// UpdateComment handles PUT /posts/{id}/comments/{commentID}.
func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	caller, ok := httputil.GetIdentity(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	postID, commentID, ok := commentParams(w, r)
	if !ok {
		return
	}

	var req CommentRequest
	if !httputil.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	comment, err := h.service.UpdateComment(r.Context(), caller, postID, commentID, req.Content)
	if err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, comment)
}

// DeleteComment handles DELETE /posts/{id}/comments/{commentID}.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	caller, ok := httputil.GetIdentity(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	postID, commentID, ok := commentParams(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteComment(r.Context(), caller, postID, commentID); err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	httputil.NoContent(w)
}

func commentParams(w http.ResponseWriter, r *http.Request) (postID, commentID string, ok bool) {
	postID, err := httputil.ParseUUIDParam(r, "id")
	if err != nil {
		httputil.HandleError(r.Context(), w, err)
		return "", "", false
	}
	commentID, err = httputil.ParseUUIDParam(r, "commentID")
	if err != nil {
		httputil.HandleError(r.Context(), w, err)
		return "", "", false
	}
	return postID, commentID, true
}
