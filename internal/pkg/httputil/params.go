package httputil

import (
	"net/http"

	"github.com/blogcore/blogcore/internal/pkg/apperr"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ParseUUIDParam returns the named URL parameter if it is a well-formed UUID.
func ParseUUIDParam(r *http.Request, name string) (string, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", apperr.Validation("invalid %s: must be a UUID", name)
	}
	return id.String(), nil
}
