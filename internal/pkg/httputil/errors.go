package httputil

import (
	"context"
	"errors"
	"net/http"

	"github.com/blogcore/blogcore/internal/pkg/apperr"
	"github.com/blogcore/blogcore/internal/pkg/ctxlog"
)

// ErrorMapping defines how a domain error maps to an HTTP response.
type ErrorMapping struct {
	Error   error
	Status  int
	Message string // if empty, uses the error's message
}

// kindStatus maps application error kinds to HTTP status codes.
var kindStatus = map[apperr.Kind]int{
	apperr.KindValidation:      http.StatusBadRequest,
	apperr.KindUnauthenticated: http.StatusUnauthorized,
	apperr.KindForbidden:       http.StatusForbidden,
	apperr.KindNotFound:        http.StatusNotFound,
	apperr.KindConflict:        http.StatusConflict,
}

// HandleError maps an error to an HTTP response. Explicit mappings are tried
// first, then the apperr kind. Anything else is logged and returned as 500.
func HandleError(ctx context.Context, w http.ResponseWriter, err error, mappings ...ErrorMapping) {
	for _, m := range mappings {
		if errors.Is(err, m.Error) {
			msg := m.Message
			if msg == "" {
				msg = message(err)
			}
			Error(w, m.Status, msg)
			return
		}
	}

	if status, ok := kindStatus[apperr.KindOf(err)]; ok {
		Error(w, status, message(err))
		return
	}

	ctxlog.FromContext(ctx).Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, "internal error")
}

// StatusOf returns the HTTP status HandleError would use for err without mappings.
func StatusOf(err error) int {
	if status, ok := kindStatus[apperr.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// message returns the client-facing text. The wrapped cause of an apperr is
// internal detail and stays out of responses.
func message(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
