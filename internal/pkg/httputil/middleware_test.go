package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blogcore/blogcore/internal/domain"
	"github.com/blogcore/blogcore/internal/identity/authz"
	"github.com/blogcore/blogcore/internal/pkg/apperr"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthenticator struct {
	identities map[string]domain.Identity
}

func (f *fakeAuthenticator) AuthenticateRequest(_ context.Context, header string) (domain.Identity, error) {
	if header == "" {
		return domain.Identity{}, apperr.Unauthenticated("Missing authorization token")
	}
	identity, ok := f.identities[header]
	if !ok {
		return domain.Identity{}, apperr.Unauthenticated("Invalid or expired token")
	}
	return identity, nil
}

func newFakeAuthenticator() *fakeAuthenticator {
	return &fakeAuthenticator{identities: map[string]domain.Identity{
		"Bearer viewer": {SubjectID: "u-viewer", Roles: domain.NewRoleSet(domain.RoleViewer)},
		"Bearer author": {SubjectID: "u-author", Roles: domain.NewRoleSet(domain.RoleAuthor)},
	}}
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Message
}

func TestAuthMiddleware(t *testing.T) {
	var seen domain.Identity
	handler := AuthMiddleware(newFakeAuthenticator())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetIdentity(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   string
	}{
		{"missing header", "", http.StatusUnauthorized, ""},
		{"unknown token", "Bearer nope", http.StatusUnauthorized, ""},
		{"valid token", "Bearer author", http.StatusOK, "u-author"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = domain.Identity{}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantUser, seen.SubjectID)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestRequirePolicy(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	chain := AuthMiddleware(newFakeAuthenticator())(
		RequireAnyRole(domain.RoleAuthor, domain.RoleAdmin)(ok),
	)

	req := httptest.NewRequest(http.MethodPost, "/posts", nil)
	req.Header.Set("Authorization", "Bearer viewer")
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Access denied. Required roles: AUTHOR, ADMIN", errorMessage(t, rec))

	req = httptest.NewRequest(http.MethodPost, "/posts", nil)
	req.Header.Set("Authorization", "Bearer author")
	rec = httptest.NewRecorder()
	chain.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequirePolicy_WithoutIdentity(t *testing.T) {
	handler := RequirePolicy(authz.Authenticated())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleError(t *testing.T) {
	errCustom := errors.New("custom")

	tests := []struct {
		name       string
		err        error
		mappings   []ErrorMapping
		wantStatus int
		wantMsg    string
	}{
		{"validation", apperr.Validation("bad %s", "input"), nil, http.StatusBadRequest, "bad input"},
		{"unauthenticated hides cause", &apperr.Error{Kind: apperr.KindUnauthenticated, Message: "Invalid or expired token", Err: errors.New("token is expired")}, nil, http.StatusUnauthorized, "Invalid or expired token"},
		{"forbidden", apperr.Forbidden("nope"), nil, http.StatusForbidden, "nope"},
		{"not found", apperr.NotFound("Post", "1"), nil, http.StatusNotFound, "Post with ID 1 not found"},
		{"conflict", apperr.Conflict("exists"), nil, http.StatusConflict, "exists"},
		{"explicit mapping wins", errCustom, []ErrorMapping{{Error: errCustom, Status: http.StatusTeapot, Message: "teapot"}}, http.StatusTeapot, "teapot"},
		{"unknown", errors.New("db down"), nil, http.StatusInternalServerError, "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(context.Background(), rec, tt.err, tt.mappings...)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMsg, errorMessage(t, rec))
		})
	}
}

func TestParseUUIDParam(t *testing.T) {
	r := chi.NewRouter()
	var got string
	var gotErr error
	r.Get("/posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = ParseUUIDParam(r, "id")
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/posts/8B4D3C2A-1F0E-4D5C-9B8A-7F6E5D4C3B2A", nil))
	require.NoError(t, gotErr)
	assert.Equal(t, "8b4d3c2a-1f0e-4d5c-9b8a-7f6e5d4c3b2a", got)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/posts/42", nil))
	assert.ErrorIs(t, gotErr, apperr.ErrValidation)
}

func TestSecureHeaders(t *testing.T) {
	handler := SecureHeaders(SecurityConfig{})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestCORSMiddleware(t *testing.T) {
	handler := CORSMiddleware([]string{"https://blog.example.com"})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/posts", nil)
	req.Header.Set("Origin", "https://blog.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://blog.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestValidationError_JSONFieldNames(t *testing.T) {
	type input struct {
		Title string `json:"title" validate:"required,min=5"`
	}
	err := NewValidator().Struct(input{Title: "abc"})
	require.Error(t, err)

	rec := httptest.NewRecorder()
	ValidationError(rec, err)

	var body struct {
		Error struct {
			Details []map[string]string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Error.Details, 1)
	assert.Equal(t, "title", body.Error.Details[0]["field"])
	assert.Equal(t, "must be at least 5 characters", body.Error.Details[0]["message"])
}
