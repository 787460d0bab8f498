package app

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blogcore/blogcore/internal/config"
	"github.com/blogcore/blogcore/internal/domain"
	"github.com/blogcore/blogcore/internal/identity/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestApp builds an App with real keys and no database. Only routes that
// are decided before any repository call may be exercised.
func newTestApp(t *testing.T, mutate func(*config.Config)) (*App, http.Handler, *jwt.Service) {
	t.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "jwt.private.key")
	pubPath := filepath.Join(dir, "jwt.public.key")
	require.NoError(t, os.WriteFile(privPath, pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)}), 0o600))
	require.NoError(t, os.WriteFile(pubPath, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}), 0o600))

	cfg := config.Default()
	cfg.Database.URL = "postgres://unused"
	cfg.JWT.PrivateKeyPath = privPath
	cfg.JWT.PublicKeyPath = pubPath
	cfg.Password.Cost = 4
	if mutate != nil {
		mutate(cfg)
	}

	a := &App{config: cfg, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	router, err := a.setupRouter()
	require.NoError(t, err)

	keys, err := jwt.LoadKeyPair(privPath, pubPath)
	require.NoError(t, err)
	tokens, err := jwt.NewService(jwt.Config{Keys: keys, Expiry: cfg.JWT.Expiry})
	require.NoError(t, err)

	return a, router, tokens
}

func bearer(t *testing.T, tokens *jwt.Service, roles ...domain.Role) string {
	t.Helper()
	token, err := tokens.Issue("11111111-1111-1111-1111-111111111111", "caller@example.com", domain.NewRoleSet(roles...))
	require.NoError(t, err)
	return "Bearer " + token
}

func do(h http.Handler, method, path, body, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSetupRouter_MissingKeys(t *testing.T) {
	cfg := config.Default()
	cfg.JWT.PrivateKeyPath = filepath.Join(t.TempDir(), "missing.key")

	a := &App{config: cfg, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	_, err := a.setupRouter()
	assert.ErrorContains(t, err, "load signing keys")
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	_, r, _ := newTestApp(t, nil)

	rec := do(r, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = do(r, http.MethodGet, "/version", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version"`)
}

func TestRouter_AccessControl(t *testing.T) {
	_, r, tokens := newTestApp(t, nil)

	viewer := bearer(t, tokens, domain.RoleViewer)
	author := bearer(t, tokens, domain.RoleAuthor)
	admin := bearer(t, tokens, domain.RoleAdmin)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		auth       string
		wantStatus int
	}{
		{"create post anonymous", http.MethodPost, "/api/v1/posts", `{}`, "", http.StatusUnauthorized},
		{"create post garbage token", http.MethodPost, "/api/v1/posts", `{}`, "Bearer nope", http.StatusUnauthorized},
		{"create post wrong scheme", http.MethodPost, "/api/v1/posts", `{}`, "Token abc", http.StatusUnauthorized},
		{"create post viewer", http.MethodPost, "/api/v1/posts", `{}`, viewer, http.StatusForbidden},
		{"create post author reaches validation", http.MethodPost, "/api/v1/posts", `{"title":"x"}`, author, http.StatusBadRequest},
		{"list users author", http.MethodGet, "/api/v1/users", "", author, http.StatusForbidden},
		{"create user admin reaches validation", http.MethodPost, "/api/v1/users", `{"email":"bad"}`, admin, http.StatusBadRequest},
		{"comment anonymous", http.MethodPost, "/api/v1/posts/aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa/comments", `{}`, "", http.StatusUnauthorized},
		{"comment viewer reaches validation", http.MethodPost, "/api/v1/posts/aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa/comments", `{}`, viewer, http.StatusBadRequest},
		{"token info", http.MethodGet, "/api/v1/auth/token", "", viewer, http.StatusOK},
		{"token info anonymous", http.MethodGet, "/api/v1/auth/token", "", "", http.StatusUnauthorized},
		{"bad pagination", http.MethodGet, "/api/v1/posts?limit=1000", "", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(r, tt.method, tt.path, tt.body, tt.auth)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_UnauthorizedSetsChallenge(t *testing.T) {
	_, r, _ := newTestApp(t, nil)

	rec := do(r, http.MethodGet, "/api/v1/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
	assert.Contains(t, rec.Body.String(), "Missing authentication token")
}

func TestRouter_LoginRateLimit(t *testing.T) {
	_, r, _ := newTestApp(t, func(c *config.Config) {
		c.RateLimit.LoginPerMinute = 1
	})

	// Malformed bodies fail validation before any lookup but still count.
	rec := do(r, http.MethodPost, "/api/v1/auth/login", `{`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodPost, "/api/v1/auth/login", `{`, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Other endpoints are unaffected.
	rec = do(r, http.MethodPost, "/api/v1/auth/password-strength", `{"password":"Abcdef1!"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginRateLimit_Disabled(t *testing.T) {
	assert.Nil(t, loginRateLimit(0))
	assert.NotNil(t, loginRateLimit(5))
}

func TestInitLogger(t *testing.T) {
	ctx := t.Context()

	logger := initLogger(config.LogConfig{Level: "warn", Format: "json"})
	assert.False(t, logger.Enabled(ctx, slog.LevelInfo))
	assert.True(t, logger.Enabled(ctx, slog.LevelWarn))

	logger = initLogger(config.LogConfig{Level: "debug", Format: "text"})
	assert.True(t, logger.Enabled(ctx, slog.LevelDebug))
}
