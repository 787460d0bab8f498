package httputil

import (
	"context"
	"net/http"
	"strings"

	"github.com/blogcore/blogcore/internal/domain"
	"github.com/blogcore/blogcore/internal/identity/authz"
	"github.com/blogcore/blogcore/internal/pkg/ctxlog"
	"github.com/blogcore/blogcore/internal/pkg/metrics"
)

// CORSMiddleware creates CORS middleware that handles preflight requests
// and adds appropriate CORS headers to responses.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	originsSet := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originsSet[o] = true
	}
	allowAll := originsSet["*"]

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			w.Header().Add("Vary", "Origin")

			if origin != "" && (allowAll || originsSet[origin]) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type identityKey struct{}

// RequestAuthenticator turns an Authorization header into an identity.
type RequestAuthenticator interface {
	AuthenticateRequest(ctx context.Context, header string) (domain.Identity, error)
}

// AuthMiddleware rejects requests without a valid bearer token and stores the
// verified identity in the request context.
func AuthMiddleware(auth RequestAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := auth.AuthenticateRequest(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				HandleError(r.Context(), w, err)
				return
			}

			ctx := WithIdentity(r.Context(), identity)
			ctx = ctxlog.With(ctx, "user_id", identity.SubjectID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePolicy evaluates policy against the request identity before calling
// next. It must run after AuthMiddleware.
func RequirePolicy(policy authz.Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := GetIdentity(r.Context())
			if !ok {
				Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			if err := authz.Authorize(identity, policy); err != nil {
				metrics.AuthzDenialsTotal.WithLabelValues(policy.Name()).Inc()
				ctxlog.FromContext(r.Context()).Info("access denied",
					"policy", policy.Name(),
					"roles", strings.Join(identity.Roles.Strings(), ","),
				)
				HandleError(r.Context(), w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyRole allows identities holding at least one of roles.
func RequireAnyRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return RequirePolicy(authz.AnyRole(roles...))
}

// WithIdentity stores identity in ctx.
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// GetIdentity extracts the authenticated identity from context.
func GetIdentity(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(domain.Identity)
	if !ok || identity.IsZero() {
		return domain.Identity{}, false
	}
	return identity, true
}

// GetUserID extracts the authenticated subject ID from context.
func GetUserID(ctx context.Context) string {
	identity, _ := GetIdentity(ctx)
	return identity.SubjectID
}
