package httputil

import (
	"net/http"

	"github.com/unrolled/secure"
)

// SecurityConfig contains security header settings.
type SecurityConfig struct {
	SSLRedirect   bool
	IsDevelopment bool
}

// SecureHeaders sets conservative security headers for a JSON API.
func SecureHeaders(cfg SecurityConfig) func(http.Handler) http.Handler {
	sm := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		SSLRedirect:           cfg.SSLRedirect,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		STSSeconds:            31536000,
		STSIncludeSubdomains:  true,
		IsDevelopment:         cfg.IsDevelopment,
	})
	return sm.Handler
}
