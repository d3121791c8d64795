package http

import (
	"net/http"
	"strings"
)

const (
	swaggerCSP = "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:"
	apiCSP     = "default-src 'none'; frame-ancestors 'none'"
)

// SecurityHeaders sets the response headers every route shares.
// Auth responses carry credentials and are never cached.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		switch {
		case strings.HasPrefix(r.URL.Path, "/swagger/"):
			h.Set("Content-Security-Policy", swaggerCSP)
		case strings.HasPrefix(r.URL.Path, "/auth/"):
			h.Set("Content-Security-Policy", apiCSP)
			h.Set("Cache-Control", "no-store")
		default:
			h.Set("Content-Security-Policy", apiCSP)
		}

		next.ServeHTTP(w, r)
	})
}
