// Package middleware holds the HTTP middleware of the API server.
package middleware

import (
	"net/http"
	"strings"
)

// UnknownClient keys requests whose origin cannot be determined. They all
// share one rate-limit bucket rather than bypassing the limiter.
const UnknownClient = "unknown"

// ClientIP extracts the caller's address for rate limiting: the first hop
// of X-Forwarded-For, then X-Real-IP, then the constant fallback. The
// reverse proxy in front of the server is trusted to set these.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if first != "" {
			return first
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return real
	}
	return UnknownClient
}
