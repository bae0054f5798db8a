package validators

import (
	"net/http"
	"strings"
)

// BearerToken extracts the token from an Authorization header. A header
// without the Bearer scheme is returned trimmed as-is.
func BearerToken(header string) string {
	token := strings.TrimSpace(header)
	if len(token) >= 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}

// RequestToken reads the Authorization header, falling back to the
// access_token query parameter when allowQuery is set. Browsers cannot set
// headers on EventSource connections.
func RequestToken(r *http.Request, allowQuery bool) string {
	if token := BearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	if allowQuery {
		return strings.TrimSpace(r.URL.Query().Get("access_token"))
	}
	return ""
}
