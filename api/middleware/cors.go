package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS lets the customer tablet app and the admin dashboard call the API
// from their own origins. Last-Event-ID is allowed so EventSource
// reconnects pass preflight.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept", "Authorization", "Content-Type",
			IdempotencyHeader, "Last-Event-ID", requestIDHeader,
		},
		ExposedHeaders:   []string{requestIDHeader, "Content-Disposition", "Retry-After", IdempotentReplayed},
		AllowCredentials: true,
		MaxAge:           600,
	}).Handler
}
