// File: internal/middleware/auth.go
package middleware

import (
	"crypto/subtle"
	"net/http"
)

const apiKeyHeader = "X-API-Key"

// APIKeyAuth rejects requests that do not carry the configured key.
// An empty configured key disables authentication (development mode).
func APIKeyAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey != "" {
				provided := r.Header.Get(apiKeyHeader)
				if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusUnauthorized)
					w.Write([]byte(`{"error":"invalid or missing API key"}`))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
