package middleware

import (
	"crypto/subtle"
	"net/http"

	apperrors "staylock/pkg/errors"
	"staylock/pkg/logger"
)

const HeaderAPIKey = "X-API-Key"

// APIKeyAuth requires the shared internal key on every request. An empty
// key disables the check.
func APIKeyAuth(apiKey string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if apiKey == "" {
			return next
		}
		expected := []byte(apiKey)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get(HeaderAPIKey)
			if subtle.ConstantTimeCompare([]byte(provided), expected) != 1 {
				log.Warn("API key rejected",
					"request_id", RequestIDFromContext(r.Context()),
					"path", r.URL.Path,
					"has_key", provided != "",
					"remote_addr", r.RemoteAddr,
				)
				reject(w, log, r, apperrors.Unauthorized("Invalid or missing API key"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
