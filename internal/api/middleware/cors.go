package middleware

import (
	"net/http"
	"strings"

	"live-auction/pkg/logger"
)

// CORS allows requests from allowOrigins. "*" allows any origin.
func CORS(allowOrigins []string, log logger.Logger) func(http.Handler) http.Handler {
	allowAny := false
	allowed := make(map[string]bool, len(allowOrigins))
	for _, origin := range allowOrigins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "*" {
			allowAny = true
		}
		allowed[origin] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" && (allowAny || allowed[origin]) {
				if allowAny {
					w.Header().Set("Access-Control-Allow-Origin", "*")
				} else {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Add("Vary", "Origin")
				}
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With")
				w.Header().Set("Access-Control-Max-Age", "86400")
			} else if origin != "" {
				log.Debug("CORS origin rejected", "origin", origin, "path", r.URL.Path)
			}

			// Handle preflight OPTIONS request
			if r.Method == http.MethodOptions && origin != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
