package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/cors"

	"salesops-backend/internal/config"
)

// NewCORS builds the cross-origin policy from the server config. The
// request ID header is always allowed and exposed so browser clients can
// correlate failures with server logs. Credentials are never combined with
// a wildcard origin.
func NewCORS(cfg *config.Config) func(http.Handler) http.Handler {
	return cors.New(corsOptions(cfg)).Handler
}

func corsOptions(cfg *config.Config) cors.Options {
	s := cfg.Server
	methods := s.CorsAllowedMethods
	if len(methods) == 0 {
		methods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	}
	return cors.Options{
		AllowedOrigins:   s.CorsAllowedOrigins,
		AllowedMethods:   methods,
		AllowedHeaders:   withHeader(s.CorsAllowedHeaders, RequestIDHeader),
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: s.CorsAllowCredentials && !hasWildcard(s.CorsAllowedOrigins),
		MaxAge:           int(s.CorsMaxAge.Seconds()),
	}
}

func withHeader(headers []string, h string) []string {
	for _, x := range headers {
		if strings.EqualFold(strings.TrimSpace(x), h) {
			return headers
		}
	}
	return append(append([]string(nil), headers...), h)
}

func hasWildcard(origins []string) bool {
	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			return true
		}
	}
	return false
}
