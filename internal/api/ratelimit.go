package api

import (
	"net/http"
	"strings"
)

// authPathPrefix selects the endpoints that take credential guesses.
const authPathPrefix = "/api/v1/auth/"

// rateLimitAuthEndpoints limits auth endpoints per client IP. Everything
// else passes through untouched; landing page traffic must stay cheap.
func (s *Server) rateLimitAuthEndpoints(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, authPathPrefix) {
			next.ServeHTTP(w, r)
			return
		}

		key := extractIP(r.Header.Get("X-Forwarded-For"), r.Header.Get("X-Real-IP"), r.RemoteAddr)
		if !s.authLimiter.Allow(key) {
			s.logger.Warn("Rate limit exceeded",
				"ip", key,
				"path", r.URL.Path,
			)
			writeErrorEnvelope(w, http.StatusTooManyRequests,
				"RATE_LIMITED", "Too many requests. Please try again later.")
			return
		}

		next.ServeHTTP(w, r)
	})
}
