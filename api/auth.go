/*
auth.go - Bearer authentication and per-key rate limiting

PURPOSE:
  Protects every endpoint except the health checks with one shared API key
  sent as "Authorization: Bearer <key>". Authenticated calls are then
  counted against the key's rate limit.

RESPONSES:
  401 {"error":"Invalid authentication credentials"} + WWW-Authenticate: Bearer
      when the header is missing, malformed or wrong, or when no key is
      configured.
  429 {"error":"Rate limit exceeded"} when the key is over its budget.

SEE ALSO:
  - ratelimit/ratelimit.go: Limiter implementations
  - server.go: Where these middlewares are mounted
*/
package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/warp/vacation-engine/ratelimit"
)

type contextKey string

const apiKeyContextKey contextKey = "api_key"

// RequireAPIKey rejects requests whose bearer token does not match apiKey.
// An empty apiKey rejects everything.
func RequireAPIKey(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok || apiKey == "" || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeError(w, http.StatusUnauthorized, "Invalid authentication credentials", nil)
				return
			}
			ctx := context.WithValue(r.Context(), apiKeyContextKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimit counts each request against the authenticated key. Limiter
// faults let the request through.
func RateLimit(limiter ratelimit.Limiter, logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, _ := r.Context().Value(apiKeyContextKey).(string)

			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.WithError(err).Warn("rate limiter unavailable, allowing request")
				allowed = true
			}
			if !allowed {
				writeError(w, http.StatusTooManyRequests, "Rate limit exceeded", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
