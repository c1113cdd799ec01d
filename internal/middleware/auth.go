package middleware

import (
	"net/http"
	"strings"

	"cinreq/internal/auth"
	"cinreq/internal/httputil"
)

// AuthMiddleware verifies the bearer token on every request and places the
// authenticated identity in the request context. The health endpoint and
// CORS pre-flight requests pass through unauthenticated.
func AuthMiddleware(verifier auth.JWTVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			displayName := claims.DisplayName
			if displayName == "" {
				displayName = claims.Email
			}

			next.ServeHTTP(w, httputil.WithIdentity(r, claims.GetUserID(), displayName))
		})
	}
}
