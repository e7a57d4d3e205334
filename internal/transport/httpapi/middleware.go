package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/goliatone/go-ticketing/internal/auth"
)

type contextKey string

const claimsKey contextKey = "httpapi.claims"

// claimsFrom returns the verified identity stored by requireAuth.
func claimsFrom(ctx context.Context) (auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(auth.Claims)
	return claims, ok
}

// requireAuth verifies the bearer token and stores its claims on the request
// context. Requests without a valid token never reach the wrapped handler.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := s.auth.VerifyAccess(strings.TrimSpace(token))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
