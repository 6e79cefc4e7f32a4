package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/apptcalendar/libs/httpx"
)

type ctxKey int

const ctxKeyClaims ctxKey = iota

// ClaimsFromContext returns the claims RequireBearer verified for this request.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxKeyClaims).(*Claims)
	return c, ok
}

// RequireBearer verifies an HS256 bearer token and stores its claims in the request context.
// An empty secret disables authentication, which is how local development runs.
func RequireBearer(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
			if !strings.HasPrefix(authHeader, "Bearer ") || len(authHeader) <= len("Bearer ") {
				unauthorized(w, "missing or invalid Authorization header")
				return
			}
			claims, err := ParseAndVerifyHS256(strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")), secret)
			if err != nil {
				unauthorized(w, "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyClaims, claims)))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", msg)
}
