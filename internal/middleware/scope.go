package middleware

import (
	"net/http"
	"slices"
)

// RequireScope must run after JWTAuth.
func RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !slices.Contains(ScopesFromContext(r.Context()), scope) {
				writeAuthError(w, http.StatusForbidden, "insufficient_scope", "Missing scope "+scope)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
