package router

import (
	"errors"
	"net/http"

	"github.com/shandysiswandi/levelup/internal/pkg/jwt"
)

// middlewareAuthentication verifies the bearer token of every non-public route and
// stores the claims in the context. Failures carry a WWW-Authenticate challenge so
// the watch client can tell an expired token from a missing one.
func middlewareAuthentication(verifier jwt.JWT, public map[string]map[string]struct{}) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := public[r.Method][matchedRoutePath(r)]; ok {
				next.ServeHTTP(w, r)
				return
			}

			token := jwt.BearerToken(r)
			if token == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="levelup"`)
				writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				msg := "Invalid token"
				if errors.Is(err, jwt.ErrTokenExpired) {
					msg = "Token expired"
				}
				w.Header().Set("WWW-Authenticate", `Bearer realm="levelup", error="invalid_token"`)
				writeJSON(w, errorResponse{Message: msg}, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(jwt.SetAuth(r.Context(), claims)))
		})
	}
}
