package router

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/casbin/casbin/v3"
	"github.com/shandysiswandi/levelup/internal/pkg/jwt"
)

// Authorize returns a middleware that checks the authenticated subject against the casbin policy
// for obj and act. It must run after authentication.
func (r *Router) Authorize(obj, act string) Middleware {
	return middlewareAuthorization(r.enforcer, obj, act)
}

func middlewareAuthorization(enforcer *casbin.Enforcer, obj, act string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clm := jwt.GetAuth(r.Context())
			if clm == nil {
				writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
				return
			}
			if enforcer == nil {
				writeJSON(w, errorResponse{Message: "Account not allowed"}, http.StatusForbidden)
				return
			}

			sub := strconv.FormatInt(clm.UserID, 10)
			ok, err := enforcer.Enforce(sub, obj, act)
			if err != nil {
				slog.ErrorContext(r.Context(), "failed to check authorization", "user_id", sub, "error", err)
				writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
				return
			}
			if !ok {
				writeJSON(w, errorResponse{Message: "Account not allowed"}, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
