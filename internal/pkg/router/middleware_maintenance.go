package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/levelup/internal/pkg/config"
)

// middlewareMaintenance answers 503 for the routes in app.maintenance.endpoints. An
// entry ending in "*" closes every route under that prefix, so "/api/v1/realtime/*"
// drains the socket endpoint while REST and the inbox keep serving.
func middlewareMaintenance(cfg config.Config) Middleware {
	exact := make(map[string]struct{})
	var prefixes []string
	if cfg != nil {
		for _, ep := range cfg.GetArray("app.maintenance.endpoints") {
			switch ep = strings.TrimSpace(ep); {
			case ep == "":
			case strings.HasSuffix(ep, "*"):
				prefixes = append(prefixes, strings.TrimSuffix(ep, "*"))
			default:
				exact[ep] = struct{}{}
			}
		}
	}

	blocked := func(route string) bool {
		if _, ok := exact[route]; ok {
			return true
		}
		for _, p := range prefixes {
			if strings.HasPrefix(route, p) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if blocked(matchedRoutePath(r)) {
				writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
