package router

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/shandysiswandi/levelup/internal/pkg/stacktrace"
)

// middlewareRecoverer turns a handler panic into a 500. Websocket upgrades are only
// logged because the hijacked connection no longer speaks HTTP.
func middlewareRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			//nolint:errorlint // http.ErrAbortHandler is compared by identity
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			logPanic(r.Context(), r, rvr, debug.Stack())
			if isWebsocketUpgrade(r) {
				return
			}
			writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}

func logPanic(ctx context.Context, r *http.Request, rvr any, stack []byte) {
	if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
		slog.ErrorContext(ctx, "panic on the server", "path", r.URL.Path, "because", rvr, "stack", paths)
		return
	}
	slog.ErrorContext(ctx, "panic on the server", "path", r.URL.Path, "because", rvr, "stack", string(stack))
}

func isWebsocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}
