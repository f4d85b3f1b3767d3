package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/levelup/internal/pkg/instrument"
	"github.com/shandysiswandi/levelup/internal/pkg/uid"
)

const (
	HeaderCorrelationID = "X-Correlation-ID"
	// HeaderRequestID is accepted when a proxy already stamped the request.
	HeaderRequestID = "X-Request-ID"

	maxCorrelationIDLen = 128
)

// middlewareCorrelationID reuses an incoming correlation id or mints one, echoes it
// on the response and stores it in the context so logs carry _cID.
func middlewareCorrelationID(gen uid.StringID) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid := incomingCorrelationID(r.Header)
			if cid == "" && gen != nil {
				cid = gen.Generate()
			}
			if cid == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set(HeaderCorrelationID, cid)
			next.ServeHTTP(w, r.WithContext(instrument.SetCorrelationID(r.Context(), cid)))
		})
	}
}

func incomingCorrelationID(h http.Header) string {
	for _, name := range []string{HeaderCorrelationID, HeaderRequestID} {
		v := h.Get(name)
		if v == "" || strings.ContainsAny(v, "\r\n") {
			continue
		}
		if v = strings.TrimSpace(v); v != "" {
			return v[:min(len(v), maxCorrelationIDLen)]
		}
	}
	return ""
}
