package router

import (
	"net"
	"net/http"
	"strings"
)

// middlewareIP rewrites RemoteAddr to the client address reported by a proxy.
func middlewareIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ip := realIP(r); ip != "" {
			r.RemoteAddr = ip
		}
		next.ServeHTTP(w, r)
	})
}

var realIPHeaders = []string{"True-Client-IP", "X-Real-IP", "X-Forwarded-For"}

func realIP(r *http.Request) string {
	for _, name := range realIPHeaders {
		v := r.Header.Get(name)
		if v == "" {
			continue
		}
		first, _, _ := strings.Cut(v, ",")
		if ip := hostIP(strings.TrimSpace(first)); ip != "" {
			return ip
		}
	}
	return hostIP(r.RemoteAddr)
}

// hostIP accepts "ip" or "ip:port" and returns the ip, or "" when v holds no address.
func hostIP(v string) string {
	if host, _, err := net.SplitHostPort(v); err == nil {
		v = host
	}
	if net.ParseIP(v) == nil {
		return ""
	}
	return v
}
