package router

import (
	"net/http"
	"sync"

	"github.com/casbin/casbin/v3"
	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/levelup/internal/pkg/config"
	"github.com/shandysiswandi/levelup/internal/pkg/instrument"
	"github.com/shandysiswandi/levelup/internal/pkg/jwt"
	"github.com/shandysiswandi/levelup/internal/pkg/uid"
)

// Handler returns a payload to encode as JSON, or an error mapped through goerror.
type Handler func(r *Request) (any, error)

type Config struct {
	Config     config.Config
	UUID       uid.StringID
	JWT        jwt.JWT
	Instrument instrument.Instrumentation
	Enforcer   *casbin.Enforcer
	// PublicPaths are GET routes served without a token. "/" and "/health" are
	// always public.
	PublicPaths []string
}

// Router is an http.Handler over httprouter with the application middleware chain.
type Router struct {
	hr       *httprouter.Router
	enforcer *casbin.Enforcer
	mws      []Middleware

	mu      sync.RWMutex
	streams map[string]struct{}
}

func NewRouter(cfg Config) *Router {
	hr := &httprouter.Router{
		RedirectTrailingSlash:  true,
		RedirectFixedPath:      true,
		HandleMethodNotAllowed: true,
		HandleOPTIONS:          true,
		SaveMatchedRoutePath:   true,
		NotFound: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, map[string]string{"message": "endpoint not found"}, http.StatusNotFound)
		}),
		MethodNotAllowed: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, map[string]string{"message": "method not allowed"}, http.StatusMethodNotAllowed)
		}),
	}

	hr.GET("/", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		writeJSON(w, map[string]string{"message": "Welcome to LevelUp realtime API"}, http.StatusOK)
	})
	hr.GET("/health", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	})

	public := map[string]map[string]struct{}{
		http.MethodGet: {"/": {}, "/health": {}},
	}
	for _, p := range cfg.PublicPaths {
		public[http.MethodGet][p] = struct{}{}
	}

	ro := &Router{
		hr:       hr,
		enforcer: cfg.Enforcer,
		streams:  make(map[string]struct{}),
	}
	ro.mws = []Middleware{
		middlewareRecoverer,
		middlewareIP,
		middlewareCorrelationID(cfg.UUID),
		middlewareObservability(cfg.Config, cfg.Instrument, ro.isStream),
		middlewareMaintenance(cfg.Config),
		middlewareAuthentication(cfg.JWT, public),
	}

	return ro
}

func (r *Router) GET(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodGet, path, h, mws...)
}

// GETRaw registers a GET endpoint that writes its own response, such as /metrics.
func (r *Router) GETRaw(path string, h http.Handler, mws ...Middleware) {
	r.hr.Handler(http.MethodGet, path, Chain(h, append(r.mws, mws...)...))
}

// Stream registers a long-lived GET endpoint (SSE or websocket). It passes through
// the same middleware, but its body is not captured and it is logged on open and close.
func (r *Router) Stream(path string, h http.Handler, mws ...Middleware) {
	r.mu.Lock()
	r.streams[path] = struct{}{}
	r.mu.Unlock()

	r.GETRaw(path, h, mws...)
}

func (r *Router) POST(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodPost, path, h, mws...)
}

func (r *Router) PUT(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodPut, path, h, mws...)
}

func (r *Router) PATCH(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodPatch, path, h, mws...)
}

func (r *Router) DELETE(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodDelete, path, h, mws...)
}

func (r *Router) endpoint(method, path string, h Handler, mws ...Middleware) {
	r.hr.Handler(method, path, Chain(http.HandlerFunc(func(w http.ResponseWriter, re *http.Request) {
		resp, err := h(&Request{Request: re})
		if err != nil {
			if setter, ok := w.(interface{ SetError(error) }); ok {
				setter.SetError(err)
			}
			writeError(re.Context(), w, err)
			return
		}
		writeSuccess(re.Context(), w, resp)
	}), append(r.mws, mws...)...))
}

func (r *Router) isStream(route string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.streams[route]
	return ok
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}
