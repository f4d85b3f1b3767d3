package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shandysiswandi/levelup/internal/pkg/jwt"
)

// ServerOptions tunes the websocket endpoint. Zero values select the defaults.
type ServerOptions struct {
	// AllowedOrigins restricts the Origin header; empty allows any origin.
	AllowedOrigins []string
	SendBuffer     int
	ReadLimit      int64
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
}

func (o ServerOptions) withDefaults() ServerOptions {
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = 4 << 10
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 10 * time.Second
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.PingPeriod <= 0 || o.PingPeriod >= o.PongWait {
		o.PingPeriod = o.PongWait * 9 / 10
	}
	return o
}

// Server upgrades authenticated requests to websocket subscribers of a Hub.
type Server struct {
	hub      *Hub
	opts     ServerOptions
	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.RWMutex
	shutdown bool
}

// NewServer creates the websocket endpoint for hub.
func NewServer(hub *Hub, opts ServerOptions) *Server {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{hub: hub, opts: opts, ctx: ctx, cancel: cancel}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.opts.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || slices.Contains(s.opts.AllowedOrigins, origin)
}

// ServeHTTP expects the authentication middleware to have stored the caller's claims.
// It blocks for the lifetime of the connection.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clm := jwt.GetAuth(r.Context())
	if clm == nil || clm.UserID <= 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		//nolint:errcheck // best effort
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Authentication required"})
		return
	}

	s.mu.RLock()
	if s.shutdown {
		s.mu.RUnlock()
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}
	s.wg.Add(1)
	s.mu.RUnlock()
	defer s.wg.Done()

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), "websocket upgrade failed", "user_id", clm.UserID, "error", err)
		return
	}

	// keep request values (correlation id, claims) but follow the server lifetime
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	c := newConn(ws, clm.UserID, s.opts)
	unsubscribe := s.hub.Subscribe(ctx, clm.UserID, c)
	defer unsubscribe()

	if env, err := s.hub.Envelope(clm.UserID, EventConnect, ConnectData{UserID: clm.UserID, Status: "connected"}); err == nil {
		c.Deliver(env)
	}
	slog.InfoContext(ctx, "realtime client connected", "user_id", clm.UserID, "remote", r.RemoteAddr)

	writeErr := make(chan error, 1)
	go func() { writeErr <- c.writeLoop(ctx) }()

	go func() {
		<-ctx.Done()
		//nolint:errcheck // unblocks the read loop
		_ = c.Close()
	}()

	readErr := c.readLoop(ctx, s.hub)
	//nolint:errcheck // already closing
	_ = c.Close()
	cancel()
	if err := <-writeErr; err != nil && ctx.Err() == nil {
		slog.DebugContext(ctx, "realtime write loop ended", "user_id", clm.UserID, "error", err)
	}
	if readErr != nil {
		slog.DebugContext(ctx, "realtime read loop ended", "user_id", clm.UserID, "error", readErr)
	}

	slog.InfoContext(ctx, "realtime client disconnected", "user_id", clm.UserID)
}

// Close disconnects every websocket client and waits for their handlers to return.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		return nil
	}
	s.shutdown = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	return nil
}
