package liveclient

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/levelup/internal/pkg/clock"
	"github.com/shandysiswandi/levelup/internal/pkg/realtime"
)

// ErrNotConnected is returned by socket requests made while no connection is up.
var ErrNotConnected = errors.New("liveclient: not connected")

// Options tunes a Manager. Zero values select the defaults.
type Options struct {
	// ReconnectAttempts bounds the dials made after a drop. Default 5.
	ReconnectAttempts int
	// ReconnectDelay is the first backoff step. Default 1s.
	ReconnectDelay time.Duration
	// ReconnectMaxDelay caps the backoff. Default 5s.
	ReconnectMaxDelay time.Duration
	// FallbackInterval is the period of the safety net resync. Default 5m.
	FallbackInterval time.Duration
	LeaderboardLimit int32
}

func (o Options) withDefaults() Options {
	if o.ReconnectAttempts <= 0 {
		o.ReconnectAttempts = 5
	}
	if o.ReconnectDelay <= 0 {
		o.ReconnectDelay = time.Second
	}
	if o.ReconnectMaxDelay < o.ReconnectDelay {
		o.ReconnectMaxDelay = max(5*time.Second, o.ReconnectDelay)
	}
	if o.FallbackInterval <= 0 {
		o.FallbackInterval = defaultFallbackInterval
	}
	if o.LeaderboardLimit <= 0 {
		o.LeaderboardLimit = defaultLeaderboardLimit
	}
	return o
}

func (o Options) backoff() retry.Backoff {
	b := retry.NewExponential(o.ReconnectDelay)
	b = retry.WithCappedDuration(o.ReconnectMaxDelay, b)
	return retry.WithMaxRetries(uint64(o.ReconnectAttempts-1), b)
}

type Dependency struct {
	Transport Transport
	API       StatsReader
	Clock     clock.Clocker
	Toaster   Toaster
	// Desktop is optional.
	Desktop Desktop
	Options Options
	// OnState observes every state change. It is called without locks held, possibly from
	// several goroutines, and must not block.
	OnState func(ConnectionState)
}

// Manager owns one socket per session and moves it through the transition table.
type Manager struct {
	transport Transport
	clock     clock.Clocker
	opts      Options
	onState   func(ConnectionState)

	store  *Store
	router *Router
	coord  *Coordinator

	// opMu serializes Initialize and Teardown.
	opMu sync.Mutex

	mu         sync.Mutex
	state      ConnectionState
	credential string
	conn       Conn
	ctx        context.Context
	cancel     context.CancelFunc
	handle     *Handle

	wg sync.WaitGroup
}

func NewManager(dep Dependency) *Manager {
	m := &Manager{
		transport: dep.Transport,
		clock:     dep.Clock,
		opts:      dep.Options.withDefaults(),
		onState:   dep.OnState,
	}

	toaster := dep.Toaster
	if toaster == nil {
		toaster = nopToaster{}
	}

	m.store = NewStore(dep.Clock)
	m.router = NewRouter(m.store, toaster, dep.Desktop)
	m.coord = NewCoordinator(dep.API, sessionCredential{m: m}, m.store, m.opts.FallbackInterval, m.opts.LeaderboardLimit)
	return m
}

// Initialize starts a session for credential and returns its handle. It returns the live
// handle when the same credential is already connected or connecting, and nil when the
// credential is empty. Only Teardown ends the session; ctx contributes values only.
func (m *Manager) Initialize(ctx context.Context, credential string) *Handle {
	if credential == "" {
		return nil
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	if m.handle != nil && m.credential == credential && m.state.Status != StatusDisconnected {
		h := m.handle
		m.mu.Unlock()
		return h
	}
	m.mu.Unlock()

	m.teardown()
	m.store.Reset()
	notifications := m.router.reset()

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	m.mu.Lock()
	m.credential = credential
	m.ctx = runCtx
	m.cancel = cancel
	h := newHandle(m, notifications)
	m.handle = h
	st, _ := m.fireLocked(triggerInitialize, nil)
	m.wg.Add(2)
	m.mu.Unlock()
	m.observe(st)

	go m.run(runCtx)
	go func() {
		defer m.wg.Done()
		m.coord.Run(runCtx)
	}()

	return h
}

// Teardown ends the session. It is idempotent, and once it returns no handler, reconnect
// or fallback refresh of that session runs again.
func (m *Manager) Teardown() {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.teardown()
}

func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Status == StatusConnected
}

func (m *Manager) State() ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) teardown() {
	m.mu.Lock()
	cancel := m.cancel
	conn := m.conn
	h := m.handle
	m.cancel, m.conn, m.handle, m.ctx = nil, nil, nil, nil
	m.credential = ""
	m.router.close()
	prev := m.state.Status
	st, _ := m.fireLocked(triggerTeardown, nil)
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		//nolint:errcheck // closing is best effort on teardown
		_ = conn.Close()
	}
	m.wg.Wait()

	if h != nil {
		h.release()
		m.store.SetOnline(false)
	}
	if prev != StatusDisconnected {
		m.observe(st)
	}
}

// fireLocked applies t to the state. The caller holds mu.
func (m *Manager) fireLocked(t trigger, err error) (ConnectionState, bool) {
	tr, ok := next(m.state.Status, t)
	if !ok {
		slog.Debug("ignoring invalid connection transition", "from", m.state.Status, "trigger", t)
		return m.state, false
	}

	m.state.Status = tr.to
	switch t {
	case triggerInitialize:
		m.state = ConnectionState{Status: tr.to}
	case triggerAck:
		m.state.Cause = tr.cause
		m.state.AttemptCount = 0
		m.state.LastError = nil
	case triggerTransportError:
		m.state.AttemptCount++
		m.state.LastError = err
	case triggerDrop, triggerRejected, triggerExhausted:
		m.state.LastError = err
	case triggerTeardown:
		m.state = ConnectionState{Status: tr.to}
	}
	m.state.HasCredential = m.credential != ""

	return m.state, true
}

func (m *Manager) fire(t trigger, err error) bool {
	m.mu.Lock()
	st, ok := m.fireLocked(t, err)
	m.mu.Unlock()

	if ok {
		m.observe(st)
	}
	return ok
}

func (m *Manager) observe(st ConnectionState) {
	if m.onState != nil {
		m.onState(st)
	}
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	conn, err := m.dial(ctx)
	if err != nil && ctx.Err() == nil && !errors.Is(err, ErrRejected) {
		slog.WarnContext(ctx, "realtime connect failed", "error", err)
		m.fire(triggerTransportError, err)
		conn, err = m.reconnect(ctx)
	}

	for err == nil {
		if !m.connected(ctx, conn) {
			return
		}

		readErr := m.serve(ctx, conn)
		if !m.dropped(ctx, conn, readErr) {
			return
		}

		conn, err = m.reconnect(ctx)
	}

	m.stopped(ctx, err)
}

func (m *Manager) dial(ctx context.Context) (Conn, error) {
	conn, err := m.transport.Dial(ctx, m.sessionToken())
	if err != nil {
		return nil, err
	}

	stop := context.AfterFunc(ctx, func() {
		//nolint:errcheck // unblocks the handshake read
		_ = conn.Close()
	})
	ack, err := conn.ReadEnvelope()
	stop()

	if err == nil && ack.Event != realtime.EventConnect {
		err = ErrNoAck
	}
	if err != nil {
		//nolint:errcheck // the handshake already failed
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

func (m *Manager) reconnect(ctx context.Context) (Conn, error) {
	return retry.DoValue(ctx, m.opts.backoff(), func(ctx context.Context) (Conn, error) {
		conn, err := m.dial(ctx)
		if err == nil {
			return conn, nil
		}
		if errors.Is(err, ErrRejected) || ctx.Err() != nil {
			return nil, err
		}

		slog.DebugContext(ctx, "realtime reconnect attempt failed", "error", err)
		m.fire(triggerTransportError, err)
		return nil, retry.RetryableError(err)
	})
}

// connected moves to Connected and resyncs. It reports false when the session ended first.
func (m *Manager) connected(ctx context.Context, conn Conn) bool {
	m.mu.Lock()
	if ctx.Err() != nil {
		m.mu.Unlock()
		//nolint:errcheck // session is gone
		_ = conn.Close()
		return false
	}
	st, ok := m.fireLocked(triggerAck, nil)
	if !ok {
		m.mu.Unlock()
		//nolint:errcheck // session is gone
		_ = conn.Close()
		return false
	}
	m.conn = conn
	m.router.open()
	m.wg.Add(1)
	m.mu.Unlock()
	m.observe(st)

	slog.InfoContext(ctx, "realtime connected", "cause", st.Cause)
	m.router.Dispatch(ctx, m.lifecycle(realtime.EventConnect, nil))

	go func() {
		defer m.wg.Done()
		m.coord.Resync(ctx)
	}()
	m.requestResync(ctx, conn)

	return true
}

func (m *Manager) requestResync(ctx context.Context, conn Conn) {
	if err := conn.WriteEnvelope(m.envelope(realtime.EventStatsRefresh, nil)); err != nil {
		slog.DebugContext(ctx, "failed to request stats refresh", "error", err)
		return
	}

	req := realtime.LeaderboardRequest{Limit: m.opts.LeaderboardLimit}
	if err := conn.WriteEnvelope(m.envelope(realtime.EventLeaderboardRefresh, req)); err != nil {
		slog.DebugContext(ctx, "failed to request leaderboard refresh", "error", err)
	}
}

// serve feeds the router until the socket fails or the session ends.
func (m *Manager) serve(ctx context.Context, conn Conn) error {
	stop := context.AfterFunc(ctx, func() {
		//nolint:errcheck // unblocks the read loop
		_ = conn.Close()
	})
	defer stop()

	for {
		env, err := conn.ReadEnvelope()
		if err != nil {
			return err
		}
		m.router.Dispatch(ctx, env)
	}
}

// dropped moves to Reconnecting. It reports false when the session ended first.
func (m *Manager) dropped(ctx context.Context, conn Conn, err error) bool {
	//nolint:errcheck // already broken
	_ = conn.Close()

	m.mu.Lock()
	if ctx.Err() != nil {
		m.mu.Unlock()
		return false
	}
	m.router.close()
	m.conn = nil
	st, ok := m.fireLocked(triggerDrop, err)
	m.mu.Unlock()
	if !ok {
		return false
	}
	m.observe(st)

	slog.WarnContext(ctx, "realtime connection dropped", "error", err)
	m.router.Dispatch(ctx, m.lifecycle(realtime.EventDisconnect, err))
	return true
}

// stopped records why the session gave up on the socket.
func (m *Manager) stopped(ctx context.Context, err error) {
	if ctx.Err() != nil {
		return
	}

	t := triggerExhausted
	if errors.Is(err, ErrRejected) {
		t = triggerRejected
	}
	if !m.fire(t, err) {
		return
	}

	slog.WarnContext(ctx, "realtime connection stopped", "reason", t, "error", err)
	m.router.Dispatch(ctx, m.lifecycle(realtime.EventConnectError, err))
}

func (m *Manager) envelope(kind realtime.EventKind, data any) realtime.Envelope {
	env := realtime.Envelope{Event: kind, SentAt: m.clock.Now().UTC()}
	if data != nil {
		if raw, err := json.Marshal(data); err == nil {
			env.Data = raw
		}
	}
	return env
}

func (m *Manager) lifecycle(kind realtime.EventKind, err error) realtime.Envelope {
	if err == nil {
		return m.envelope(kind, nil)
	}
	return m.envelope(kind, LifecycleData{Error: err.Error()})
}

func (m *Manager) sessionToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.credential
}

// spawn runs fn on the session of h. It reports false when h is no longer live.
func (m *Manager) spawn(h *Handle, fn func(ctx context.Context)) bool {
	m.mu.Lock()
	if m.handle != h || m.ctx == nil {
		m.mu.Unlock()
		return false
	}
	ctx := m.ctx
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		fn(ctx)
	}()
	return true
}

func (m *Manager) request(h *Handle, kind realtime.EventKind, data any) error {
	m.mu.Lock()
	if m.handle != h || m.conn == nil || m.state.Status != StatusConnected {
		m.mu.Unlock()
		return ErrNotConnected
	}
	conn := m.conn
	m.mu.Unlock()

	return conn.WriteEnvelope(m.envelope(kind, data))
}

func (m *Manager) closeHandle(h *Handle) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	current := m.handle == h
	m.mu.Unlock()

	if current {
		m.teardown()
	}
}

// sessionCredential hands the live session token to the coordinator, so fallback
// refreshes go quiet once the session is torn down.
type sessionCredential struct {
	m *Manager
}

func (s sessionCredential) Token() string { return s.m.sessionToken() }

type nopToaster struct{}

func (nopToaster) Toast(context.Context, Toast) {}
