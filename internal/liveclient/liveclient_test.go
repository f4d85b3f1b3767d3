package liveclient

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/levelup/internal/pkg/realtime"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

var now = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func envelope(t *testing.T, kind realtime.EventKind, data any) realtime.Envelope {
	t.Helper()

	env := realtime.Envelope{ID: "01J", Event: kind, SentAt: now}
	if data != nil {
		raw, err := json.Marshal(data)
		require.NoError(t, err)
		env.Data = raw
	}
	return env
}

type fakeToaster struct {
	mu     sync.Mutex
	toasts []Toast
}

func (f *fakeToaster) Toast(_ context.Context, t Toast) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toasts = append(f.toasts, t)
}

func (f *fakeToaster) all() []Toast {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Toast(nil), f.toasts...)
}

type fakeDesktop struct {
	permitted bool
	mu        sync.Mutex
	titles    []string
}

func (f *fakeDesktop) Permitted() bool { return f.permitted }

func (f *fakeDesktop) Notify(_ context.Context, title, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titles = append(f.titles, title)
	return nil
}

type fakeAPI struct {
	mu    sync.Mutex
	stats StatsPayload
	board []LeaderboardEntry
	err   error
	// gate, when set, blocks GetStats until it is closed.
	gate chan struct{}

	statsCalls atomic.Int32
	boardCalls atomic.Int32
	limits     []int32
	tokens     []string
}

func (f *fakeAPI) setStats(p StatsPayload) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats = p
}

func (f *fakeAPI) GetStats(ctx context.Context, token string) (StatsPayload, error) {
	f.statsCalls.Inc()

	f.mu.Lock()
	gate := f.gate
	f.tokens = append(f.tokens, token)
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return StatsPayload{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats, f.err
}

func (f *fakeAPI) GetLeaderboard(_ context.Context, _ string, limit int32) ([]LeaderboardEntry, error) {
	f.boardCalls.Inc()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.limits = append(f.limits, limit)
	return f.board, f.err
}

// fakeConn is a scripted socket. It starts with the connect acknowledgement queued.
type fakeConn struct {
	in     chan realtime.Envelope
	closed chan struct{}
	once   sync.Once

	mu      sync.Mutex
	written []realtime.Envelope
}

func newFakeConn() *fakeConn {
	c := &fakeConn{in: make(chan realtime.Envelope, 16), closed: make(chan struct{})}
	c.in <- realtime.Envelope{Event: realtime.EventConnect, Channel: "recipient:7"}
	return c
}

func (c *fakeConn) ReadEnvelope() (realtime.Envelope, error) {
	select {
	case <-c.closed:
		return realtime.Envelope{}, io.EOF
	default:
	}

	select {
	case env := <-c.in:
		return env, nil
	case <-c.closed:
		return realtime.Envelope{}, io.EOF
	}
}

func (c *fakeConn) WriteEnvelope(env realtime.Envelope) error {
	select {
	case <-c.closed:
		return io.ErrClosedPipe
	default:
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, env)
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) sent() []realtime.EventKind {
	c.mu.Lock()
	defer c.mu.Unlock()

	kinds := make([]realtime.EventKind, 0, len(c.written))
	for _, env := range c.written {
		kinds = append(kinds, env.Event)
	}
	return kinds
}

type dialResult struct {
	conn *fakeConn
	err  error
}

// fakeTransport hands out queued dial results. With auto set it opens a fresh connection
// whenever the queue is empty; otherwise Dial waits for a result or ctx.
type fakeTransport struct {
	results chan dialResult
	auto    bool
	dials   atomic.Int32

	mu    sync.Mutex
	conns []*fakeConn
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{results: make(chan dialResult, 16)}
}

func (t *fakeTransport) Dial(ctx context.Context, _ string) (Conn, error) {
	t.dials.Inc()

	var r dialResult
	if t.auto {
		select {
		case r = <-t.results:
		default:
			r = dialResult{conn: newFakeConn()}
		}
	} else {
		select {
		case r = <-t.results:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if r.err != nil {
		return nil, r.err
	}

	t.mu.Lock()
	t.conns = append(t.conns, r.conn)
	t.mu.Unlock()
	return r.conn, nil
}
