package liveclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/levelup/internal/pkg/clock"
	"github.com/shandysiswandi/levelup/internal/pkg/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = time.Millisecond
)

type stateLog struct {
	mu     sync.Mutex
	states []ConnectionState
}

func (l *stateLog) record(st ConnectionState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states = append(l.states, st)
}

func (l *stateLog) statuses() []Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Status, 0, len(l.states))
	for _, st := range l.states {
		out = append(out, st.Status)
	}
	return out
}

func newTestManager(t *testing.T, tr Transport, api StatsReader, opts Options) (*Manager, *fakeToaster, *stateLog) {
	t.Helper()

	if opts.ReconnectDelay == 0 {
		opts.ReconnectDelay = 2 * time.Millisecond
		opts.ReconnectMaxDelay = 5 * time.Millisecond
	}
	if opts.FallbackInterval == 0 {
		opts.FallbackInterval = time.Hour
	}

	toaster := &fakeToaster{}
	log := &stateLog{}
	m := NewManager(Dependency{
		Transport: tr,
		API:       api,
		Clock:     clock.Fixed(now),
		Toaster:   toaster,
		Options:   opts,
		OnState:   log.record,
	})
	t.Cleanup(m.Teardown)
	return m, toaster, log
}

func TestManager_InitializeWithoutCredentialIsInert(t *testing.T) {
	tr := newFakeTransport()
	api := &fakeAPI{}
	m, _, log := newTestManager(t, tr, api, Options{})

	h := m.Initialize(context.Background(), "")

	assert.Nil(t, h)
	assert.Zero(t, tr.dials.Load())
	assert.Equal(t, StatusDisconnected, m.State().Status)
	assert.Empty(t, log.statuses())
}

func TestManager_InitializeTwiceDialsOnce(t *testing.T) {
	// Arrange
	tr := newFakeTransport()
	conn := newFakeConn()
	tr.results <- dialResult{conn: conn}
	api := &fakeAPI{board: []LeaderboardEntry{{Rank: 1, UserID: "7", Points: 50}}}
	api.setStats(StatsPayload{Level: ptr(int64(3)), Points: ptr(int64(150))})
	m, _, _ := newTestManager(t, tr, api, Options{LeaderboardLimit: 25})
	ctx := context.Background()

	// Act
	h1 := m.Initialize(ctx, "tok")
	h2 := m.Initialize(ctx, "tok")
	require.Eventually(t, m.IsConnected, waitFor, tick)
	h3 := m.Initialize(ctx, "tok")

	// Assert
	require.NotNil(t, h1)
	assert.Same(t, h1, h2)
	assert.Same(t, h1, h3)
	assert.Equal(t, int32(1), tr.dials.Load())

	st := m.State()
	assert.Equal(t, CauseFirstConnect, st.Cause)
	assert.True(t, st.HasCredential)

	require.Eventually(t, func() bool {
		snap := h1.Snapshot()
		return snap.Points != nil && len(snap.Leaderboard) == 1
	}, waitFor, tick)
	assert.Equal(t, int64(150), *h1.Snapshot().Points)
	assert.True(t, h1.Snapshot().Online)
	assert.Equal(t, []int32{25}, api.limits)

	require.Eventually(t, func() bool { return len(conn.sent()) == 2 }, waitFor, tick)
	assert.Equal(t, []realtime.EventKind{realtime.EventStatsRefresh, realtime.EventLeaderboardRefresh}, conn.sent())
}

func TestManager_NewCredentialReplacesSession(t *testing.T) {
	tr := newFakeTransport()
	tr.auto = true
	api := &fakeAPI{}
	m, _, _ := newTestManager(t, tr, api, Options{})
	ctx := context.Background()

	h1 := m.Initialize(ctx, "alice")
	require.Eventually(t, m.IsConnected, waitFor, tick)

	h2 := m.Initialize(ctx, "bob")
	require.Eventually(t, m.IsConnected, waitFor, tick)

	assert.NotSame(t, h1, h2)
	assert.Equal(t, int32(2), tr.dials.Load())
	select {
	case <-h1.Done():
	default:
		t.Fatal("old handle should be released")
	}
	assert.False(t, h1.TriggerRefresh())
	assert.Equal(t, "bob", m.sessionToken())
}

func TestManager_RejectedIsTerminal(t *testing.T) {
	// Arrange
	tr := newFakeTransport()
	tr.results <- dialResult{err: fmt.Errorf("%w: status 401", ErrRejected)}
	m, _, log := newTestManager(t, tr, &fakeAPI{}, Options{})

	// Act
	h := m.Initialize(context.Background(), "expired")

	// Assert
	require.NotNil(t, h)
	require.Eventually(t, func() bool { return m.State().Status == StatusDisconnected }, waitFor, tick)
	assert.ErrorIs(t, m.State().LastError, ErrRejected)
	assert.Never(t, func() bool { return tr.dials.Load() > 1 }, 30*time.Millisecond, tick)
	assert.Equal(t, []Status{StatusConnecting, StatusDisconnected}, log.statuses())
	assert.Equal(t, StatusDisconnected, h.State().Status)
}

func TestManager_ReconnectAttemptsAreBounded(t *testing.T) {
	// Arrange
	tr := newFakeTransport()
	for range 4 {
		tr.results <- dialResult{err: errors.New("connection refused")}
	}
	m, _, log := newTestManager(t, tr, &fakeAPI{}, Options{ReconnectAttempts: 3})

	// Act
	m.Initialize(context.Background(), "tok")

	// Assert
	require.Eventually(t, func() bool { return m.State().Status == StatusDisconnected }, waitFor, tick)
	assert.Equal(t, int32(4), tr.dials.Load(), "first dial plus three reconnects")
	assert.EqualError(t, m.State().LastError, "connection refused")
	assert.Never(t, func() bool { return tr.dials.Load() > 4 }, 30*time.Millisecond, tick)
	assert.Equal(t, []Status{
		StatusConnecting, StatusReconnecting, StatusReconnecting, StatusReconnecting, StatusReconnecting, StatusDisconnected,
	}, log.statuses())
}

func TestManager_ReconnectResyncsAndIgnoresEventsWhileDown(t *testing.T) {
	// Arrange
	tr := newFakeTransport()
	conn1 := newFakeConn()
	tr.results <- dialResult{conn: conn1}
	api := &fakeAPI{}
	api.setStats(StatsPayload{Level: ptr(int64(3)), Points: ptr(int64(100))})
	m, _, _ := newTestManager(t, tr, api, Options{})
	ctx := context.Background()

	h := m.Initialize(ctx, "tok")
	require.Eventually(t, func() bool {
		p := h.Snapshot().Points
		return p != nil && *p == 100
	}, waitFor, tick)

	// Act: the socket drops and the server moves on while the client is away.
	api.setStats(StatsPayload{Level: ptr(int64(4)), Points: ptr(int64(250))})
	require.NoError(t, conn1.Close())
	require.Eventually(t, func() bool { return m.State().Status == StatusReconnecting }, waitFor, tick)
	require.Eventually(t, func() bool { return !h.Snapshot().Online }, waitFor, tick)

	m.router.Dispatch(ctx, envelope(t, realtime.EventStatsUpdate, StatsPayload{Points: ptr(int64(999))}))
	assert.Equal(t, int64(100), *h.Snapshot().Points)

	conn2 := newFakeConn()
	tr.results <- dialResult{conn: conn2}

	// Assert
	require.Eventually(t, m.IsConnected, waitFor, tick)
	assert.Equal(t, CauseReconnect, m.State().Cause)
	require.Eventually(t, func() bool { return *h.Snapshot().Points == 250 }, waitFor, tick)
	assert.Equal(t, int64(4), *h.Snapshot().Level)
	require.Eventually(t, func() bool { return len(conn2.sent()) == 2 }, waitFor, tick)
	assert.GreaterOrEqual(t, api.statsCalls.Load(), int32(2))
}

func TestManager_PushesAreRoutedInOrder(t *testing.T) {
	tr := newFakeTransport()
	conn := newFakeConn()
	tr.results <- dialResult{conn: conn}
	m, toaster, _ := newTestManager(t, tr, &fakeAPI{}, Options{})

	h := m.Initialize(context.Background(), "tok")
	require.Eventually(t, m.IsConnected, waitFor, tick)

	conn.in <- envelope(t, realtime.EventStatsUpdate, StatsPayload{Level: ptr(int64(2))})
	conn.in <- envelope(t, realtime.EventStatsUpdate, StatsPayload{Level: ptr(int64(3))})
	conn.in <- envelope(t, realtime.EventStatsUpdate, StatsPayload{Level: ptr(int64(3))})
	conn.in <- envelope(t, realtime.EventNotificationNew, Notification{ID: "1", Type: "achievement", Title: "First blood"})

	select {
	case n := <-h.Notifications():
		assert.Equal(t, "First blood", n.Title)
	case <-time.After(waitFor):
		t.Fatal("notification not routed")
	}
	toasts := toaster.all()
	require.Len(t, toasts, 2)
	assert.Equal(t, ToastLevelUp, toasts[0].Kind)
	assert.Equal(t, ToastAchievement, toasts[1].Kind)
	assert.Equal(t, int64(3), *h.Snapshot().Level)
}

func TestManager_NotificationsDoNotLeakAcrossSessions(t *testing.T) {
	// Arrange
	tr := newFakeTransport()
	alice := newFakeConn()
	tr.results <- dialResult{conn: alice}
	m, _, _ := newTestManager(t, tr, &fakeAPI{}, Options{})
	ctx := context.Background()

	h1 := m.Initialize(ctx, "token-alice")
	require.Eventually(t, m.IsConnected, waitFor, tick)
	alice.in <- envelope(t, realtime.EventNotificationNew, Notification{ID: "n1", Type: "system", Title: "for alice"})
	require.Eventually(t, func() bool { return len(h1.Notifications()) == 1 }, waitFor, tick)

	// Act
	m.Teardown()
	bob := newFakeConn()
	tr.results <- dialResult{conn: bob}
	h2 := m.Initialize(ctx, "token-bob")
	require.Eventually(t, m.IsConnected, waitFor, tick)

	// Assert
	require.NotSame(t, h1, h2)
	assert.Len(t, h1.Notifications(), 1, "alice's unread signal stays with her dead handle")
	assert.Empty(t, h2.Notifications())

	bob.in <- envelope(t, realtime.EventNotificationNew, Notification{ID: "n2", Type: "system", Title: "for bob"})
	select {
	case n := <-h2.Notifications():
		assert.Equal(t, "n2", n.ID)
		assert.Equal(t, "for bob", n.Title)
	case <-time.After(waitFor):
		t.Fatal("notification not routed to the new session")
	}
}

func TestManager_TeardownTwiceStopsEverything(t *testing.T) {
	// Arrange
	tr := newFakeTransport()
	conn := newFakeConn()
	tr.results <- dialResult{conn: conn}
	api := &fakeAPI{}
	m, toaster, _ := newTestManager(t, tr, api, Options{FallbackInterval: 5 * time.Millisecond})

	h := m.Initialize(context.Background(), "tok")
	require.Eventually(t, m.IsConnected, waitFor, tick)

	// Act
	m.Teardown()
	m.Teardown()

	// Assert
	assert.Equal(t, ConnectionState{Status: StatusDisconnected}, m.State())
	assert.True(t, conn.isClosed())
	assert.False(t, h.Snapshot().Online)
	select {
	case <-h.Done():
	default:
		t.Fatal("handle should be released")
	}

	calls := api.statsCalls.Load()
	conn.in <- envelope(t, realtime.EventNotificationNew, Notification{ID: "late", Type: "system"})
	assert.False(t, h.TriggerRefresh())
	assert.ErrorIs(t, h.RequestLeaderboard(10), ErrNotConnected)
	assert.Never(t, func() bool {
		return api.statsCalls.Load() != calls || len(toaster.all()) > 0 || tr.dials.Load() > 1
	}, 30*time.Millisecond, tick)
}

func TestManager_TeardownWhileReconnecting(t *testing.T) {
	tr := newFakeTransport()
	tr.results <- dialResult{err: errors.New("connection refused")}
	m, _, _ := newTestManager(t, tr, &fakeAPI{}, Options{})

	h := m.Initialize(context.Background(), "tok")
	require.Eventually(t, func() bool { return m.State().Status == StatusReconnecting }, waitFor, tick)

	h.Close()

	assert.Equal(t, StatusDisconnected, m.State().Status)
	dials := tr.dials.Load()
	tr.results <- dialResult{conn: newFakeConn()}
	assert.Never(t, func() bool { return tr.dials.Load() != dials }, 30*time.Millisecond, tick)
}

func TestManager_FallbackRunsWhileSocketIsDown(t *testing.T) {
	tr := newFakeTransport()
	api := &fakeAPI{}
	api.setStats(StatsPayload{Points: ptr(int64(70))})
	m, _, _ := newTestManager(t, tr, api, Options{FallbackInterval: 5 * time.Millisecond})

	h := m.Initialize(context.Background(), "tok")

	require.Eventually(t, func() bool { return api.statsCalls.Load() >= 2 }, waitFor, tick)
	assert.Equal(t, StatusConnecting, m.State().Status)
	assert.Equal(t, int64(70), *h.Snapshot().Points)
}

func TestManager_HandleRequests(t *testing.T) {
	tr := newFakeTransport()
	conn := newFakeConn()
	tr.results <- dialResult{conn: conn}
	api := &fakeAPI{}
	m, _, _ := newTestManager(t, tr, api, Options{})

	h := m.Initialize(context.Background(), "tok")
	require.Eventually(t, m.IsConnected, waitFor, tick)
	require.Eventually(t, func() bool { return len(conn.sent()) == 2 }, waitFor, tick)
	require.Eventually(t, func() bool { return api.statsCalls.Load() == 1 }, waitFor, tick)

	require.NoError(t, h.RequestStats())
	require.NoError(t, h.RequestLeaderboard(50))
	assert.True(t, h.TriggerLeaderboard(0))

	assert.Equal(t, []realtime.EventKind{
		realtime.EventStatsRefresh, realtime.EventLeaderboardRefresh,
		realtime.EventStatsRefresh, realtime.EventLeaderboardRefresh,
	}, conn.sent())
	require.Eventually(t, func() bool {
		return h.TriggerRefresh() && api.statsCalls.Load() >= 2
	}, waitFor, tick)
}

func TestManager_FinalStateFollowsLastOperation(t *testing.T) {
	tests := []struct {
		name string
		ops  []string
		want Status
	}{
		{name: "initialize", ops: []string{"init"}, want: StatusConnected},
		{name: "initialize teardown", ops: []string{"init", "teardown"}, want: StatusDisconnected},
		{name: "teardown initialize", ops: []string{"teardown", "init"}, want: StatusConnected},
		{name: "mixed", ops: []string{"init", "init", "teardown", "teardown", "init"}, want: StatusConnected},
		{name: "mixed ending down", ops: []string{"init", "teardown", "init", "teardown"}, want: StatusDisconnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newFakeTransport()
			tr.auto = true
			m, _, _ := newTestManager(t, tr, &fakeAPI{}, Options{})

			for _, op := range tt.ops {
				if op == "init" {
					m.Initialize(context.Background(), "tok")
					continue
				}
				m.Teardown()
			}

			require.Eventually(t, func() bool { return m.State().Status == tt.want }, waitFor, tick)
			assert.Never(t, func() bool { return m.State().Status != tt.want }, 20*time.Millisecond, tick)
		})
	}
}
