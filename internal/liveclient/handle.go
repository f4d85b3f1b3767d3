package liveclient

import (
	"context"
	"sync"

	"github.com/shandysiswandi/levelup/internal/pkg/realtime"
)

// Handle is the session returned by Manager.Initialize. Application code triggers
// refreshes and reads the snapshot through it. A handle goes dead once its session is torn
// down, and its methods then do nothing.
type Handle struct {
	m             *Manager
	notifications <-chan Notification
	done          chan struct{}
	once          sync.Once
}

func newHandle(m *Manager, notifications <-chan Notification) *Handle {
	return &Handle{m: m, notifications: notifications, done: make(chan struct{})}
}

// Done is closed when the session ends.
func (h *Handle) Done() <-chan struct{} { return h.done }

func (h *Handle) release() { h.once.Do(func() { close(h.done) }) }

func (h *Handle) Snapshot() Snapshot { return h.m.store.Snapshot() }

// Changed signals snapshot writes; see Store.Changed.
func (h *Handle) Changed() <-chan struct{} { return h.m.store.Changed() }

// Notifications receives every notification:new payload of this session only.
func (h *Handle) Notifications() <-chan Notification { return h.notifications }

func (h *Handle) State() ConnectionState { return h.m.State() }

func (h *Handle) IsConnected() bool { return h.m.IsConnected() }

// TriggerRefresh pulls fresh stats after an application event, such as a finished quiz.
// It reports false when the handle is dead.
func (h *Handle) TriggerRefresh() bool {
	return h.m.spawn(h, func(ctx context.Context) { h.m.coord.Refresh(ctx) })
}

// TriggerLeaderboard pulls the top limit entries; limit <= 0 uses the default.
func (h *Handle) TriggerLeaderboard(limit int32) bool {
	return h.m.spawn(h, func(ctx context.Context) { h.m.coord.RefreshLeaderboard(ctx, limit) })
}

// RequestLeaderboard asks the server to push leaderboard:update over the socket.
func (h *Handle) RequestLeaderboard(limit int32) error {
	return h.m.request(h, realtime.EventLeaderboardRefresh, realtime.LeaderboardRequest{Limit: limit})
}

// RequestStats asks the server to push stats:update over the socket.
func (h *Handle) RequestStats() error {
	return h.m.request(h, realtime.EventStatsRefresh, nil)
}

// Close tears the session down when it is still the live one.
func (h *Handle) Close() { h.m.closeHandle(h) }
