package liveclient

import (
	"context"
	"testing"

	"github.com/shandysiswandi/levelup/internal/pkg/clock"
	"github.com/shandysiswandi/levelup/internal/pkg/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(desktop Desktop) (*Router, *Store, *fakeToaster) {
	store := NewStore(clock.Fixed(now))
	toaster := &fakeToaster{}
	r := NewRouter(store, toaster, desktop)
	r.open()
	return r, store, toaster
}

func TestRouter_LevelUpFiresOnlyOnIncrease(t *testing.T) {
	// Arrange
	r, store, toaster := newTestRouter(nil)
	ctx := context.Background()
	store.MergeStats(StatsPayload{Level: ptr(int64(5))})

	// Act and Assert
	r.Dispatch(ctx, envelope(t, realtime.EventStatsUpdate, StatsPayload{Level: ptr(int64(5))}))
	assert.Empty(t, toaster.all(), "same level")

	r.Dispatch(ctx, envelope(t, realtime.EventStatsUpdate, StatsPayload{Level: ptr(int64(6)), Points: ptr(int64(610))}))
	require.Len(t, toaster.all(), 1)
	assert.Equal(t, ToastLevelUp, toaster.all()[0].Kind)
	assert.Equal(t, "You reached level 6", toaster.all()[0].Message)

	r.Dispatch(ctx, envelope(t, realtime.EventStatsUpdate, StatsPayload{Level: ptr(int64(6))}))
	assert.Len(t, toaster.all(), 1, "duplicate delivery")

	r.Dispatch(ctx, envelope(t, realtime.EventStatsUpdate, StatsPayload{Level: ptr(int64(4))}))
	assert.Len(t, toaster.all(), 1, "out of order delivery")

	snap := store.Snapshot()
	assert.Equal(t, int64(610), *snap.Points)
	assert.Equal(t, int64(6), store.LastLevel())
}

func TestRouter_FirstLevelSeedsWithoutToast(t *testing.T) {
	r, store, toaster := newTestRouter(nil)

	r.Dispatch(context.Background(), envelope(t, realtime.EventStatsUpdate, StatsPayload{Level: ptr(int64(3))}))

	assert.Empty(t, toaster.all())
	assert.Equal(t, int64(3), store.LastLevel())
}

func TestRouter_DropsPushWhileClosed(t *testing.T) {
	// Arrange
	r, store, toaster := newTestRouter(nil)
	store.MergeStats(StatsPayload{Level: ptr(int64(2)), Points: ptr(int64(100))})
	r.close()

	// Act
	r.Dispatch(context.Background(), envelope(t, realtime.EventStatsUpdate, StatsPayload{Level: ptr(int64(3)), Points: ptr(int64(999))}))
	r.Dispatch(context.Background(), envelope(t, realtime.EventNotificationNew, Notification{ID: "1", Type: "system"}))

	// Assert
	assert.Equal(t, int64(100), *store.Snapshot().Points)
	assert.Empty(t, toaster.all())
	assert.Empty(t, r.Notifications())
}

func TestRouter_ResetStartsFreshNotificationQueue(t *testing.T) {
	// Arrange
	r, _, _ := newTestRouter(nil)
	old := r.Notifications()
	r.Dispatch(context.Background(), envelope(t, realtime.EventNotificationNew, Notification{ID: "1", Type: "system"}))

	// Act
	fresh := r.reset()
	r.Dispatch(context.Background(), envelope(t, realtime.EventNotificationNew, Notification{ID: "2", Type: "system"}))

	// Assert
	require.Len(t, old, 1)
	assert.Equal(t, "1", (<-old).ID)
	require.Len(t, fresh, 1)
	assert.Equal(t, "2", (<-fresh).ID)
}

func TestRouter_LeaderboardIsReplaced(t *testing.T) {
	r, store, _ := newTestRouter(nil)
	store.ReplaceLeaderboard([]LeaderboardEntry{{Rank: 1, UserID: "1"}, {Rank: 2, UserID: "2"}})

	r.Dispatch(context.Background(), envelope(t, realtime.EventLeaderboardUpdate, LeaderboardPayload{
		Entries: []LeaderboardEntry{{Rank: 1, UserID: "2", Username: "bo", Points: 90}},
	}))

	assert.Equal(t, []LeaderboardEntry{{Rank: 1, UserID: "2", Username: "bo", Points: 90}}, store.Snapshot().Leaderboard)
}

func TestRouter_SectionMerges(t *testing.T) {
	r, store, _ := newTestRouter(nil)
	ctx := context.Background()

	r.Dispatch(ctx, envelope(t, realtime.EventProgressUpdate, ProgressPayload{Kind: "room", Slug: "intro", Percent: 50}))
	r.Dispatch(ctx, envelope(t, realtime.EventProgressUpdate, ProgressPayload{Kind: "room"}))
	r.Dispatch(ctx, envelope(t, realtime.EventSettingsUpdate, map[string]any{"theme": "dark"}))
	r.Dispatch(ctx, envelope(t, realtime.EventPremiumUpdate, PremiumPayload{IsPremium: ptr(true), Plan: "monthly"}))

	snap := store.Snapshot()
	assert.Equal(t, map[string]int64{"room/intro": 50}, snap.Progress)
	assert.Equal(t, "dark", snap.Settings["theme"])
	assert.True(t, *snap.IsPremium)
	assert.Equal(t, "monthly", snap.Plan)
}

func TestRouter_NotificationNew(t *testing.T) {
	tests := []struct {
		name      string
		typ       string
		wantToast ToastKind
	}{
		{name: "achievement", typ: "achievement", wantToast: ToastAchievement},
		{name: "level up", typ: "level_up", wantToast: ToastLevelUp},
		{name: "streak", typ: "streak", wantToast: ToastStreak},
		{name: "challenge", typ: "challenge", wantToast: ToastChallenge},
		{name: "system", typ: "system", wantToast: ToastInfo},
		{name: "social", typ: "social", wantToast: ToastInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			desktop := &fakeDesktop{permitted: true}
			r, _, toaster := newTestRouter(desktop)
			n := Notification{
				ID: "900", RecipientID: "7", Type: tt.typ, Title: "Hello", Message: "World",
				Icon: "bell", Color: "muted", Payload: map[string]any{"k": "v"}, CreatedAt: now,
			}

			// Act
			r.Dispatch(context.Background(), envelope(t, realtime.EventNotificationNew, n))

			// Assert
			require.Len(t, toaster.all(), 1)
			assert.Equal(t, tt.wantToast, toaster.all()[0].Kind)
			assert.Equal(t, "Hello", toaster.all()[0].Title)
			assert.Equal(t, []string{"Hello"}, desktop.titles)

			select {
			case got := <-r.Notifications():
				assert.Equal(t, n, got)
			default:
				t.Fatal("expected a notification signal")
			}
		})
	}
}

func TestRouter_DesktopNotPermitted(t *testing.T) {
	desktop := &fakeDesktop{}
	r, _, toaster := newTestRouter(desktop)

	r.Dispatch(context.Background(), envelope(t, realtime.EventNotificationNew, Notification{ID: "1", Type: "streak"}))

	assert.Len(t, toaster.all(), 1)
	assert.Empty(t, desktop.titles)
}

func TestRouter_LifecycleAndUnknownEvents(t *testing.T) {
	r, store, toaster := newTestRouter(nil)
	ctx := context.Background()

	r.Dispatch(ctx, envelope(t, realtime.EventConnect, nil))
	assert.True(t, store.Snapshot().Online)

	r.Dispatch(ctx, envelope(t, realtime.EventDisconnect, LifecycleData{Error: "EOF"}))
	assert.False(t, store.Snapshot().Online)

	r.Dispatch(ctx, envelope(t, realtime.EventConnect, nil))
	r.Dispatch(ctx, envelope(t, realtime.EventConnectError, LifecycleData{Error: "rejected"}))
	assert.False(t, store.Snapshot().Online)

	r.Dispatch(ctx, envelope(t, realtime.EventStatsRefresh, nil))
	r.Dispatch(ctx, envelope(t, realtime.EventKind("quiz:started"), map[string]int{"x": 1}))
	r.Dispatch(ctx, realtime.Envelope{Event: realtime.EventStatsUpdate, Data: []byte(`{"level":"high"}`)})

	assert.Empty(t, toaster.all())
	assert.Nil(t, store.Snapshot().Level)
}

func TestRouter_LifecycleIsHandledWhileClosed(t *testing.T) {
	r, store, _ := newTestRouter(nil)
	r.close()

	r.Dispatch(context.Background(), envelope(t, realtime.EventConnect, nil))

	assert.True(t, store.Snapshot().Online)
}
