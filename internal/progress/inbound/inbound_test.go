package inbound

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shandysiswandi/levelup/internal/pkg/clock"
	"github.com/shandysiswandi/levelup/internal/pkg/instrument"
	"github.com/shandysiswandi/levelup/internal/pkg/jwt"
	"github.com/shandysiswandi/levelup/internal/pkg/messaging"
	"github.com/shandysiswandi/levelup/internal/pkg/realtime"
	"github.com/shandysiswandi/levelup/internal/pkg/uid"
	"github.com/shandysiswandi/levelup/internal/progress/usecase"
	"github.com/shandysiswandi/levelup/internal/shared/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUC struct {
	mu       sync.Mutex
	progress chan usecase.ConsumeProgressInput
	settings []usecase.ConsumeSettingsInput
	premium  []usecase.ConsumePremiumInput

	hub         *realtime.Hub
	statsCalls  int
	boardLimits []int32
}

func (f *fakeUC) ConsumeProgress(_ context.Context, in usecase.ConsumeProgressInput) error {
	f.progress <- in
	return nil
}

func (f *fakeUC) ConsumeSettings(_ context.Context, in usecase.ConsumeSettingsInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings = append(f.settings, in)
	return nil
}

func (f *fakeUC) ConsumePremium(_ context.Context, in usecase.ConsumePremiumInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.premium = append(f.premium, in)
	return nil
}

func (f *fakeUC) RefreshStats(ctx context.Context, userID int64) error {
	f.mu.Lock()
	f.statsCalls++
	f.mu.Unlock()
	f.hub.Send(ctx, userID, realtime.EventStatsUpdate, map[string]int64{"level": 3})
	return nil
}

func (f *fakeUC) RefreshLeaderboard(ctx context.Context, userID int64, limit int32) error {
	f.mu.Lock()
	f.boardLimits = append(f.boardLimits, limit)
	f.mu.Unlock()
	f.hub.Send(ctx, userID, realtime.EventLeaderboardUpdate, map[string]any{"entries": []any{}})
	return nil
}

type staticID string

func (s staticID) Generate() string { return string(s) }

func TestMQHandler_ProgressUpdatedThroughMemoryBroker(t *testing.T) {
	// Arrange
	broker := messaging.NewMemory(8)
	t.Cleanup(func() { _ = broker.Close() })

	uc := &fakeUC{progress: make(chan usecase.ConsumeProgressInput, 64)}
	h := &MQHandler{uc: uc, uuid: staticID("cid"), ins: instrument.NewNoop()}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		_ = broker.Consume(ctx, event.ProgressUpdatedDestination, h.ProgressUpdated,
			messaging.WithGroup(event.ProgressUpdatedConsumerProgress), messaging.WithAutoAck(true))
	}()

	occurred := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)

	// Act
	require.Eventually(t, func() bool {
		err := messaging.PublishJSON(context.Background(), broker, event.ProgressUpdatedDestination, "7", event.ProgressUpdatedMessage{
			EventID:     "evt-1",
			UserID:      7,
			Username:    "trinity",
			TotalPoints: 120,
			Level:       2,
			Item:        &event.ProgressItem{Kind: "lab", Slug: "xss", Percent: 100},
			OccurredAt:  occurred,
		})
		return err == nil && len(uc.progress) > 0
	}, 2*time.Second, 20*time.Millisecond)

	// Assert
	in := <-uc.progress
	assert.Equal(t, int64(7), in.UserID)
	assert.Equal(t, "trinity", in.Username)
	assert.Equal(t, int64(120), in.TotalPoints)
	assert.Equal(t, occurred, in.OccurredAt)
	require.NotNil(t, in.Item)
	assert.Equal(t, usecase.ProgressItemInput{Kind: "lab", Slug: "xss", Percent: 100}, *in.Item)
}

type fakeMessage struct{ body []byte }

func (m fakeMessage) Body() []byte                { return m.body }
func (m fakeMessage) Key() []byte                 { return nil }
func (m fakeMessage) Headers() []messaging.Header { return nil }
func (m fakeMessage) ID() string                  { return "" }
func (m fakeMessage) Topic() string               { return "" }
func (m fakeMessage) Timestamp() time.Time        { return time.Time{} }
func (m fakeMessage) Ack(context.Context) error   { return nil }

func TestMQHandler_SettingsAndPremium(t *testing.T) {
	uc := &fakeUC{}
	h := &MQHandler{uc: uc, uuid: staticID("cid"), ins: instrument.NewNoop()}

	require.NoError(t, h.SettingsUpdated(context.Background(), fakeMessage{body: []byte(`{"user_id":3,"settings":{"theme":"dark"}}`)}))
	require.NoError(t, h.PremiumUpdated(context.Background(), fakeMessage{body: []byte(`{"user_id":3,"is_premium":true,"plan":"annual"}`)}))
	require.NoError(t, h.PremiumUpdated(context.Background(), fakeMessage{body: []byte(`not json`)}))

	require.Len(t, uc.settings, 1)
	assert.Equal(t, "dark", uc.settings[0].Settings["theme"])
	require.Len(t, uc.premium, 1)
	assert.Equal(t, usecase.ConsumePremiumInput{UserID: 3, IsPremium: true, Plan: "annual"}, uc.premium[0])
}

func TestRegisterRealtimeHandler(t *testing.T) {
	// Arrange
	hub := realtime.NewHub(uid.NewULID(), clock.New(), nil)
	uc := &fakeUC{hub: hub}
	RegisterRealtimeHandler(hub, uc)

	srv := realtime.NewServer(hub, realtime.ServerOptions{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srv.ServeHTTP(w, r.WithContext(jwt.SetAuth(r.Context(), jwt.Claims{UserID: 11})))
	}))
	t.Cleanup(func() {
		_ = srv.Close()
		ts.Close()
	})

	ws, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = resp.Body.Close()
		_ = ws.Close()
	})

	read := func() realtime.Envelope {
		require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
		var env realtime.Envelope
		require.NoError(t, ws.ReadJSON(&env))
		return env
	}
	assert.Equal(t, realtime.EventConnect, read().Event)

	// Act
	require.NoError(t, ws.WriteJSON(realtime.Envelope{Event: realtime.EventStatsRefresh}))
	stats := read()
	require.NoError(t, ws.WriteJSON(map[string]any{"event": "leaderboard:refresh", "data": map[string]int{"limit": 25}}))
	board := read()

	// Assert
	assert.Equal(t, realtime.EventStatsUpdate, stats.Event)
	assert.Equal(t, realtime.EventLeaderboardUpdate, board.Event)
	uc.mu.Lock()
	defer uc.mu.Unlock()
	assert.Equal(t, 1, uc.statsCalls)
	assert.Equal(t, []int32{25}, uc.boardLimits)
}
