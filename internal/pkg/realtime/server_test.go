package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shandysiswandi/levelup/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withClaims(userID int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID > 0 {
			r = r.WithContext(jwt.SetAuth(r.Context(), jwt.Claims{UserID: userID}))
		}
		next.ServeHTTP(w, r)
	})
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	ws, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = resp.Body.Close()
		_ = ws.Close()
	})
	return ws
}

func readEnvelope(t *testing.T, ws *websocket.Conn) Envelope {
	t.Helper()

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env Envelope
	require.NoError(t, ws.ReadJSON(&env))
	return env
}

func TestServer_ConnectAndPush(t *testing.T) {
	// Arrange
	hub, _ := newTestHub(t)
	srv := NewServer(hub, ServerOptions{})
	ts := httptest.NewServer(withClaims(21, srv))
	t.Cleanup(func() {
		_ = srv.Close()
		ts.Close()
	})

	// Act
	ws := dial(t, ts.URL)
	connect := readEnvelope(t, ws)

	// Assert
	assert.Equal(t, EventConnect, connect.Event)
	assert.Equal(t, "recipient:21", connect.Channel)
	var data ConnectData
	require.NoError(t, connect.Decode(&data))
	assert.Equal(t, int64(21), data.UserID)

	require.True(t, hub.Send(context.Background(), 21, EventLeaderboardUpdate, []int{1, 2}))
	push := readEnvelope(t, ws)
	assert.Equal(t, EventLeaderboardUpdate, push.Event)
	assert.JSONEq(t, `[1,2]`, string(push.Data))
}

func TestServer_RequestIsAnswered(t *testing.T) {
	// Arrange
	hub, _ := newTestHub(t)
	hub.HandleRequest(EventStatsRefresh, func(ctx context.Context, userID int64, _ Envelope) error {
		hub.Send(ctx, userID, EventStatsUpdate, map[string]int{"level": 4})
		return nil
	})
	srv := NewServer(hub, ServerOptions{})
	ts := httptest.NewServer(withClaims(5, srv))
	t.Cleanup(func() {
		_ = srv.Close()
		ts.Close()
	})
	ws := dial(t, ts.URL)
	readEnvelope(t, ws)

	// Act
	require.NoError(t, ws.WriteJSON(Envelope{Event: EventStatsRefresh}))

	// Assert
	env := readEnvelope(t, ws)
	assert.Equal(t, EventStatsUpdate, env.Event)
	assert.JSONEq(t, `{"level":4}`, string(env.Data))
}

func TestServer_RejectsWithoutClaims(t *testing.T) {
	hub, _ := newTestHub(t)
	srv := NewServer(hub, ServerOptions{})
	ts := httptest.NewServer(withClaims(0, srv))
	t.Cleanup(ts.Close)

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_CloseDisconnectsClients(t *testing.T) {
	hub, _ := newTestHub(t)
	srv := NewServer(hub, ServerOptions{})
	ts := httptest.NewServer(withClaims(9, srv))
	t.Cleanup(ts.Close)

	ws := dial(t, ts.URL)
	readEnvelope(t, ws)
	require.Eventually(t, func() bool { return hub.Connected(9) }, time.Second, 5*time.Millisecond)

	require.NoError(t, srv.Close())

	assert.False(t, hub.Connected(9))
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := ws.ReadMessage()
	assert.Error(t, err)
}

func TestServerOptions_Defaults(t *testing.T) {
	o := ServerOptions{PongWait: 10 * time.Second, PingPeriod: time.Minute}.withDefaults()

	assert.Equal(t, 64, o.SendBuffer)
	assert.Equal(t, int64(4<<10), o.ReadLimit)
	assert.Equal(t, 10*time.Second, o.WriteWait)
	assert.Equal(t, 9*time.Second, o.PingPeriod)
}
