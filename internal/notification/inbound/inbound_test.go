package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/levelup/internal/notification/usecase"
	"github.com/shandysiswandi/levelup/internal/pkg/goerror"
	"github.com/shandysiswandi/levelup/internal/pkg/idempotency"
	"github.com/shandysiswandi/levelup/internal/pkg/instrument"
	"github.com/shandysiswandi/levelup/internal/pkg/messaging"
	"github.com/shandysiswandi/levelup/internal/pkg/realtime"
	"github.com/shandysiswandi/levelup/internal/shared/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUC struct {
	mu          sync.Mutex
	progress    []usecase.ConsumeProgressInput
	achievement []usecase.ConsumeAchievementInput
	completion  []usecase.ConsumeCompletionInput
	registered  []usecase.ConsumeUserRegisteredInput
	err         error

	stream    *realtime.Stream
	streamErr error
}

func (f *fakeUC) ConsumeProgress(_ context.Context, in usecase.ConsumeProgressInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress = append(f.progress, in)
	return f.err
}

func (f *fakeUC) ConsumeAchievement(_ context.Context, in usecase.ConsumeAchievementInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.achievement = append(f.achievement, in)
	return f.err
}

func (f *fakeUC) ConsumeCompletion(_ context.Context, in usecase.ConsumeCompletionInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completion = append(f.completion, in)
	return f.err
}

func (f *fakeUC) ConsumeUserRegistered(_ context.Context, in usecase.ConsumeUserRegisteredInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, in)
	return f.err
}

func (f *fakeUC) StreamNotifications(context.Context) (*realtime.Stream, func(), error) {
	if f.streamErr != nil {
		return nil, nil, f.streamErr
	}
	return f.stream, func() { _ = f.stream.Close() }, nil
}

func (f *fakeUC) ListInbox(context.Context, usecase.ListInboxInput) (*usecase.ListInboxOutput, error) {
	return &usecase.ListInboxOutput{}, nil
}

func (f *fakeUC) MarkInboxRead(context.Context, usecase.MarkInboxReadInput) error { return nil }

func (f *fakeUC) MarkAllInboxRead(context.Context) (int64, error) { return 0, nil }

func (f *fakeUC) Announce(context.Context, usecase.AnnounceInput) (*usecase.AnnounceOutput, error) {
	return &usecase.AnnounceOutput{}, nil
}

// memIdem mirrors the redis tracker with a map.
type memIdem struct {
	mu    sync.Mutex
	state map[string]idempotency.State
}

func newMemIdem() *memIdem { return &memIdem{state: map[string]idempotency.State{}} }

func (m *memIdem) set(key string, s idempotency.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s == idempotency.StateNone {
		delete(m.state, key)
		return
	}
	m.state[key] = s
}

func (m *memIdem) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	m.mu.Lock()
	prev := m.state[key]
	if prev == idempotency.StateNone {
		m.state[key] = idempotency.StateInProgress
	}
	m.mu.Unlock()

	switch prev {
	case idempotency.StateInProgress:
		return idempotency.ErrAlreadyInProgress
	case idempotency.StateCompleted:
		return idempotency.ErrAlreadyCompleted
	}
	if err := fn(ctx); err != nil {
		m.set(key, idempotency.StateNone)
		return err
	}
	m.set(key, idempotency.StateCompleted)
	return nil
}

type fakeMessage struct {
	body    []byte
	headers []messaging.Header
}

func (m fakeMessage) Body() []byte                { return m.body }
func (m fakeMessage) Key() []byte                 { return nil }
func (m fakeMessage) Headers() []messaging.Header { return m.headers }
func (m fakeMessage) ID() string                  { return "1" }
func (m fakeMessage) Topic() string               { return "t" }
func (m fakeMessage) Timestamp() time.Time        { return time.Time{} }
func (m fakeMessage) Ack(context.Context) error   { return nil }

type staticID string

func (s staticID) Generate() string { return string(s) }

func newMessage(t *testing.T, v any) fakeMessage {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return fakeMessage{body: body}
}

func newHandler(uc *fakeUC, idem idempotency.Idempotency) *MQHandler {
	return &MQHandler{uc: uc, uuid: staticID("cid"), idem: idem, ins: instrument.NewNoop()}
}

func TestMQHandler_ProgressUpdated(t *testing.T) {
	// Arrange
	uc := &fakeUC{}
	h := newHandler(uc, newMemIdem())
	msg := newMessage(t, event.ProgressUpdatedMessage{
		EventID:       "evt-1",
		UserID:        9,
		Level:         4,
		PreviousLevel: 3,
		CurrentStreak: 7,
		StreakChanged: true,
	})

	// Act
	err := h.ProgressUpdatedNotification(context.Background(), msg)

	// Assert
	require.NoError(t, err)
	require.Len(t, uc.progress, 1)
	assert.Equal(t, usecase.ConsumeProgressInput{
		UserID: 9, Level: 4, PreviousLevel: 3, CurrentStreak: 7, StreakChanged: true,
	}, uc.progress[0])
}

func TestMQHandler_DuplicateEventIsAcked(t *testing.T) {
	uc := &fakeUC{}
	h := newHandler(uc, newMemIdem())
	msg := newMessage(t, event.AchievementUnlockedMessage{EventID: "evt-2", UserID: 1, AchievementKey: "first_room", Name: "First room"})

	require.NoError(t, h.AchievementUnlockedNotification(context.Background(), msg))
	require.NoError(t, h.AchievementUnlockedNotification(context.Background(), msg))

	assert.Len(t, uc.achievement, 1)
}

func TestMQHandler_FailureReleasesKey(t *testing.T) {
	uc := &fakeUC{err: errors.New("boom")}
	h := newHandler(uc, newMemIdem())
	msg := newMessage(t, event.RoomCompletedMessage{EventID: "evt-3", UserID: 1, Kind: "room", Slug: "linux", Title: "Linux", FirstTime: true})

	assert.Error(t, h.RoomCompletedNotification(context.Background(), msg))

	uc.err = nil
	assert.NoError(t, h.RoomCompletedNotification(context.Background(), msg))
	assert.Len(t, uc.completion, 2)
}

func TestMQHandler_MalformedBodyIsDropped(t *testing.T) {
	uc := &fakeUC{}
	h := newHandler(uc, nil)

	err := h.UserRegisteredNotification(context.Background(), fakeMessage{body: []byte("{")})

	assert.NoError(t, err)
	assert.Empty(t, uc.registered)
}

func TestMQHandler_UserRegisteredFallsBackToUsername(t *testing.T) {
	uc := &fakeUC{}
	h := newHandler(uc, nil)
	msg := newMessage(t, event.UserRegisteredMessage{UserID: 5, Username: "neo"})
	msg.headers = []messaging.Header{{Key: messaging.HeaderCorrelationID, Value: []byte("abc")}}

	require.NoError(t, h.UserRegisteredNotification(context.Background(), msg))

	require.Len(t, uc.registered, 1)
	assert.Equal(t, "neo", uc.registered[0].FullName)
}

func TestStreamNotifications_WritesEnvelopes(t *testing.T) {
	// Arrange
	stream := realtime.NewStream(4)
	uc := &fakeUC{stream: stream}
	end := &HTTPEndpoint{uc: uc}

	require.True(t, stream.Deliver(realtime.Envelope{
		ID:     "e1",
		Event:  realtime.EventNotificationNew,
		Data:   json.RawMessage(`{"title":"hi"}`),
		SentAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/notification/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	// Act
	end.StreamNotifications(rec, req)

	// Assert
	body := rec.Body.String()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(body, ": connected\n\n"))
	assert.Contains(t, body, "id: e1\nevent: notification:new\ndata: {")
	assert.Contains(t, body, `"title":"hi"`)
}

func TestStreamNotifications_ClosedStreamEnds(t *testing.T) {
	stream := realtime.NewStream(1)
	require.NoError(t, stream.Close())
	end := &HTTPEndpoint{uc: &fakeUC{stream: stream}}
	rec := httptest.NewRecorder()

	end.StreamNotifications(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStreamNotifications_Unauthorized(t *testing.T) {
	end := &HTTPEndpoint{uc: &fakeUC{streamErr: goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)}}
	rec := httptest.NewRecorder()

	end.StreamNotifications(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
