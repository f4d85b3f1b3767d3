package realtime

import (
	"context"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shandysiswandi/levelup/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) Generate() string { return "env-" + strconv.FormatInt(s.n.Add(1), 10) }

func newTestHub(t *testing.T) (*Hub, *prometheus.Registry) {
	t.Helper()

	reg := prometheus.NewRegistry()
	m, err := NewMetrics(noop.NewMeterProvider().Meter("test"), reg)
	require.NoError(t, err)

	return NewHub(&seqIDs{}, clock.Fixed(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)), m), reg
}

func TestHub_SendDeliversToEverySubscriber(t *testing.T) {
	// Arrange
	hub, _ := newTestHub(t)
	ctx := context.Background()
	a, b, other := NewStream(4), NewStream(4), NewStream(4)
	hub.Subscribe(ctx, 7, a)
	hub.Subscribe(ctx, 7, b)
	hub.Subscribe(ctx, 8, other)

	// Act
	ok := hub.Send(ctx, 7, EventStatsUpdate, map[string]int{"points": 120})

	// Assert
	require.True(t, ok)
	for _, s := range []*Stream{a, b} {
		env := <-s.C()
		assert.Equal(t, EventStatsUpdate, env.Event)
		assert.Equal(t, "recipient:7", env.Channel)
		assert.JSONEq(t, `{"points":120}`, string(env.Data))
		assert.NotEmpty(t, env.ID)
		assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), env.SentAt)
	}
	assert.Empty(t, other.C())
}

func TestHub_BroadcastAddressesEachUser(t *testing.T) {
	// Arrange
	hub, _ := newTestHub(t)
	ctx := context.Background()
	a, b, full := NewStream(4), NewStream(4), NewStream(1)
	hub.Subscribe(ctx, 7, a)
	hub.Subscribe(ctx, 8, b)
	hub.Subscribe(ctx, 9, full)
	require.True(t, full.Deliver(Envelope{ID: "queued"}))

	// Act
	n := hub.Broadcast(ctx, EventLeaderboardUpdate, map[string]any{"entries": []int{1}})

	// Assert
	assert.Equal(t, 2, n)
	envA, envB := <-a.C(), <-b.C()
	assert.Equal(t, "recipient:7", envA.Channel)
	assert.Equal(t, "recipient:8", envB.Channel)
	assert.NotEqual(t, envA.ID, envB.ID)
	assert.JSONEq(t, `{"entries":[1]}`, string(envA.Data))
	assert.Equal(t, EventLeaderboardUpdate, envB.Event)
}

func TestHub_BroadcastWithoutSubscribers(t *testing.T) {
	hub, _ := newTestHub(t)

	assert.Zero(t, hub.Broadcast(context.Background(), EventLeaderboardUpdate, nil))
}

func TestHub_SendWithoutSubscriberIsMiss(t *testing.T) {
	hub, _ := newTestHub(t)

	assert.False(t, hub.Send(context.Background(), 99, EventNotificationNew, nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(hub.metrics.promDeliveries.WithLabelValues(resultMiss)))
}

func TestHub_FullQueueDrops(t *testing.T) {
	// Arrange
	hub, _ := newTestHub(t)
	ctx := context.Background()
	s := NewStream(1)
	hub.Subscribe(ctx, 1, s)

	// Act
	first := hub.Send(ctx, 1, EventStatsUpdate, nil)
	second := hub.Send(ctx, 1, EventStatsUpdate, nil)

	// Assert
	assert.True(t, first)
	assert.False(t, second)
	assert.Equal(t, 1.0, testutil.ToFloat64(hub.metrics.promDeliveries.WithLabelValues(resultDelivered)))
	assert.Equal(t, 1.0, testutil.ToFloat64(hub.metrics.promDeliveries.WithLabelValues(resultDropped)))
}

func TestHub_UnsubscribeIsIdempotent(t *testing.T) {
	hub, _ := newTestHub(t)
	ctx := context.Background()

	unsubscribe := hub.Subscribe(ctx, 3, NewStream(1))
	assert.True(t, hub.Connected(3))
	assert.Equal(t, 1, hub.Count())
	assert.Equal(t, 1.0, testutil.ToFloat64(hub.metrics.promConnections))

	unsubscribe()
	unsubscribe()

	assert.False(t, hub.Connected(3))
	assert.Equal(t, 0, hub.Count())
	assert.Equal(t, 0.0, testutil.ToFloat64(hub.metrics.promConnections))
}

func TestHub_ClosedStreamRejects(t *testing.T) {
	hub, _ := newTestHub(t)
	ctx := context.Background()
	s := NewStream(4)
	hub.Subscribe(ctx, 5, s)

	require.NoError(t, hub.Close())

	assert.False(t, hub.Send(ctx, 5, EventStatsUpdate, nil))
	<-s.Done()
}

func TestHub_DispatchRequest(t *testing.T) {
	hub, _ := newTestHub(t)
	var got atomic.Int64
	hub.HandleRequest(EventStatsRefresh, func(_ context.Context, userID int64, req Envelope) error {
		got.Store(userID)
		return nil
	})

	hub.dispatchRequest(context.Background(), 11, Envelope{Event: EventStatsUpdate})
	assert.Zero(t, got.Load())

	hub.dispatchRequest(context.Background(), 11, Envelope{Event: EventLeaderboardRefresh})
	assert.Zero(t, got.Load())

	hub.dispatchRequest(context.Background(), 11, Envelope{Event: EventStatsRefresh})
	assert.Equal(t, int64(11), got.Load())
}

func TestNewMetrics_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	meter := noop.NewMeterProvider().Meter("test")

	_, err := NewMetrics(meter, reg)
	require.NoError(t, err)
	_, err = NewMetrics(meter, reg)
	require.NoError(t, err)

	var nilMetrics *Metrics
	assert.NotPanics(t, func() {
		nilMetrics.delivery(context.Background(), EventConnect, resultMiss)
		nilMetrics.connection(context.Background(), 1)
	})
}
