package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventKind_Classification(t *testing.T) {
	tests := []struct {
		kind      EventKind
		push      bool
		lifecycle bool
		request   bool
	}{
		{kind: EventStatsUpdate, push: true},
		{kind: EventLeaderboardUpdate, push: true},
		{kind: EventProgressUpdate, push: true},
		{kind: EventNotificationNew, push: true},
		{kind: EventSettingsUpdate, push: true},
		{kind: EventPremiumUpdate, push: true},
		{kind: EventConnect, lifecycle: true},
		{kind: EventDisconnect, lifecycle: true},
		{kind: EventConnectError, lifecycle: true},
		{kind: EventStatsRefresh, request: true},
		{kind: EventLeaderboardRefresh, request: true},
		{kind: "quiz:answer"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.push, tt.kind.IsPush())
			assert.Equal(t, tt.lifecycle, tt.kind.IsLifecycle())
			assert.Equal(t, tt.request, tt.kind.IsRequest())
			assert.Equal(t, tt.push || tt.lifecycle || tt.request, tt.kind.Known())
		})
	}
}

func TestRecipientChannel(t *testing.T) {
	assert.Equal(t, "recipient:42", RecipientChannel(42))

	id, ok := ParseRecipientChannel("recipient:42")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "recipient:", "recipient:abc", "recipient:-1", "user:42"} {
		_, ok := ParseRecipientChannel(bad)
		assert.False(t, ok, bad)
	}
}

func TestEnvelope_Decode(t *testing.T) {
	var got struct {
		Level int `json:"level"`
	}

	assert.NoError(t, Envelope{}.Decode(&got))
	assert.NoError(t, Envelope{Data: []byte("null")}.Decode(&got))
	assert.Equal(t, 0, got.Level)

	assert.NoError(t, Envelope{Data: []byte(`{"level":7}`)}.Decode(&got))
	assert.Equal(t, 7, got.Level)

	assert.Error(t, Envelope{Data: []byte(`{`)}.Decode(&got))
}
