package liveclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransitions(t *testing.T) {
	tests := []struct {
		name      string
		from      Status
		trigger   trigger
		want      Status
		wantCause Cause
		wantOK    bool
	}{
		{name: "initialize", from: StatusDisconnected, trigger: triggerInitialize, want: StatusConnecting, wantOK: true},
		{name: "first ack", from: StatusConnecting, trigger: triggerAck, want: StatusConnected, wantCause: CauseFirstConnect, wantOK: true},
		{name: "rejected is terminal", from: StatusConnecting, trigger: triggerRejected, want: StatusDisconnected, wantOK: true},
		{name: "first dial fails", from: StatusConnecting, trigger: triggerTransportError, want: StatusReconnecting, wantOK: true},
		{name: "drop", from: StatusConnected, trigger: triggerDrop, want: StatusReconnecting, wantOK: true},
		{name: "reconnect ack", from: StatusReconnecting, trigger: triggerAck, want: StatusConnected, wantCause: CauseReconnect, wantOK: true},
		{name: "retry keeps reconnecting", from: StatusReconnecting, trigger: triggerTransportError, want: StatusReconnecting, wantOK: true},
		{name: "exhausted", from: StatusReconnecting, trigger: triggerExhausted, want: StatusDisconnected, wantOK: true},
		{name: "rejected while reconnecting", from: StatusReconnecting, trigger: triggerRejected, want: StatusDisconnected, wantOK: true},
		{name: "teardown connected", from: StatusConnected, trigger: triggerTeardown, want: StatusDisconnected, wantOK: true},
		{name: "teardown disconnected", from: StatusDisconnected, trigger: triggerTeardown, want: StatusDisconnected, wantOK: true},
		{name: "ack after teardown", from: StatusDisconnected, trigger: triggerAck, wantOK: false},
		{name: "drop after teardown", from: StatusDisconnected, trigger: triggerDrop, wantOK: false},
		{name: "initialize twice", from: StatusConnected, trigger: triggerInitialize, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := next(tt.from, tt.trigger)

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got.to)
				assert.Equal(t, tt.wantCause, got.cause)
			}
		})
	}
}

func TestTransitions_EveryStatusCanTearDown(t *testing.T) {
	for _, s := range []Status{StatusDisconnected, StatusConnecting, StatusConnected, StatusReconnecting} {
		got, ok := next(s, triggerTeardown)

		assert.True(t, ok, s.String())
		assert.Equal(t, StatusDisconnected, got.to, s.String())
	}
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "reconnecting", StatusReconnecting.String())
	assert.Equal(t, "unknown", Status(42).String())
	assert.Equal(t, "reconnect", CauseReconnect.String())
}
