package realtime

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// EventKind names the event carried by an Envelope.
type EventKind string

const (
	// Server push events.
	EventStatsUpdate       EventKind = "stats:update"
	EventLeaderboardUpdate EventKind = "leaderboard:update"
	EventProgressUpdate    EventKind = "progress:update"
	EventNotificationNew   EventKind = "notification:new"
	EventSettingsUpdate    EventKind = "settings:update"
	EventPremiumUpdate     EventKind = "premium:update"

	// Lifecycle events.
	EventConnect      EventKind = "connect"
	EventDisconnect   EventKind = "disconnect"
	EventConnectError EventKind = "connect_error"

	// Client requests.
	EventStatsRefresh       EventKind = "stats:refresh"
	EventLeaderboardRefresh EventKind = "leaderboard:refresh"
)

// IsPush reports whether k is a server push event.
func (k EventKind) IsPush() bool {
	switch k {
	case EventStatsUpdate, EventLeaderboardUpdate, EventProgressUpdate,
		EventNotificationNew, EventSettingsUpdate, EventPremiumUpdate:
		return true
	default:
		return false
	}
}

// IsLifecycle reports whether k describes the connection itself.
func (k EventKind) IsLifecycle() bool {
	return k == EventConnect || k == EventDisconnect || k == EventConnectError
}

// IsRequest reports whether k is a client to server request.
func (k EventKind) IsRequest() bool {
	return k == EventStatsRefresh || k == EventLeaderboardRefresh
}

// Known reports whether k is one of the declared kinds.
func (k EventKind) Known() bool {
	return k.IsPush() || k.IsLifecycle() || k.IsRequest()
}

// Envelope is the wire frame shared by the websocket and SSE transports.
type Envelope struct {
	ID      string          `json:"id"`
	Event   EventKind       `json:"event"`
	Channel string          `json:"channel,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	SentAt  time.Time       `json:"sent_at"`
}

// Decode unmarshals the envelope data into v. Empty data leaves v untouched.
func (e Envelope) Decode(v any) error {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return nil
	}
	return json.Unmarshal(e.Data, v)
}

// ConnectData is the payload of the connect envelope sent after the upgrade.
type ConnectData struct {
	UserID int64  `json:"user_id,string"`
	Status string `json:"status"`
}

// LeaderboardRequest is the optional payload of leaderboard:refresh.
type LeaderboardRequest struct {
	Limit int32 `json:"limit,omitempty"`
}

const channelPrefix = "recipient:"

// RecipientChannel returns the channel name of a user.
func RecipientChannel(userID int64) string {
	return channelPrefix + strconv.FormatInt(userID, 10)
}

// ParseRecipientChannel returns the user id of a recipient channel.
func ParseRecipientChannel(channel string) (int64, bool) {
	raw, ok := strings.CutPrefix(channel, channelPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
