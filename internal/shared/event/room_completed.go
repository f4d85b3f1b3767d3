package event

const RoomCompletedDestination string = "gameplay.room.completed"
const RoomCompletedConsumerNotification string = "gameplay.room.completed.notification"

const (
	CompletionKindRoom string = "room"
	CompletionKindLab  string = "lab"
)

type RoomCompletedMessage struct {
	EventID   string `json:"event_id"`
	UserID    int64  `json:"user_id"`
	Kind      string `json:"kind"`
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Points    int64  `json:"points"`
	FirstTime bool   `json:"first_time"`
}
