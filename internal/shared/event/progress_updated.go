package event

import "time"

const ProgressUpdatedDestination string = "gameplay.progress.updated"
const ProgressUpdatedConsumerProgress string = "gameplay.progress.updated.progress"
const ProgressUpdatedConsumerNotification string = "gameplay.progress.updated.notification"

// ProgressUpdatedMessage is emitted by the gameplay service after points are awarded.
// Totals are authoritative; deltas are informational.
type ProgressUpdatedMessage struct {
	EventID       string        `json:"event_id"`
	UserID        int64         `json:"user_id"`
	Username      string        `json:"username"`
	PointsDelta   int64         `json:"points_delta"`
	TotalPoints   int64         `json:"total_points"`
	Level         int64         `json:"level"`
	PreviousLevel int64         `json:"previous_level"`
	CurrentStreak int64         `json:"current_streak"`
	LongestStreak int64         `json:"longest_streak"`
	StreakChanged bool          `json:"streak_changed"`
	Activity      string        `json:"activity,omitempty"`
	Item          *ProgressItem `json:"item,omitempty"`
	OccurredAt    time.Time     `json:"occurred_at"`
}

// ProgressItem is the room, lab or quiz the progress belongs to.
type ProgressItem struct {
	Kind    string `json:"kind"`
	Slug    string `json:"slug"`
	Percent int64  `json:"percent"`
}
