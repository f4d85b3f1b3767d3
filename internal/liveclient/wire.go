package liveclient

import "time"

// StatsPayload is the body of stats:update and of the stats read. Nil fields were absent on
// the wire and must not overwrite what the snapshot already knows.
type StatsPayload struct {
	Level          *int64     `json:"level,omitempty"`
	Points         *int64     `json:"points,omitempty"`
	CurrentStreak  *int64     `json:"current_streak,omitempty"`
	LongestStreak  *int64     `json:"longest_streak,omitempty"`
	Rank           *int64     `json:"rank,omitempty"`
	IsPremium      *bool      `json:"is_premium,omitempty"`
	RecentActivity []Activity `json:"recent_activity,omitempty"`
	WeeklyStats    *Weekly    `json:"weekly_stats,omitempty"`
}

type Activity struct {
	Activity   string    `json:"activity"`
	Kind       string    `json:"kind,omitempty"`
	Slug       string    `json:"slug,omitempty"`
	Points     int64     `json:"points"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Weekly struct {
	Points     int64 `json:"points"`
	Activities int64 `json:"activities"`
	ActiveDays int64 `json:"active_days"`
}

type LeaderboardEntry struct {
	Rank     int64  `json:"rank"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Points   int64  `json:"points"`
}

// LeaderboardPayload is the body of leaderboard:update and of the leaderboard read.
type LeaderboardPayload struct {
	Entries []LeaderboardEntry `json:"entries"`
}

type ProgressPayload struct {
	Kind    string `json:"kind"`
	Slug    string `json:"slug"`
	Percent int64  `json:"percent"`
}

type PremiumPayload struct {
	IsPremium *bool  `json:"is_premium,omitempty"`
	Plan      string `json:"plan,omitempty"`
}

// Notification is the body of notification:new.
type Notification struct {
	ID          string         `json:"id"`
	RecipientID string         `json:"recipient_id"`
	Type        string         `json:"type"`
	Title       string         `json:"title"`
	Message     string         `json:"message"`
	Icon        string         `json:"icon"`
	Color       string         `json:"color"`
	Payload     map[string]any `json:"payload,omitempty"`
	Read        bool           `json:"read"`
	CreatedAt   time.Time      `json:"created_at"`
}
