package entity

import (
	"time"

	"github.com/shandysiswandi/levelup/internal/pkg/valueobject"
)

// Stats is the read model of a learner's progress. Totals come from the gameplay service;
// this module never computes points or levels itself.
type Stats struct {
	UserID        int64
	Username      string
	Points        int64
	Level         int64
	CurrentStreak int64
	LongestStreak int64
	IsPremium     bool
	Settings      valueobject.JSONMap
	UpdatedAt     time.Time

	// Rank is 1 based; 0 means the learner is not on the leaderboard yet.
	Rank           int64
	RecentActivity []Activity
	Weekly         WeeklyStats
}

type Activity struct {
	ID         int64
	UserID     int64
	Activity   string
	Kind       string
	Slug       string
	Points     int64
	OccurredAt time.Time
}

// WeeklyStats aggregates the activity of the trailing seven days.
type WeeklyStats struct {
	Points     int64
	Activities int64
	ActiveDays int64
}

type LeaderboardEntry struct {
	Rank     int64
	UserID   int64
	Username string
	Points   int64
}

// ProgressItem is the completion state of one room, lab or quiz.
type ProgressItem struct {
	Kind    string
	Slug    string
	Percent int64
}
