package push

import (
	"context"
	"strconv"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/levelup/internal/pkg/instrument"
	"github.com/shandysiswandi/levelup/internal/pkg/realtime"
	"github.com/shandysiswandi/levelup/internal/pkg/valueobject"
	"github.com/shandysiswandi/levelup/internal/progress/entity"
	"go.opentelemetry.io/otel/attribute"
)

// StatsData is the data of a stats:update envelope and the body of the stats read.
type StatsData struct {
	Level          int64          `json:"level"`
	Points         int64          `json:"points"`
	CurrentStreak  int64          `json:"current_streak"`
	LongestStreak  int64          `json:"longest_streak"`
	Rank           int64          `json:"rank"`
	IsPremium      bool           `json:"is_premium"`
	RecentActivity []ActivityData `json:"recent_activity"`
	WeeklyStats    WeeklyData     `json:"weekly_stats"`
}

type ActivityData struct {
	Activity   string    `json:"activity"`
	Kind       string    `json:"kind,omitempty"`
	Slug       string    `json:"slug,omitempty"`
	Points     int64     `json:"points"`
	OccurredAt time.Time `json:"occurred_at"`
}

type WeeklyData struct {
	Points     int64 `json:"points"`
	Activities int64 `json:"activities"`
	ActiveDays int64 `json:"active_days"`
}

type LeaderboardData struct {
	Entries []LeaderboardEntryData `json:"entries"`
}

type LeaderboardEntryData struct {
	Rank     int64  `json:"rank"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Points   int64  `json:"points"`
}

type ProgressData struct {
	Kind    string `json:"kind"`
	Slug    string `json:"slug"`
	Percent int64  `json:"percent"`
}

type PremiumData struct {
	IsPremium bool   `json:"is_premium"`
	Plan      string `json:"plan,omitempty"`
}

func ToStatsData(st entity.Stats) StatsData {
	return StatsData{
		Level:         st.Level,
		Points:        st.Points,
		CurrentStreak: st.CurrentStreak,
		LongestStreak: st.LongestStreak,
		Rank:          st.Rank,
		IsPremium:     st.IsPremium,
		RecentActivity: lo.Map(st.RecentActivity, func(a entity.Activity, _ int) ActivityData {
			return ActivityData{Activity: a.Activity, Kind: a.Kind, Slug: a.Slug, Points: a.Points, OccurredAt: a.OccurredAt}
		}),
		WeeklyStats: WeeklyData(st.Weekly),
	}
}

func ToLeaderboardData(entries []entity.LeaderboardEntry) LeaderboardData {
	return LeaderboardData{Entries: lo.Map(entries, func(e entity.LeaderboardEntry, _ int) LeaderboardEntryData {
		return LeaderboardEntryData{
			Rank:     e.Rank,
			UserID:   strconv.FormatInt(e.UserID, 10),
			Username: e.Username,
			Points:   e.Points,
		}
	})}
}

// Push sends progress envelopes through the realtime hub.
type Push struct {
	hub *realtime.Hub
	ins instrument.Instrumentation
}

func New(hub *realtime.Hub, ins instrument.Instrumentation) *Push {
	return &Push{hub: hub, ins: ins}
}

func (p *Push) send(ctx context.Context, name string, userID int64, kind realtime.EventKind, data any) bool {
	ctx, span := p.ins.Tracer("progress.outbound.push").Start(ctx, name)
	defer span.End()

	delivered := p.hub.Send(ctx, userID, kind, data)
	span.SetAttributes(attribute.Bool("delivered", delivered))

	return delivered
}

func (p *Push) PushStats(ctx context.Context, userID int64, st entity.Stats) bool {
	return p.send(ctx, "PushStats", userID, realtime.EventStatsUpdate, ToStatsData(st))
}

func (p *Push) PushLeaderboard(ctx context.Context, userID int64, entries []entity.LeaderboardEntry) bool {
	return p.send(ctx, "PushLeaderboard", userID, realtime.EventLeaderboardUpdate, ToLeaderboardData(entries))
}

// BroadcastLeaderboard sends the board to every connected learner and returns how many
// accepted it.
func (p *Push) BroadcastLeaderboard(ctx context.Context, entries []entity.LeaderboardEntry) int {
	ctx, span := p.ins.Tracer("progress.outbound.push").Start(ctx, "BroadcastLeaderboard")
	defer span.End()

	n := p.hub.Broadcast(ctx, realtime.EventLeaderboardUpdate, ToLeaderboardData(entries))
	span.SetAttributes(attribute.Int("delivered", n))

	return n
}

func (p *Push) PushProgress(ctx context.Context, userID int64, item entity.ProgressItem) bool {
	return p.send(ctx, "PushProgress", userID, realtime.EventProgressUpdate, ProgressData(item))
}

func (p *Push) PushSettings(ctx context.Context, userID int64, settings valueobject.JSONMap) bool {
	return p.send(ctx, "PushSettings", userID, realtime.EventSettingsUpdate, settings)
}

func (p *Push) PushPremium(ctx context.Context, userID int64, isPremium bool, plan string) bool {
	return p.send(ctx, "PushPremium", userID, realtime.EventPremiumUpdate, PremiumData{IsPremium: isPremium, Plan: plan})
}

// Connected reports whether userID has a live subscriber, so callers can skip building
// envelopes nobody will receive.
func (p *Push) Connected(userID int64) bool {
	return p.hub.Connected(userID)
}
