package usecase

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/shandysiswandi/levelup/internal/pkg/clock"
	"github.com/shandysiswandi/levelup/internal/pkg/instrument"
	"github.com/shandysiswandi/levelup/internal/pkg/uid"
	"github.com/shandysiswandi/levelup/internal/pkg/validator"
	"github.com/shandysiswandi/levelup/internal/pkg/valueobject"
	"github.com/shandysiswandi/levelup/internal/progress/entity"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultLeaderboardLimit int32 = 10
	maxLeaderboardLimit     int32 = 100
	recentActivityLimit     int32 = 10
	weeklyWindow                  = 7 * 24 * time.Hour
	defaultLeaderboardTTL         = 5 * time.Second
)

type repoDB interface {
	GetStats(ctx context.Context, userID int64) (*entity.Stats, error)
	UpsertProgress(ctx context.Context, st entity.Stats) (bool, error)
	MergeSettings(ctx context.Context, userID int64, settings valueobject.JSONMap, at time.Time) (valueobject.JSONMap, error)
	UpdatePremium(ctx context.Context, userID int64, isPremium bool, at time.Time) error
	RankByPoints(ctx context.Context, points int64) (int64, error)
	ListTopStats(ctx context.Context, limit int32) ([]entity.LeaderboardEntry, error)
	CreateActivity(ctx context.Context, a entity.Activity) error
	ListRecentActivity(ctx context.Context, userID int64, limit int32) ([]entity.Activity, error)
	GetWeeklyStats(ctx context.Context, userID int64, since time.Time) (entity.WeeklyStats, error)
}

type repoBoard interface {
	SetScore(ctx context.Context, userID int64, username string, points int64) error
	Rank(ctx context.Context, userID int64) (int64, error)
	Top(ctx context.Context, limit int32) ([]entity.LeaderboardEntry, error)
}

type repoPush interface {
	Connected(userID int64) bool
	PushStats(ctx context.Context, userID int64, st entity.Stats) bool
	PushLeaderboard(ctx context.Context, userID int64, entries []entity.LeaderboardEntry) bool
	BroadcastLeaderboard(ctx context.Context, entries []entity.LeaderboardEntry) int
	PushProgress(ctx context.Context, userID int64, item entity.ProgressItem) bool
	PushSettings(ctx context.Context, userID int64, settings valueobject.JSONMap) bool
	PushPremium(ctx context.Context, userID int64, isPremium bool, plan string) bool
}

type Usecase struct {
	repoDB    repoDB
	repoBoard repoBoard
	repoPush  repoPush
	uid       uid.NumberID
	clock     clock.Clocker
	validator validator.Validator
	ins       instrument.Instrumentation

	// board caches leaderboard reads by limit; progress writes clear it.
	board *ttlcache.Cache[int32, []entity.LeaderboardEntry]
}

type Dependency struct {
	RepoDB     repoDB
	RepoBoard  repoBoard
	RepoPush   repoPush
	UID        uid.NumberID
	Clock      clock.Clocker
	Validator  validator.Validator
	Instrument instrument.Instrumentation
	// LeaderboardTTL defaults to 5s.
	LeaderboardTTL time.Duration
}

func NewProgress(dep Dependency) *Usecase {
	ttl := dep.LeaderboardTTL
	if ttl <= 0 {
		ttl = defaultLeaderboardTTL
	}

	return &Usecase{
		repoDB:    dep.RepoDB,
		repoBoard: dep.RepoBoard,
		repoPush:  dep.RepoPush,
		uid:       dep.UID,
		clock:     dep.Clock,
		validator: dep.Validator,
		ins:       dep.Instrument,
		board: ttlcache.New(
			ttlcache.WithTTL[int32, []entity.LeaderboardEntry](ttl),
			ttlcache.WithDisableTouchOnHit[int32, []entity.LeaderboardEntry](),
		),
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("progress.usecase").Start(ctx, name)
}
