package progress

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/levelup/internal/pkg/clock"
	"github.com/shandysiswandi/levelup/internal/pkg/config"
	"github.com/shandysiswandi/levelup/internal/pkg/goroutine"
	"github.com/shandysiswandi/levelup/internal/pkg/idempotency"
	"github.com/shandysiswandi/levelup/internal/pkg/instrument"
	"github.com/shandysiswandi/levelup/internal/pkg/messaging"
	"github.com/shandysiswandi/levelup/internal/pkg/realtime"
	"github.com/shandysiswandi/levelup/internal/pkg/router"
	"github.com/shandysiswandi/levelup/internal/pkg/uid"
	"github.com/shandysiswandi/levelup/internal/pkg/validator"
	"github.com/shandysiswandi/levelup/internal/progress/inbound"
	"github.com/shandysiswandi/levelup/internal/progress/outbound/db"
	"github.com/shandysiswandi/levelup/internal/progress/outbound/leaderboard"
	"github.com/shandysiswandi/levelup/internal/progress/outbound/push"
	"github.com/shandysiswandi/levelup/internal/progress/usecase"
)

type Dependency struct {
	Ctx         context.Context
	DBConn      *pgxpool.Pool
	Redis       redis.UniversalClient
	Messaging   messaging.Messaging
	Config      config.Config
	Instrument  instrument.Instrumentation
	UID         uid.NumberID
	UUID        uid.StringID
	Clock       clock.Clocker
	Goroutine   *goroutine.Manager
	Validator   validator.Validator
	Router      *router.Router
	Hub         *realtime.Hub
	Idempotency idempotency.Idempotency
}

func New(dep Dependency) error {
	uc := usecase.NewProgress(usecase.Dependency{
		RepoDB:         db.NewDB(dep.DBConn, dep.Instrument),
		RepoBoard:      leaderboard.New(dep.Redis, dep.Instrument),
		RepoPush:       push.New(dep.Hub, dep.Instrument),
		UID:            dep.UID,
		Clock:          dep.Clock,
		Validator:      dep.Validator,
		Instrument:     dep.Instrument,
		LeaderboardTTL: dep.Config.GetSecond("modules.progress.leaderboard_cache_ttl"),
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)
	inbound.RegisterRealtimeHandler(dep.Hub, uc)
	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, dep.Idempotency, uc, dep.Instrument)
	}

	return nil
}
