package notification

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/levelup/internal/notification/inbound"
	"github.com/shandysiswandi/levelup/internal/notification/outbound/db"
	"github.com/shandysiswandi/levelup/internal/notification/outbound/push"
	"github.com/shandysiswandi/levelup/internal/notification/usecase"
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
)

type Dependency struct {
	Ctx         context.Context
	DBConn      *pgxpool.Pool
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
	dbNotif := db.NewDB(dep.DBConn, dep.Instrument)
	repoPush := push.New(dep.Hub, dep.Instrument)

	uc := usecase.NewNotification(usecase.Dependency{
		RepoDB:     dbNotif,
		RepoPush:   repoPush,
		UID:        dep.UID,
		Clock:      dep.Clock,
		Validator:  dep.Validator,
		Instrument: dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)
	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, dep.Idempotency, uc, dep.Instrument)
	}

	return nil
}
