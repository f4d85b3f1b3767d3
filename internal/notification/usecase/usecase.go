package usecase

import (
	"context"

	"github.com/shandysiswandi/levelup/internal/notification/entity"
	"github.com/shandysiswandi/levelup/internal/pkg/clock"
	"github.com/shandysiswandi/levelup/internal/pkg/instrument"
	"github.com/shandysiswandi/levelup/internal/pkg/realtime"
	"github.com/shandysiswandi/levelup/internal/pkg/uid"
	"github.com/shandysiswandi/levelup/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	CreateNotification(ctx context.Context, n entity.Notification) error
	CreateNotifications(ctx context.Context, ns []entity.Notification) error
	ListNotifications(ctx context.Context, userID int64, status entity.NotificationStatus, limit, offset int32) ([]entity.Notification, error)
	CountUnreadNotifications(ctx context.Context, userID int64) (int64, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID int64) (bool, error)
	MarkNotificationsReadAll(ctx context.Context, userID int64) (int64, error)
}

type repoPush interface {
	PushNotification(ctx context.Context, n entity.Notification) bool
	Subscribe(ctx context.Context, userID int64, buffer int) (*realtime.Stream, func())
}

type Usecase struct {
	repoDB    repoDB
	repoPush  repoPush
	uid       uid.NumberID
	clock     clock.Clocker
	validator validator.Validator
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB     repoDB
	RepoPush   repoPush
	UID        uid.NumberID
	Clock      clock.Clocker
	Validator  validator.Validator
	Instrument instrument.Instrumentation
}

func NewNotification(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		repoPush:  dep.RepoPush,
		uid:       dep.UID,
		clock:     dep.Clock,
		validator: dep.Validator,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}
