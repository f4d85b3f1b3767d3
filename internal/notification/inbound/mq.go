package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/levelup/internal/pkg/config"
	"github.com/shandysiswandi/levelup/internal/pkg/goroutine"
	"github.com/shandysiswandi/levelup/internal/pkg/idempotency"
	"github.com/shandysiswandi/levelup/internal/pkg/instrument"
	"github.com/shandysiswandi/levelup/internal/pkg/messaging"
	"github.com/shandysiswandi/levelup/internal/pkg/uid"
	"github.com/shandysiswandi/levelup/internal/shared/event"
)

type consumer struct {
	name    string
	topic   string // destination where publisher sent message
	handler messaging.Handler
}

func consumers(h *MQHandler) []consumer {
	return []consumer{
		{
			name:    event.ProgressUpdatedConsumerNotification,
			topic:   event.ProgressUpdatedDestination,
			handler: h.ProgressUpdatedNotification,
		},
		{
			name:    event.AchievementUnlockedConsumerNotification,
			topic:   event.AchievementUnlockedDestination,
			handler: h.AchievementUnlockedNotification,
		},
		{
			name:    event.RoomCompletedConsumerNotification,
			topic:   event.RoomCompletedDestination,
			handler: h.RoomCompletedNotification,
		},
		{
			name:    event.UserRegisteredConsumerNotification,
			topic:   event.UserRegisteredDestination,
			handler: h.UserRegisteredNotification,
		},
	}
}

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Messaging,
	uuid uid.StringID,
	idem idempotency.Idempotency,
	uc ucConsumer,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, idem: idem, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.notification.consumer_names")
	concurrency := cfg.GetInt("modules.notification.consumer_concurrency")

	for _, c := range consumers(mqHandler) {
		if !slices.Contains(enableConsumerNames, c.name) {
			continue
		}

		err := routine.Go(ctx, c.name, func(pCtx context.Context) error {
			slog.InfoContext(ctx, "Running job for handling consumer", "consumer", c.name)
			return messenger.Consume(pCtx,
				c.topic,
				c.handler,
				messaging.WithGroup(c.name),
				messaging.WithAutoAck(true),
				messaging.WithConcurrency(concurrency),
				messaging.WithMaxInFlight(concurrency),
			)
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to start consumer", "consumer", c.name, "error", err)
		}
	}
}
