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

	enableConsumerNames := cfg.GetArray("modules.progress.consumer_names")
	maxInFlight := cfg.GetInt("modules.progress.consumer_max_in_flight")

	var consumers = []struct {
		name    string
		topic   string // destination where publisher sent message
		handler messaging.Handler
	}{
		{
			name:    event.ProgressUpdatedConsumerProgress,
			topic:   event.ProgressUpdatedDestination,
			handler: mqHandler.ProgressUpdated,
		},
		{
			name:    event.SettingsUpdatedConsumerProgress,
			topic:   event.SettingsUpdatedDestination,
			handler: mqHandler.SettingsUpdated,
		},
		{
			name:    event.PremiumUpdatedConsumerProgress,
			topic:   event.PremiumUpdatedDestination,
			handler: mqHandler.PremiumUpdated,
		},
	}

	for _, consumer := range consumers {
		if !slices.Contains(enableConsumerNames, consumer.name) {
			continue
		}

		err := routine.Go(ctx, consumer.name, func(pCtx context.Context) error {
			slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
			// one worker per consumer keeps a learner's progress events in publish order
			return messenger.Consume(pCtx,
				consumer.topic,
				consumer.handler,
				messaging.WithGroup(consumer.name),
				messaging.WithAutoAck(true),
				messaging.WithConcurrency(1),
				messaging.WithMaxInFlight(max(maxInFlight, 1)),
			)
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to start consumer", "consumer", consumer.name, "error", err)
		}
	}
}
