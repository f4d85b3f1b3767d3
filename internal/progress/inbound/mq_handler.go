package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/levelup/internal/pkg/idempotency"
	"github.com/shandysiswandi/levelup/internal/pkg/instrument"
	"github.com/shandysiswandi/levelup/internal/pkg/messaging"
	"github.com/shandysiswandi/levelup/internal/pkg/uid"
	"github.com/shandysiswandi/levelup/internal/progress/usecase"
	"github.com/shandysiswandi/levelup/internal/shared/event"
)

type MQHandler struct {
	uc   ucConsumer
	uuid uid.StringID
	idem idempotency.Idempotency
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	if cID := messaging.HeaderValue(headers, messaging.HeaderCorrelationID); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) once(ctx context.Context, consumer, eventID string, fn func(context.Context) error) error {
	if h.idem == nil || eventID == "" {
		return fn(ctx)
	}

	err := h.idem.Exec(ctx, consumer+":"+eventID, fn)
	if errors.Is(err, idempotency.ErrAlreadyCompleted) {
		slog.InfoContext(ctx, "skip duplicate event", "consumer", consumer, "event_id", eventID)
		return nil
	}
	return err
}

func (h *MQHandler) ProgressUpdated(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("progress.inbound.mq").Start(ctx, "ProgressUpdated")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: progress updated", "msg_body", string(body))

	var payload event.ProgressUpdatedMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of progress updated", "msg_body", string(body), "error", err)
		return nil
	}

	in := usecase.ConsumeProgressInput{
		UserID:        payload.UserID,
		Username:      payload.Username,
		PointsDelta:   payload.PointsDelta,
		TotalPoints:   payload.TotalPoints,
		Level:         payload.Level,
		CurrentStreak: payload.CurrentStreak,
		LongestStreak: payload.LongestStreak,
		Activity:      payload.Activity,
		OccurredAt:    payload.OccurredAt,
	}
	if payload.Item != nil {
		in.Item = &usecase.ProgressItemInput{
			Kind:    payload.Item.Kind,
			Slug:    payload.Item.Slug,
			Percent: payload.Item.Percent,
		}
	}

	return h.once(ctx, event.ProgressUpdatedConsumerProgress, payload.EventID, func(ctx context.Context) error {
		if err := h.uc.ConsumeProgress(ctx, in); err != nil {
			slog.ErrorContext(ctx, "failed to consume progress updated", "msg_body", string(body), "error", err)
			return err
		}
		return nil
	})
}

func (h *MQHandler) SettingsUpdated(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("progress.inbound.mq").Start(ctx, "SettingsUpdated")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: settings updated", "msg_body", string(body))

	var payload event.SettingsUpdatedMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of settings updated", "msg_body", string(body), "error", err)
		return nil
	}

	return h.once(ctx, event.SettingsUpdatedConsumerProgress, payload.EventID, func(ctx context.Context) error {
		if err := h.uc.ConsumeSettings(ctx, usecase.ConsumeSettingsInput{
			UserID:   payload.UserID,
			Settings: payload.Settings,
		}); err != nil {
			slog.ErrorContext(ctx, "failed to consume settings updated", "msg_body", string(body), "error", err)
			return err
		}
		return nil
	})
}

func (h *MQHandler) PremiumUpdated(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("progress.inbound.mq").Start(ctx, "PremiumUpdated")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: premium updated", "msg_body", string(body))

	var payload event.PremiumUpdatedMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of premium updated", "msg_body", string(body), "error", err)
		return nil
	}

	return h.once(ctx, event.PremiumUpdatedConsumerProgress, payload.EventID, func(ctx context.Context) error {
		if err := h.uc.ConsumePremium(ctx, usecase.ConsumePremiumInput{
			UserID:    payload.UserID,
			IsPremium: payload.IsPremium,
			Plan:      payload.Plan,
		}); err != nil {
			slog.ErrorContext(ctx, "failed to consume premium updated", "msg_body", string(body), "error", err)
			return err
		}
		return nil
	})
}
