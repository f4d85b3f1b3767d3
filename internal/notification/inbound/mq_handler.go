package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/levelup/internal/notification/usecase"
	"github.com/shandysiswandi/levelup/internal/pkg/idempotency"
	"github.com/shandysiswandi/levelup/internal/pkg/instrument"
	"github.com/shandysiswandi/levelup/internal/pkg/messaging"
	"github.com/shandysiswandi/levelup/internal/pkg/uid"
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

// once runs fn at most once per consumer and event id. Events without an id are not
// deduplicated.
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

func (h *MQHandler) ProgressUpdatedNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "ProgressUpdatedNotification")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: progress updated notification", "msg_body", string(body))

	var payload event.ProgressUpdatedMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of progress updated notification", "msg_body", string(body), "error", err)
		return nil
	}

	return h.once(ctx, event.ProgressUpdatedConsumerNotification, payload.EventID, func(ctx context.Context) error {
		if err := h.uc.ConsumeProgress(ctx, usecase.ConsumeProgressInput{
			UserID:        payload.UserID,
			Level:         payload.Level,
			PreviousLevel: payload.PreviousLevel,
			CurrentStreak: payload.CurrentStreak,
			StreakChanged: payload.StreakChanged,
		}); err != nil {
			slog.ErrorContext(ctx, "failed to consume progress updated", "msg_body", string(body), "error", err)
			return err
		}
		return nil
	})
}

func (h *MQHandler) AchievementUnlockedNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "AchievementUnlockedNotification")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: achievement unlocked notification", "msg_body", string(body))

	var payload event.AchievementUnlockedMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of achievement unlocked notification", "msg_body", string(body), "error", err)
		return nil
	}

	return h.once(ctx, event.AchievementUnlockedConsumerNotification, payload.EventID, func(ctx context.Context) error {
		if err := h.uc.ConsumeAchievement(ctx, usecase.ConsumeAchievementInput{
			UserID:      payload.UserID,
			Key:         payload.AchievementKey,
			Name:        payload.Name,
			Description: payload.Description,
			Points:      payload.Points,
		}); err != nil {
			slog.ErrorContext(ctx, "failed to consume achievement unlocked", "msg_body", string(body), "error", err)
			return err
		}
		return nil
	})
}

func (h *MQHandler) RoomCompletedNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "RoomCompletedNotification")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: room completed notification", "msg_body", string(body))

	var payload event.RoomCompletedMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of room completed notification", "msg_body", string(body), "error", err)
		return nil
	}

	return h.once(ctx, event.RoomCompletedConsumerNotification, payload.EventID, func(ctx context.Context) error {
		if err := h.uc.ConsumeCompletion(ctx, usecase.ConsumeCompletionInput{
			UserID:    payload.UserID,
			Kind:      payload.Kind,
			Slug:      payload.Slug,
			Title:     payload.Title,
			Points:    payload.Points,
			FirstTime: payload.FirstTime,
		}); err != nil {
			slog.ErrorContext(ctx, "failed to consume room completed", "msg_body", string(body), "error", err)
			return err
		}
		return nil
	})
}

func (h *MQHandler) UserRegisteredNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "UserRegisteredNotification")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: user registered notification", "msg_body", string(body))

	var payload event.UserRegisteredMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of user registered notification", "msg_body", string(body), "error", err)
		return nil
	}

	name := payload.FullName
	if name == "" {
		name = payload.Username
	}

	return h.once(ctx, event.UserRegisteredConsumerNotification, payload.EventID, func(ctx context.Context) error {
		if err := h.uc.ConsumeUserRegistered(ctx, usecase.ConsumeUserRegisteredInput{
			UserID:   payload.UserID,
			FullName: name,
		}); err != nil {
			slog.ErrorContext(ctx, "failed to consume user registered", "msg_body", string(body), "error", err)
			return err
		}
		return nil
	})
}
