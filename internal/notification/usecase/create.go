package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/levelup/internal/notification/entity"
	"github.com/shandysiswandi/levelup/internal/pkg/valueobject"
	"go.opentelemetry.io/otel/attribute"
)

type CreateInput struct {
	RecipientID int64       `validate:"required,gt=0"`
	Type        entity.Type `validate:"required,oneof=achievement level_up streak challenge system social"`
	Title       string      `validate:"required,nonblank,max=200"`
	Message     string      `validate:"required,nonblank,max=1000"`
	// Icon and Color override the style of Type when set.
	Icon    string
	Color   string
	Payload valueobject.JSONMap
}

// Create persists a notification and then pushes it to the recipient channel.
// It returns nil when the record could not be persisted; the push outcome is never
// reported.
func (s *Usecase) Create(ctx context.Context, in CreateInput) *entity.Notification {
	ctx, span := s.startSpan(ctx, "Create")
	defer span.End()

	n, ok := s.build(ctx, in)
	if !ok {
		return nil
	}

	if err := s.repoDB.CreateNotification(ctx, n); err != nil {
		slog.ErrorContext(ctx, "failed to repo create notification", "recipient_id", in.RecipientID, "type", in.Type, "error", err)
		return nil
	}

	delivered := s.repoPush.PushNotification(ctx, n)
	span.SetAttributes(attribute.Bool("notification.delivered", delivered))

	return &n
}

func (s *Usecase) build(ctx context.Context, in CreateInput) (entity.Notification, bool) {
	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "invalid notification input", "recipient_id", in.RecipientID, "type", in.Type, "error", err)
		return entity.Notification{}, false
	}

	style := in.Type.Style()
	if icon := strings.TrimSpace(in.Icon); icon != "" {
		style.Icon = icon
	}
	if color := strings.TrimSpace(in.Color); color != "" {
		style.Color = color
	}

	payload := in.Payload.Clone()
	if payload == nil {
		payload = valueobject.JSONMap{}
	}

	return entity.Notification{
		ID:          s.uid.Generate(),
		RecipientID: in.RecipientID,
		Type:        in.Type,
		Title:       in.Title,
		Message:     in.Message,
		Icon:        style.Icon,
		Color:       style.Color,
		Payload:     payload,
		CreatedAt:   s.clock.Now().UTC(),
	}, true
}
