package usecase

import (
	"context"
	"log/slog"

	"github.com/samber/lo"
	"github.com/shandysiswandi/levelup/internal/notification/entity"
	"github.com/shandysiswandi/levelup/internal/pkg/goerror"
	"github.com/shandysiswandi/levelup/internal/pkg/jwt"
	"github.com/shandysiswandi/levelup/internal/pkg/valueobject"
)

type AnnounceInput struct {
	RecipientIDs []int64             `validate:"required,min=1,max=500,dive,gt=0"`
	Title        string              `validate:"required,nonblank,max=200"`
	Message      string              `validate:"required,nonblank,max=1000"`
	Payload      valueobject.JSONMap `validate:"-"`
}

type AnnounceOutput struct {
	Created   int
	Delivered int
}

// Announce creates a system notification for each recipient. Route authorization
// restricts it to administrators.
func (s *Usecase) Announce(ctx context.Context, in AnnounceInput) (*AnnounceOutput, error) {
	ctx, span := s.startSpan(ctx, "Announce")
	defer span.End()

	clm, err := jwt.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}

	in.RecipientIDs = lo.Uniq(in.RecipientIDs)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	ns := make([]entity.Notification, 0, len(in.RecipientIDs))
	for _, id := range in.RecipientIDs {
		n, ok := s.build(ctx, CreateInput{
			RecipientID: id,
			Type:        entity.TypeSystem,
			Title:       in.Title,
			Message:     in.Message,
			Payload:     in.Payload,
		})
		if ok {
			ns = append(ns, n)
		}
	}

	if err := s.repoDB.CreateNotifications(ctx, ns); err != nil {
		slog.ErrorContext(ctx, "failed to repo create announcement", "admin_id", clm.UserID, "recipients", len(ns), "error", err)
		return nil, goerror.NewServer(err)
	}

	delivered := lo.CountBy(ns, func(n entity.Notification) bool {
		return s.repoPush.PushNotification(ctx, n)
	})

	slog.InfoContext(ctx, "announcement sent", "admin_id", clm.UserID, "created", len(ns), "delivered", delivered)

	return &AnnounceOutput{Created: len(ns), Delivered: delivered}, nil
}
