package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/levelup/internal/notification/entity"
	"github.com/shandysiswandi/levelup/internal/pkg/goerror"
	"github.com/shandysiswandi/levelup/internal/pkg/jwt"
)

type ListInboxInput struct {
	Status string `validate:"omitempty,oneof=all unread read"`
	Limit  int32  `validate:"omitempty,gte=1,lte=100"`
	Offset int32  `validate:"omitempty,gte=0"`
}

type ListInboxOutput struct {
	Items  []entity.Notification
	Unread int64
}

// ListInbox is the poll based view of notifications, including those missed while
// the learner was offline.
func (s *Usecase) ListInbox(ctx context.Context, in ListInboxInput) (*ListInboxOutput, error) {
	ctx, span := s.startSpan(ctx, "ListInbox")
	defer span.End()

	clm, err := jwt.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}

	if in.Status == "" {
		in.Status = string(entity.NotificationStatusAll)
	}
	if in.Limit == 0 {
		in.Limit = 20
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	items, err := s.repoDB.ListNotifications(ctx, clm.UserID, entity.NotificationStatus(in.Status), in.Limit, in.Offset)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list notifications", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	unread, err := s.repoDB.CountUnreadNotifications(ctx, clm.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo count unread notifications", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ListInboxOutput{Items: items, Unread: unread}, nil
}

type MarkInboxReadInput struct {
	ID int64 `validate:"required,gt=0"`
}

func (s *Usecase) MarkInboxRead(ctx context.Context, in MarkInboxReadInput) error {
	ctx, span := s.startSpan(ctx, "MarkInboxRead")
	defer span.End()

	clm, err := jwt.RequireAuth(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	updated, err := s.repoDB.MarkNotificationRead(ctx, clm.UserID, in.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo mark inbox read", "user_id", clm.UserID, "notification_id", in.ID, "error", err)
		return goerror.NewServer(err)
	}
	if !updated {
		return goerror.NewBusiness("inbox notification not found", goerror.CodeNotFound)
	}

	return nil
}

func (s *Usecase) MarkAllInboxRead(ctx context.Context) (int64, error) {
	ctx, span := s.startSpan(ctx, "MarkAllInboxRead")
	defer span.End()

	clm, err := jwt.RequireAuth(ctx)
	if err != nil {
		return 0, err
	}

	updated, err := s.repoDB.MarkNotificationsReadAll(ctx, clm.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo mark all inbox read", "user_id", clm.UserID, "error", err)
		return 0, goerror.NewServer(err)
	}

	return updated, nil
}
