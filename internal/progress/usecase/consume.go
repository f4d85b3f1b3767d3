package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/levelup/internal/pkg/valueobject"
	"github.com/shandysiswandi/levelup/internal/progress/entity"
)

type ProgressItemInput struct {
	Kind    string `validate:"required,oneof=room lab quiz"`
	Slug    string `validate:"required,slug"`
	Percent int64  `validate:"gte=0,lte=100"`
}

type ConsumeProgressInput struct {
	UserID        int64  `validate:"required,gt=0"`
	Username      string `validate:"max=100"`
	PointsDelta   int64
	TotalPoints   int64  `validate:"gte=0"`
	Level         int64  `validate:"gte=0"`
	CurrentStreak int64  `validate:"gte=0"`
	LongestStreak int64  `validate:"gte=0"`
	Activity      string `validate:"max=200"`
	Item          *ProgressItemInput
	OccurredAt    time.Time
}

// ConsumeProgress applies authoritative totals to the read model, sends the new board to
// every connected learner, then pushes the refreshed stats and item progress to the
// learner when connected.
func (s *Usecase) ConsumeProgress(ctx context.Context, in ConsumeProgressInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeProgress")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	at := in.OccurredAt
	if at.IsZero() {
		at = s.clock.Now()
	}
	at = at.UTC()

	applied, err := s.repoDB.UpsertProgress(ctx, entity.Stats{
		UserID:        in.UserID,
		Username:      in.Username,
		Points:        in.TotalPoints,
		Level:         in.Level,
		CurrentStreak: in.CurrentStreak,
		LongestStreak: max(in.LongestStreak, in.CurrentStreak),
		UpdatedAt:     at,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo upsert progress", "user_id", in.UserID, "error", err)
		return err
	}
	if !applied {
		slog.InfoContext(ctx, "stale progress event ignored", "user_id", in.UserID, "occurred_at", at)
		return nil
	}

	if in.Activity != "" || in.PointsDelta != 0 {
		act := entity.Activity{
			ID:         s.uid.Generate(),
			UserID:     in.UserID,
			Activity:   in.Activity,
			Points:     in.PointsDelta,
			OccurredAt: at,
		}
		if in.Item != nil {
			act.Kind, act.Slug = in.Item.Kind, in.Item.Slug
		}
		if err := s.repoDB.CreateActivity(ctx, act); err != nil {
			slog.ErrorContext(ctx, "failed to repo create activity", "user_id", in.UserID, "error", err)
			return err
		}
	}

	if err := s.repoBoard.SetScore(ctx, in.UserID, in.Username, in.TotalPoints); err != nil {
		slog.WarnContext(ctx, "failed to update leaderboard score", "user_id", in.UserID, "error", err)
	}
	s.board.DeleteAll()
	s.broadcastLeaderboard(ctx)

	if !s.repoPush.Connected(in.UserID) {
		return nil
	}

	s.pushStats(ctx, in.UserID)
	if in.Item != nil {
		s.repoPush.PushProgress(ctx, in.UserID, entity.ProgressItem(*in.Item))
	}

	return nil
}

type ConsumeSettingsInput struct {
	UserID   int64               `validate:"required,gt=0"`
	Settings valueobject.JSONMap `validate:"required"`
}

// ConsumeSettings merges the changed settings and pushes the merged map.
func (s *Usecase) ConsumeSettings(ctx context.Context, in ConsumeSettingsInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeSettings")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	merged, err := s.repoDB.MergeSettings(ctx, in.UserID, in.Settings, s.clock.Now().UTC())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo merge settings", "user_id", in.UserID, "error", err)
		return err
	}

	s.repoPush.PushSettings(ctx, in.UserID, merged)
	return nil
}

type ConsumePremiumInput struct {
	UserID    int64 `validate:"required,gt=0"`
	IsPremium bool
	Plan      string `validate:"max=50"`
}

func (s *Usecase) ConsumePremium(ctx context.Context, in ConsumePremiumInput) error {
	ctx, span := s.startSpan(ctx, "ConsumePremium")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	if err := s.repoDB.UpdatePremium(ctx, in.UserID, in.IsPremium, s.clock.Now().UTC()); err != nil {
		slog.ErrorContext(ctx, "failed to repo update premium", "user_id", in.UserID, "error", err)
		return err
	}

	s.repoPush.PushPremium(ctx, in.UserID, in.IsPremium, in.Plan)
	return nil
}
