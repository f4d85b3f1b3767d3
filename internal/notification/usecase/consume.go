package usecase

import (
	"context"
	"log/slog"
)

type ConsumeProgressInput struct {
	UserID        int64 `validate:"required,gt=0"`
	Level         int64 `validate:"gte=0"`
	PreviousLevel int64 `validate:"gte=0"`
	CurrentStreak int64 `validate:"gte=0"`
	StreakChanged bool
}

// ConsumeProgress derives level up and streak milestone notifications from a progress event.
func (s *Usecase) ConsumeProgress(ctx context.Context, in ConsumeProgressInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeProgress")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	if in.Level > in.PreviousLevel {
		s.NotifyLevelUp(ctx, in.UserID, in.Level)
	}
	if in.StreakChanged {
		s.NotifyStreak(ctx, in.UserID, in.CurrentStreak)
	}

	return nil
}

type ConsumeAchievementInput struct {
	UserID      int64  `validate:"required,gt=0"`
	Key         string `validate:"required,max=100"`
	Name        string `validate:"required,max=150"`
	Description string `validate:"max=1000"`
	Points      int64  `validate:"gte=0"`
}

func (s *Usecase) ConsumeAchievement(ctx context.Context, in ConsumeAchievementInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeAchievement")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	s.NotifyAchievement(ctx, AchievementInput(in))
	return nil
}

type ConsumeCompletionInput struct {
	UserID    int64  `validate:"required,gt=0"`
	Kind      string `validate:"required,oneof=room lab"`
	Slug      string `validate:"required,slug"`
	Title     string `validate:"required,max=200"`
	Points    int64  `validate:"gte=0"`
	FirstTime bool
}

func (s *Usecase) ConsumeCompletion(ctx context.Context, in ConsumeCompletionInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeCompletion")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	s.NotifyCompletion(ctx, CompletionInput(in))
	return nil
}

type ConsumeUserRegisteredInput struct {
	UserID   int64  `validate:"required,gt=0"`
	FullName string `validate:"max=100"`
}

func (s *Usecase) ConsumeUserRegistered(ctx context.Context, in ConsumeUserRegisteredInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeUserRegistered")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	s.NotifyWelcome(ctx, in.UserID, in.FullName)
	return nil
}
