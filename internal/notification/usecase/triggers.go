package usecase

import (
	"context"
	"fmt"

	"github.com/shandysiswandi/levelup/internal/notification/entity"
	"github.com/shandysiswandi/levelup/internal/pkg/valueobject"
)

func (s *Usecase) NotifyLevelUp(ctx context.Context, userID, level int64) *entity.Notification {
	return s.Create(ctx, CreateInput{
		RecipientID: userID,
		Type:        entity.TypeLevelUp,
		Title:       "Level up!",
		Message:     fmt.Sprintf("You reached level %d. Keep it going!", level),
		Payload:     valueobject.JSONMap{"level": level},
	})
}

// NotifyStreak creates a notification only when streak is a milestone.
func (s *Usecase) NotifyStreak(ctx context.Context, userID, streak int64) *entity.Notification {
	if !entity.IsStreakMilestone(streak) {
		return nil
	}

	return s.Create(ctx, CreateInput{
		RecipientID: userID,
		Type:        entity.TypeStreak,
		Title:       fmt.Sprintf("%d day streak!", streak),
		Message:     fmt.Sprintf("You have learned %d days in a row.", streak),
		Payload:     valueobject.JSONMap{"streak": streak},
	})
}

type AchievementInput struct {
	UserID      int64
	Key         string
	Name        string
	Description string
	Points      int64
}

// NotifyAchievement does not deduplicate; callers publish an unlock once.
func (s *Usecase) NotifyAchievement(ctx context.Context, in AchievementInput) *entity.Notification {
	msg := in.Description
	if msg == "" {
		msg = fmt.Sprintf("You unlocked %s.", in.Name)
	}

	return s.Create(ctx, CreateInput{
		RecipientID: in.UserID,
		Type:        entity.TypeAchievement,
		Title:       "Achievement unlocked: " + in.Name,
		Message:     msg,
		Payload: valueobject.JSONMap{
			"achievement_key": in.Key,
			"points":          in.Points,
		},
	})
}

type CompletionInput struct {
	UserID    int64
	Kind      string
	Slug      string
	Title     string
	Points    int64
	FirstTime bool
}

// NotifyCompletion creates a notification only for the first completion of a room or lab.
func (s *Usecase) NotifyCompletion(ctx context.Context, in CompletionInput) *entity.Notification {
	if !in.FirstTime {
		return nil
	}

	kind := "Room"
	if in.Kind == "lab" {
		kind = "Lab"
	}

	msg := fmt.Sprintf("You completed %s.", in.Title)
	if in.Points > 0 {
		msg = fmt.Sprintf("You completed %s and earned %d points.", in.Title, in.Points)
	}

	return s.Create(ctx, CreateInput{
		RecipientID: in.UserID,
		Type:        entity.TypeChallenge,
		Title:       kind + " completed",
		Message:     msg,
		Payload: valueobject.JSONMap{
			"kind":   in.Kind,
			"slug":   in.Slug,
			"points": in.Points,
		},
	})
}

func (s *Usecase) NotifyWelcome(ctx context.Context, userID int64, name string) *entity.Notification {
	if name == "" {
		name = "there"
	}

	return s.Create(ctx, CreateInput{
		RecipientID: userID,
		Type:        entity.TypeSystem,
		Title:       "Welcome to LevelUp!",
		Message:     fmt.Sprintf("Hi %s, your first room is waiting for you.", name),
		Icon:        "sparkles",
		Color:       "primary",
	})
}
