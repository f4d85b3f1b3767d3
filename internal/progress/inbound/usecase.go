package inbound

import (
	"context"

	"github.com/shandysiswandi/levelup/internal/progress/entity"
	"github.com/shandysiswandi/levelup/internal/progress/usecase"
)

type ucConsumer interface {
	ConsumeProgress(ctx context.Context, in usecase.ConsumeProgressInput) error
	ConsumeSettings(ctx context.Context, in usecase.ConsumeSettingsInput) error
	ConsumePremium(ctx context.Context, in usecase.ConsumePremiumInput) error
}

type ucRealtime interface {
	RefreshStats(ctx context.Context, userID int64) error
	RefreshLeaderboard(ctx context.Context, userID int64, limit int32) error
}

type uc interface {
	GetStats(ctx context.Context) (*entity.Stats, error)
	GetLeaderboard(ctx context.Context, in usecase.GetLeaderboardInput) ([]entity.LeaderboardEntry, error)
}
