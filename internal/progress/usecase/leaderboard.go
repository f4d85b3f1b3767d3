package usecase

import (
	"context"
	"log/slog"

	"github.com/jellydator/ttlcache/v3"

	"github.com/shandysiswandi/levelup/internal/pkg/goerror"
	"github.com/shandysiswandi/levelup/internal/pkg/jwt"
	"github.com/shandysiswandi/levelup/internal/progress/entity"
)

type GetLeaderboardInput struct {
	Limit int32 `validate:"gte=1,lte=100"`
}

func (s *Usecase) GetLeaderboard(ctx context.Context, in GetLeaderboardInput) ([]entity.LeaderboardEntry, error) {
	ctx, span := s.startSpan(ctx, "GetLeaderboard")
	defer span.End()

	if _, err := jwt.RequireAuth(ctx); err != nil {
		return nil, err
	}

	if in.Limit == 0 {
		in.Limit = defaultLeaderboardLimit
	}
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	entries, err := s.leaderboard(ctx, in.Limit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load leaderboard", "limit", in.Limit, "error", err)
		return nil, goerror.NewServer(err)
	}

	return entries, nil
}

// clampLimit maps a client supplied limit into [1, 100], with 0 meaning the default.
func clampLimit(limit int32) int32 {
	switch {
	case limit <= 0:
		return defaultLeaderboardLimit
	case limit > maxLeaderboardLimit:
		return maxLeaderboardLimit
	default:
		return limit
	}
}

func (s *Usecase) leaderboard(ctx context.Context, limit int32) ([]entity.LeaderboardEntry, error) {
	if item := s.board.Get(limit); item != nil {
		return item.Value(), nil
	}

	entries, err := s.repoBoard.Top(ctx, limit)
	if err != nil {
		slog.WarnContext(ctx, "failed to read leaderboard store, using database", "error", err)
		entries, err = s.repoDB.ListTopStats(ctx, limit)
		if err != nil {
			return nil, err
		}
	}

	s.board.Set(limit, entries, ttlcache.DefaultTTL)
	return entries, nil
}
