package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/levelup/internal/pkg/goerror"
	"github.com/shandysiswandi/levelup/internal/pkg/jwt"
	"github.com/shandysiswandi/levelup/internal/pkg/valueobject"
	"github.com/shandysiswandi/levelup/internal/progress/entity"
)

// GetStats returns the stats of the authenticated learner. A learner without recorded
// progress gets zero totals.
func (s *Usecase) GetStats(ctx context.Context) (*entity.Stats, error) {
	ctx, span := s.startSpan(ctx, "GetStats")
	defer span.End()

	clm, err := jwt.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}

	st, err := s.stats(ctx, clm.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load stats", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if st.Username == "" {
		st.Username = clm.Username
	}

	return st, nil
}

func (s *Usecase) stats(ctx context.Context, userID int64) (*entity.Stats, error) {
	st, err := s.repoDB.GetStats(ctx, userID)
	if errors.Is(err, goerror.ErrNotFound) {
		st, err = &entity.Stats{UserID: userID, Settings: valueobject.JSONMap{}}, nil
	}
	if err != nil {
		return nil, err
	}

	st.Rank = s.rank(ctx, st)

	st.RecentActivity, err = s.repoDB.ListRecentActivity(ctx, userID, recentActivityLimit)
	if err != nil {
		return nil, err
	}

	st.Weekly, err = s.repoDB.GetWeeklyStats(ctx, userID, s.clock.Now().Add(-weeklyWindow))
	if err != nil {
		return nil, err
	}

	return st, nil
}

// rank prefers the leaderboard store and falls back to counting in the database.
func (s *Usecase) rank(ctx context.Context, st *entity.Stats) int64 {
	rank, err := s.repoBoard.Rank(ctx, st.UserID)
	if err == nil && rank > 0 {
		return rank
	}
	if err != nil {
		slog.WarnContext(ctx, "failed to read leaderboard rank", "user_id", st.UserID, "error", err)
	}
	if st.Points <= 0 {
		return 0
	}

	rank, err = s.repoDB.RankByPoints(ctx, st.Points)
	if err != nil {
		slog.WarnContext(ctx, "failed to repo rank by points", "user_id", st.UserID, "error", err)
		return 0
	}

	return rank
}
