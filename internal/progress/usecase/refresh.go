package usecase

import (
	"context"
	"log/slog"
)

// RefreshStats answers a client stats:refresh request with a stats:update push.
func (s *Usecase) RefreshStats(ctx context.Context, userID int64) error {
	ctx, span := s.startSpan(ctx, "RefreshStats")
	defer span.End()

	s.pushStats(ctx, userID)
	return nil
}

// RefreshLeaderboard answers a client leaderboard:refresh request. Out of range limits are
// clamped rather than rejected.
func (s *Usecase) RefreshLeaderboard(ctx context.Context, userID int64, limit int32) error {
	ctx, span := s.startSpan(ctx, "RefreshLeaderboard")
	defer span.End()

	s.pushLeaderboard(ctx, userID, clampLimit(limit))
	return nil
}

func (s *Usecase) pushStats(ctx context.Context, userID int64) {
	st, err := s.stats(ctx, userID)
	if err != nil {
		slog.WarnContext(ctx, "failed to load stats for push", "user_id", userID, "error", err)
		return
	}

	s.repoPush.PushStats(ctx, userID, *st)
}

func (s *Usecase) pushLeaderboard(ctx context.Context, userID int64, limit int32) {
	entries, err := s.leaderboard(ctx, limit)
	if err != nil {
		slog.WarnContext(ctx, "failed to load leaderboard for push", "user_id", userID, "error", err)
		return
	}

	s.repoPush.PushLeaderboard(ctx, userID, entries)
}

// broadcastLeaderboard sends the default top entries to everyone connected, since a score
// change can move any learner's rank.
func (s *Usecase) broadcastLeaderboard(ctx context.Context) {
	entries, err := s.leaderboard(ctx, defaultLeaderboardLimit)
	if err != nil {
		slog.WarnContext(ctx, "failed to load leaderboard for broadcast", "error", err)
		return
	}

	s.repoPush.BroadcastLeaderboard(ctx, entries)
}
