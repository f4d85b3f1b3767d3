package inbound

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/levelup/internal/pkg/realtime"
)

// RegisterRealtimeHandler answers the client requests sent on connect and resync.
func RegisterRealtimeHandler(hub *realtime.Hub, uc ucRealtime) {
	hub.HandleRequest(realtime.EventStatsRefresh, func(ctx context.Context, userID int64, _ realtime.Envelope) error {
		return uc.RefreshStats(ctx, userID)
	})

	hub.HandleRequest(realtime.EventLeaderboardRefresh, func(ctx context.Context, userID int64, req realtime.Envelope) error {
		var in realtime.LeaderboardRequest
		if err := req.Decode(&in); err != nil {
			slog.WarnContext(ctx, "invalid leaderboard refresh payload, using default limit", "user_id", userID, "error", err)
		}
		return uc.RefreshLeaderboard(ctx, userID, in.Limit)
	})
}
