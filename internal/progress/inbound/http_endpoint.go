package inbound

import (
	"github.com/shandysiswandi/levelup/internal/pkg/router"
	"github.com/shandysiswandi/levelup/internal/progress/outbound/push"
	"github.com/shandysiswandi/levelup/internal/progress/usecase"
)

type HTTPEndpoint struct {
	uc uc
}

// GetStats returns the progress stats of the authenticated learner.
// @Summary Get stats
// @Description Returns level, points, streaks, rank, premium flag, recent activity and weekly stats. The body matches the data of a stats:update push.
// @Tags Progress
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=push.StatsData} "Current stats"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/progress/stats [get]
func (h *HTTPEndpoint) GetStats(r *router.Request) (any, error) {
	st, err := h.uc.GetStats(r.Context())
	if err != nil {
		return nil, err
	}

	return push.ToStatsData(*st), nil
}

// GetLeaderboard returns the top learners by points.
// @Summary Get leaderboard
// @Tags Progress
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Number of entries (default 10, max 100)"
// @Success 200 {object} router.successResponse{data=push.LeaderboardData} "Leaderboard"
// @Failure 400 {object} router.errorResponse "Invalid query parameters"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/progress/leaderboard [get]
func (h *HTTPEndpoint) GetLeaderboard(r *router.Request) (any, error) {
	limit, err := r.GetQueryInt32("limit")
	if err != nil {
		return nil, err
	}

	entries, err := h.uc.GetLeaderboard(r.Context(), usecase.GetLeaderboardInput{Limit: limit})
	if err != nil {
		return nil, err
	}

	return push.ToLeaderboardData(entries), nil
}
