package inbound

import (
	"github.com/shandysiswandi/levelup/internal/pkg/router"
)

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.GET("/api/v1/progress/stats", end.GetStats)
	r.GET("/api/v1/progress/leaderboard", end.GetLeaderboard)
}
