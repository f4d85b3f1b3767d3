package inbound

import (
	"net/http"

	"github.com/shandysiswandi/levelup/internal/pkg/router"
)

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.GET("/api/v1/notification/inbox", end.ListInbox)
	r.PATCH("/api/v1/notification/inbox/:id/read", end.MarkInboxRead)
	r.PUT("/api/v1/notification/inbox/read-all", end.MarkAllInboxRead)

	r.POST("/api/v1/notification/announce", end.Announce, r.Authorize("notification", "announce"))

	r.Stream("/api/v1/notification/stream", http.HandlerFunc(end.StreamNotifications))
}
