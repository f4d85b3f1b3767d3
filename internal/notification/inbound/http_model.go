package inbound

import (
	"time"

	"github.com/shandysiswandi/levelup/internal/notification/entity"
	"github.com/shandysiswandi/levelup/internal/pkg/valueobject"
)

type NotificationResponse struct {
	ID        int64               `json:"id,string"`
	Type      string              `json:"type"`
	Title     string              `json:"title"`
	Message   string              `json:"message"`
	Icon      string              `json:"icon"`
	Color     string              `json:"color"`
	Payload   valueobject.JSONMap `json:"payload" swaggertype:"object"`
	Read      bool                `json:"read"`
	ReadAt    *time.Time          `json:"read_at,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

type NotificationsResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Unread        int64                  `json:"unread"`
}

type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

type AnnounceRequest struct {
	RecipientIDs []int64             `json:"recipient_ids"`
	Title        string              `json:"title"`
	Message      string              `json:"message"`
	Payload      valueobject.JSONMap `json:"payload" swaggertype:"object"`
}

type AnnounceResponse struct {
	Created   int `json:"created"`
	Delivered int `json:"delivered"`
}

func (AnnounceResponse) StatusCode() int { return 201 }

func (AnnounceResponse) Message() string { return "announcement created" }

func toNotificationResponse(n entity.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Type:      n.Type.String(),
		Title:     n.Title,
		Message:   n.Message,
		Icon:      n.Icon,
		Color:     n.Color,
		Payload:   n.Payload,
		Read:      n.Read(),
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}
