package push

import (
	"context"
	"strconv"
	"time"

	"github.com/shandysiswandi/levelup/internal/notification/entity"
	"github.com/shandysiswandi/levelup/internal/pkg/instrument"
	"github.com/shandysiswandi/levelup/internal/pkg/realtime"
	"github.com/shandysiswandi/levelup/internal/pkg/valueobject"
	"go.opentelemetry.io/otel/attribute"
)

// NotificationData is the data of a notification:new envelope.
type NotificationData struct {
	ID          string              `json:"id"`
	RecipientID string              `json:"recipient_id"`
	Type        string              `json:"type"`
	Title       string              `json:"title"`
	Message     string              `json:"message"`
	Icon        string              `json:"icon"`
	Color       string              `json:"color"`
	Payload     valueobject.JSONMap `json:"payload"`
	Read        bool                `json:"read"`
	CreatedAt   time.Time           `json:"created_at"`
}

func ToData(n entity.Notification) NotificationData {
	payload := n.Payload
	if payload == nil {
		payload = valueobject.JSONMap{}
	}

	return NotificationData{
		ID:          strconv.FormatInt(n.ID, 10),
		RecipientID: strconv.FormatInt(n.RecipientID, 10),
		Type:        n.Type.String(),
		Title:       n.Title,
		Message:     n.Message,
		Icon:        n.Icon,
		Color:       n.Color,
		Payload:     payload,
		Read:        n.Read(),
		CreatedAt:   n.CreatedAt,
	}
}

// Push delivers notifications through the realtime hub.
type Push struct {
	hub *realtime.Hub
	ins instrument.Instrumentation
}

func New(hub *realtime.Hub, ins instrument.Instrumentation) *Push {
	return &Push{hub: hub, ins: ins}
}

// PushNotification reports whether at least one subscriber of the recipient accepted it.
func (p *Push) PushNotification(ctx context.Context, n entity.Notification) bool {
	ctx, span := p.ins.Tracer("notification.outbound.push").Start(ctx, "PushNotification")
	defer span.End()

	delivered := p.hub.Send(ctx, n.RecipientID, realtime.EventNotificationNew, ToData(n))
	span.SetAttributes(attribute.Bool("delivered", delivered))

	return delivered
}

// Subscribe attaches an SSE style stream to the recipient channel of userID.
func (p *Push) Subscribe(ctx context.Context, userID int64, buffer int) (*realtime.Stream, func()) {
	stream := realtime.NewStream(buffer)
	unsubscribe := p.hub.Subscribe(ctx, userID, stream)

	return stream, func() {
		unsubscribe()
		//nolint:errcheck // stream close never fails
		_ = stream.Close()
	}
}
