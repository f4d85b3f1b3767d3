package entity

import (
	"time"

	"github.com/shandysiswandi/levelup/internal/pkg/valueobject"
)

// Notification is created once and never deleted; ReadAt is the only mutable field.
type Notification struct {
	ID          int64
	RecipientID int64
	Type        Type
	Title       string
	Message     string
	Icon        string
	Color       string
	Payload     valueobject.JSONMap
	ReadAt      *time.Time
	CreatedAt   time.Time
}

func (n Notification) Read() bool {
	return n.ReadAt != nil
}
