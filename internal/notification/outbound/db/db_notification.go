package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/levelup/internal/notification/entity"
)

const createNotification = `
INSERT INTO notifications (id, recipient_id, type, title, message, icon, color, payload, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

func (s *DB) CreateNotification(ctx context.Context, n entity.Notification) (err error) {
	ctx, span := s.startSpan(ctx, "CreateNotification")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, createNotification,
		n.ID, n.RecipientID, n.Type.String(), n.Title, n.Message, n.Icon, n.Color, n.Payload, n.CreatedAt)
	return s.mapError(err)
}

const createNotificationsBatch = `
INSERT INTO notifications (id, recipient_id, type, title, message, icon, color, payload, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO NOTHING`

// CreateNotifications inserts ns in one batch round trip.
func (s *DB) CreateNotifications(ctx context.Context, ns []entity.Notification) (err error) {
	ctx, span := s.startSpan(ctx, "CreateNotifications")
	defer func() { s.endSpan(span, err) }()

	if len(ns) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, n := range ns {
		batch.Queue(createNotificationsBatch,
			n.ID, n.RecipientID, n.Type.String(), n.Title, n.Message, n.Icon, n.Color, n.Payload, n.CreatedAt)
	}

	return s.mapError(s.conn.SendBatch(ctx, batch).Close())
}

const listNotifications = `
SELECT id, recipient_id, type, title, message, icon, color, payload, read_at, created_at
FROM notifications
WHERE recipient_id = $1
  AND ($2::boolean IS NULL OR (read_at IS NOT NULL) = $2::boolean)
ORDER BY created_at DESC, id DESC
LIMIT $3 OFFSET $4`

func (s *DB) ListNotifications(ctx context.Context, userID int64, status entity.NotificationStatus, limit, offset int32) (_ []entity.Notification, err error) {
	ctx, span := s.startSpan(ctx, "ListNotifications")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, listNotifications, userID, status.ReadFilter(), limit, offset)
	if err != nil {
		return nil, s.mapError(err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Notification, error) {
		var n entity.Notification
		var typ string
		err := row.Scan(&n.ID, &n.RecipientID, &typ, &n.Title, &n.Message, &n.Icon, &n.Color, &n.Payload, &n.ReadAt, &n.CreatedAt)
		n.Type = entity.Type(typ)
		return n, err
	})
	if err != nil {
		return nil, s.mapError(err)
	}

	return items, nil
}

const countUnreadNotifications = `
SELECT count(*) FROM notifications WHERE recipient_id = $1 AND read_at IS NULL`

func (s *DB) CountUnreadNotifications(ctx context.Context, userID int64) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "CountUnreadNotifications")
	defer func() { s.endSpan(span, err) }()

	var total int64
	if err = s.conn.QueryRow(ctx, countUnreadNotifications, userID).Scan(&total); err != nil {
		return 0, s.mapError(err)
	}

	return total, nil
}

const markNotificationRead = `
UPDATE notifications SET read_at = COALESCE(read_at, now())
WHERE recipient_id = $1 AND id = $2`

func (s *DB) MarkNotificationRead(ctx context.Context, userID, notificationID int64) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "MarkNotificationRead")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, markNotificationRead, userID, notificationID)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() > 0, nil
}

const markNotificationsReadAll = `
UPDATE notifications SET read_at = now()
WHERE recipient_id = $1 AND read_at IS NULL`

func (s *DB) MarkNotificationsReadAll(ctx context.Context, userID int64) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "MarkNotificationsReadAll")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, markNotificationsReadAll, userID)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}
