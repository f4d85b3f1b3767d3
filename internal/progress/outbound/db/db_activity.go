package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/levelup/internal/progress/entity"
)

const createActivity = `
INSERT INTO user_activity (id, user_id, activity, kind, slug, points, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO NOTHING`

func (s *DB) CreateActivity(ctx context.Context, a entity.Activity) (err error) {
	ctx, span := s.startSpan(ctx, "CreateActivity")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, createActivity, a.ID, a.UserID, a.Activity, a.Kind, a.Slug, a.Points, a.OccurredAt)
	return s.mapError(err)
}

const listRecentActivity = `
SELECT id, user_id, activity, kind, slug, points, occurred_at
FROM user_activity
WHERE user_id = $1
ORDER BY occurred_at DESC, id DESC
LIMIT $2`

func (s *DB) ListRecentActivity(ctx context.Context, userID int64, limit int32) (_ []entity.Activity, err error) {
	ctx, span := s.startSpan(ctx, "ListRecentActivity")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, listRecentActivity, userID, limit)
	if err != nil {
		return nil, s.mapError(err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Activity, error) {
		var a entity.Activity
		err := row.Scan(&a.ID, &a.UserID, &a.Activity, &a.Kind, &a.Slug, &a.Points, &a.OccurredAt)
		return a, err
	})
	if err != nil {
		return nil, s.mapError(err)
	}

	return items, nil
}

const getWeeklyStats = `
SELECT COALESCE(sum(points), 0), count(*), count(DISTINCT date_trunc('day', occurred_at))
FROM user_activity
WHERE user_id = $1 AND occurred_at >= $2`

func (s *DB) GetWeeklyStats(ctx context.Context, userID int64, since time.Time) (_ entity.WeeklyStats, err error) {
	ctx, span := s.startSpan(ctx, "GetWeeklyStats")
	defer func() { s.endSpan(span, err) }()

	var w entity.WeeklyStats
	if err = s.conn.QueryRow(ctx, getWeeklyStats, userID, since).Scan(&w.Points, &w.Activities, &w.ActiveDays); err != nil {
		return entity.WeeklyStats{}, s.mapError(err)
	}

	return w, nil
}
