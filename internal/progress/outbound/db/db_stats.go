package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/levelup/internal/pkg/valueobject"
	"github.com/shandysiswandi/levelup/internal/progress/entity"
)

const getStats = `
SELECT user_id, username, points, level, current_streak, longest_streak, is_premium, settings, updated_at
FROM user_stats
WHERE user_id = $1`

func (s *DB) GetStats(ctx context.Context, userID int64) (_ *entity.Stats, err error) {
	ctx, span := s.startSpan(ctx, "GetStats")
	defer func() { s.endSpan(span, err) }()

	var st entity.Stats
	err = s.conn.QueryRow(ctx, getStats, userID).Scan(
		&st.UserID, &st.Username, &st.Points, &st.Level,
		&st.CurrentStreak, &st.LongestStreak, &st.IsPremium, &st.Settings, &st.UpdatedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &st, nil
}

// upsertProgress skips rows older than the stored one so a redelivered or reordered event
// cannot roll totals back.
const upsertProgress = `
INSERT INTO user_stats (user_id, username, points, level, current_streak, longest_streak, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (user_id) DO UPDATE SET
  username       = COALESCE(NULLIF(EXCLUDED.username, ''), user_stats.username),
  points         = EXCLUDED.points,
  level          = EXCLUDED.level,
  current_streak = EXCLUDED.current_streak,
  longest_streak = GREATEST(EXCLUDED.longest_streak, user_stats.longest_streak),
  updated_at     = EXCLUDED.updated_at
WHERE user_stats.updated_at <= EXCLUDED.updated_at`

// UpsertProgress stores the totals of st and reports whether they were applied.
func (s *DB) UpsertProgress(ctx context.Context, st entity.Stats) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "UpsertProgress")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, upsertProgress,
		st.UserID, st.Username, st.Points, st.Level, st.CurrentStreak, st.LongestStreak, st.UpdatedAt)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() > 0, nil
}

const mergeSettings = `
INSERT INTO user_stats (user_id, settings, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO UPDATE SET
  settings   = user_stats.settings || EXCLUDED.settings,
  updated_at = GREATEST(user_stats.updated_at, EXCLUDED.updated_at)
RETURNING settings`

// MergeSettings shallow merges settings into the stored map and returns the result.
func (s *DB) MergeSettings(ctx context.Context, userID int64, settings valueobject.JSONMap, at time.Time) (_ valueobject.JSONMap, err error) {
	ctx, span := s.startSpan(ctx, "MergeSettings")
	defer func() { s.endSpan(span, err) }()

	var merged valueobject.JSONMap
	if err = s.conn.QueryRow(ctx, mergeSettings, userID, settings, at).Scan(&merged); err != nil {
		return nil, s.mapError(err)
	}

	return merged, nil
}

const updatePremium = `
INSERT INTO user_stats (user_id, is_premium, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO UPDATE SET
  is_premium = EXCLUDED.is_premium,
  updated_at = GREATEST(user_stats.updated_at, EXCLUDED.updated_at)`

func (s *DB) UpdatePremium(ctx context.Context, userID int64, isPremium bool, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "UpdatePremium")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, updatePremium, userID, isPremium, at)
	return s.mapError(err)
}

const rankByPoints = `
SELECT count(*) + 1 FROM user_stats WHERE points > $1`

// RankByPoints is the dense database rank used when the leaderboard store is unavailable.
func (s *DB) RankByPoints(ctx context.Context, points int64) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "RankByPoints")
	defer func() { s.endSpan(span, err) }()

	var rank int64
	if err = s.conn.QueryRow(ctx, rankByPoints, points).Scan(&rank); err != nil {
		return 0, s.mapError(err)
	}

	return rank, nil
}

const listTopStats = `
SELECT user_id, username, points
FROM user_stats
WHERE points > 0
ORDER BY points DESC, user_id ASC
LIMIT $1`

func (s *DB) ListTopStats(ctx context.Context, limit int32) (_ []entity.LeaderboardEntry, err error) {
	ctx, span := s.startSpan(ctx, "ListTopStats")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, listTopStats, limit)
	if err != nil {
		return nil, s.mapError(err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.LeaderboardEntry, error) {
		var e entity.LeaderboardEntry
		err := row.Scan(&e.UserID, &e.Username, &e.Points)
		return e, err
	})
	if err != nil {
		return nil, s.mapError(err)
	}

	for i := range entries {
		entries[i].Rank = int64(i + 1)
	}

	return entries, nil
}
