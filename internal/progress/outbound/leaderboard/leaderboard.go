// Package leaderboard keeps the points ranking in a redis sorted set.
package leaderboard

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/levelup/internal/pkg/instrument"
	"github.com/shandysiswandi/levelup/internal/progress/entity"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	keyScores = "leaderboard:points"
	keyNames  = "leaderboard:names"
)

type Leaderboard struct {
	client redis.UniversalClient
	ins    instrument.Instrumentation
}

func New(client redis.UniversalClient, ins instrument.Instrumentation) *Leaderboard {
	return &Leaderboard{client: client, ins: ins}
}

func (l *Leaderboard) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return l.ins.Tracer("progress.outbound.leaderboard").Start(ctx, name)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// SetScore stores the total points of userID. An empty username keeps the stored one.
func (l *Leaderboard) SetScore(ctx context.Context, userID int64, username string, points int64) (err error) {
	ctx, span := l.startSpan(ctx, "SetScore")
	defer func() { endSpan(span, err) }()

	member := strconv.FormatInt(userID, 10)
	_, err = l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, keyScores, redis.Z{Score: float64(points), Member: member})
		if username != "" {
			pipe.HSet(ctx, keyNames, member, username)
		}
		return nil
	})
	return err
}

// Rank returns the 1 based position of userID, or 0 when it has no score.
func (l *Leaderboard) Rank(ctx context.Context, userID int64) (_ int64, err error) {
	ctx, span := l.startSpan(ctx, "Rank")
	defer func() { endSpan(span, err) }()

	rank, err := l.client.ZRevRank(ctx, keyScores, strconv.FormatInt(userID, 10)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return rank + 1, nil
}

// Top returns the first limit entries, highest score first.
func (l *Leaderboard) Top(ctx context.Context, limit int32) (_ []entity.LeaderboardEntry, err error) {
	ctx, span := l.startSpan(ctx, "Top")
	defer func() { endSpan(span, err) }()

	if limit <= 0 {
		return []entity.LeaderboardEntry{}, nil
	}

	scores, err := l.client.ZRevRangeWithScores(ctx, keyScores, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, err
	}
	if len(scores) == 0 {
		return []entity.LeaderboardEntry{}, nil
	}

	members := make([]string, 0, len(scores))
	for _, z := range scores {
		member, _ := z.Member.(string)
		members = append(members, member)
	}

	names, err := l.client.HMGet(ctx, keyNames, members...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]entity.LeaderboardEntry, 0, len(scores))
	for i, z := range scores {
		userID, perr := strconv.ParseInt(members[i], 10, 64)
		if perr != nil {
			continue
		}
		name, _ := names[i].(string)
		entries = append(entries, entity.LeaderboardEntry{
			Rank:     int64(i + 1),
			UserID:   userID,
			Username: name,
			Points:   int64(z.Score),
		})
	}

	return entries, nil
}
