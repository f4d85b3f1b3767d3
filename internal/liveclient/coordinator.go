package liveclient

import (
	"context"
	"log/slog"
	"time"

	"go.uber.org/atomic"
)

const (
	defaultFallbackInterval = 5 * time.Minute
	defaultLeaderboardLimit = 10
)

// StatsReader is the pull side of the server.
type StatsReader interface {
	GetStats(ctx context.Context, token string) (StatsPayload, error)
	GetLeaderboard(ctx context.Context, token string, limit int32) ([]LeaderboardEntry, error)
}

// Coordinator pulls authoritative stats into a Store. Each kind of read has at most one
// request in flight; calls made meanwhile are dropped.
type Coordinator struct {
	api      StatsReader
	cred     CredentialSource
	store    *Store
	interval time.Duration
	limit    int32

	statsBusy atomic.Bool
	boardBusy atomic.Bool
}

// NewCoordinator builds a coordinator. interval and limit fall back to five minutes and ten.
func NewCoordinator(api StatsReader, cred CredentialSource, store *Store, interval time.Duration, limit int32) *Coordinator {
	if interval <= 0 {
		interval = defaultFallbackInterval
	}
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}

	return &Coordinator{api: api, cred: cred, store: store, interval: interval, limit: limit}
}

// Refresh reads the stats and merges them. It reports false without doing anything when
// another refresh is running or there is no credential.
func (c *Coordinator) Refresh(ctx context.Context) bool {
	if !c.statsBusy.CompareAndSwap(false, true) {
		return false
	}
	defer c.statsBusy.Store(false)

	token := c.cred.Token()
	if token == "" {
		return false
	}

	st, err := c.api.GetStats(ctx, token)
	if err != nil {
		slog.WarnContext(ctx, "failed to refresh stats", "error", err)
		return true
	}

	c.store.MergeStats(st)
	return true
}

// RefreshLeaderboard reads the top limit entries and replaces the stored leaderboard.
// limit <= 0 uses the configured default.
func (c *Coordinator) RefreshLeaderboard(ctx context.Context, limit int32) bool {
	if !c.boardBusy.CompareAndSwap(false, true) {
		return false
	}
	defer c.boardBusy.Store(false)

	token := c.cred.Token()
	if token == "" {
		return false
	}

	if limit <= 0 {
		limit = c.limit
	}

	entries, err := c.api.GetLeaderboard(ctx, token, limit)
	if err != nil {
		slog.WarnContext(ctx, "failed to refresh leaderboard", "limit", limit, "error", err)
		return true
	}

	c.store.ReplaceLeaderboard(entries)
	return true
}

// Resync runs both reads concurrently and waits for them.
func (c *Coordinator) Resync(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.RefreshLeaderboard(ctx, 0)
	}()

	c.Refresh(ctx)
	<-done
}

// Run resyncs every interval until ctx is done, whatever the socket is doing.
func (c *Coordinator) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Resync(ctx)
		}
	}
}
