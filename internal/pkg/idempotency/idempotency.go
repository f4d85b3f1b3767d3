// Package idempotency makes queue consumers safe under at-least-once delivery.
//
// A key is claimed with a single SET NX GET, so the claim and the lookup of the
// previous owner's state are one round trip. A handler that fails releases its
// claim and the broker's redelivery may run it again; a handler that succeeds
// leaves a completed marker that suppresses duplicates until it expires.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrAlreadyInProgress = errors.New("event is being handled by another consumer")
	ErrAlreadyCompleted  = errors.New("event already handled")
	ErrInvalidState      = errors.New("unknown idempotency marker")
)

// State is the marker stored under a claimed key.
type State string

const (
	StateNone       State = ""
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

// Idempotency runs fn at most once per key.
type Idempotency interface {
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

const (
	defaultPrefix  = "levelup:idem:"
	defaultLockTTL = time.Minute
	defaultDoneTTL = 24 * time.Hour
)

type Option func(*options)

type options struct {
	lockTTL time.Duration
	doneTTL time.Duration
}

// WithLockDuration bounds how long a crashed consumer blocks redelivery.
func WithLockDuration(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.lockTTL = d
		}
	}
}

// WithStateTTL sets how long a completed key suppresses duplicates.
func WithStateTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.doneTTL = d
		}
	}
}

// Tracker keeps markers in redis.
type Tracker struct {
	client redis.UniversalClient
	prefix string
}

func New(client redis.UniversalClient) *Tracker {
	return &Tracker{client: client, prefix: defaultPrefix}
}

// claim returns StateNone when the caller now owns key, otherwise the marker it found.
func (t *Tracker) claim(ctx context.Context, key string, ttl time.Duration) (State, error) {
	prev, err := t.client.SetArgs(ctx, t.prefix+key, string(StateInProgress), redis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
		Get:  true,
	}).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return StateNone, nil
	case err != nil:
		return StateNone, fmt.Errorf("claim %s: %w", key, err)
	}

	switch s := State(prev); s {
	case StateInProgress, StateCompleted:
		return s, nil
	default:
		return StateNone, fmt.Errorf("%w %q for %s", ErrInvalidState, prev, key)
	}
}

func (t *Tracker) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	o := options{lockTTL: defaultLockTTL, doneTTL: defaultDoneTTL}
	for _, opt := range opts {
		opt(&o)
	}

	state, err := t.claim(ctx, key, o.lockTTL)
	if err != nil {
		return err
	}
	switch state {
	case StateInProgress:
		return ErrAlreadyInProgress
	case StateCompleted:
		return ErrAlreadyCompleted
	}

	if err := fn(ctx); err != nil {
		return errors.Join(err, t.client.Del(ctx, t.prefix+key).Err())
	}

	return t.client.Set(ctx, t.prefix+key, string(StateCompleted), o.doneTTL).Err()
}
