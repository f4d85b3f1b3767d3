// Package goroutine runs background jobs (consumers, hub pumps) under a shared limit and
// lets shutdown wait for all of them.
package goroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/levelup/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine is multiplied by NumCPU when NewManager receives a non-positive limit.
const DefaultMaxGoroutine int = 100

var (
	// ErrClosed is returned by Go after Wait has been called.
	ErrClosed = errors.New("goroutine: manager is closed")
	// ErrLimit is returned by Go when every slot is taken.
	ErrLimit = errors.New("goroutine: maximum goroutine limit reached")
)

// Manager runs functions in goroutines with a configurable concurrency limit.
//
// It collects errors returned by jobs and can be waited on using Wait.
type Manager struct {
	mu      sync.Mutex
	errs    []error
	wg      sync.WaitGroup
	sema    chan struct{}
	stateMu sync.RWMutex
	closed  bool
}

// NewManager creates a new Manager with the provided maximum concurrency.
func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}

	return &Manager{sema: make(chan struct{}, maxGoroutine)}
}

// Go schedules job f under name. It does not block: when the manager is closed or full the
// job is not started and the reason is returned.
func (g *Manager) Go(ctx context.Context, name string, f func(ctx context.Context) error) error {
	g.stateMu.RLock()
	defer g.stateMu.RUnlock()

	if g.closed {
		slog.WarnContext(ctx, "goroutine manager is closed, skipping job", "job", name)
		return ErrClosed
	}

	select {
	case g.sema <- struct{}{}:
	default:
		slog.WarnContext(ctx, "maximum goroutine limit reached, skipping job", "job", name)
		return ErrLimit
	}

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer func() { <-g.sema }()
		defer g.recover(ctx, name)

		if err := ctx.Err(); err != nil {
			slog.WarnContext(ctx, "goroutine canceled before start", "job", name, "because", err)
			return
		}

		if err := f(ctx); err != nil && !errors.Is(err, context.Canceled) {
			g.mu.Lock()
			g.errs = append(g.errs, fmt.Errorf("%s: %w", name, err))
			g.mu.Unlock()
		}
	}()

	return nil
}

func (g *Manager) recover(ctx context.Context, name string) {
	rvr := recover()
	if rvr == nil {
		return
	}

	stack := debug.Stack()
	if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
		slog.ErrorContext(ctx, "panic occurred in goroutine", "job", name, "because", rvr, "stack", paths)
		return
	}
	slog.ErrorContext(ctx, "panic occurred in goroutine", "job", name, "because", rvr, "stack", string(stack))
}

// Wait closes the manager, blocks until all scheduled jobs finish and returns their errors.
func (g *Manager) Wait() error {
	g.stateMu.Lock()
	g.closed = true
	g.stateMu.Unlock()

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}
