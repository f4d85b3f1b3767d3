package liveclient

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shandysiswandi/levelup/internal/pkg/realtime"
	"go.uber.org/atomic"
)

const notificationBuffer = 32

// ToastKind selects how a toast is rendered.
type ToastKind string

const (
	ToastLevelUp     ToastKind = "level_up"
	ToastAchievement ToastKind = "achievement"
	ToastStreak      ToastKind = "streak"
	ToastChallenge   ToastKind = "challenge"
	ToastInfo        ToastKind = "info"
)

type Toast struct {
	Kind    ToastKind
	Title   string
	Message string
	Icon    string
	Color   string
}

// Toaster shows in-app toasts. It must not block.
type Toaster interface {
	Toast(ctx context.Context, t Toast)
}

// Desktop raises OS level notifications when the user allowed them.
type Desktop interface {
	Permitted() bool
	Notify(ctx context.Context, title, message, icon string) error
}

// LifecycleData is the payload of the locally raised disconnect and connect_error events.
type LifecycleData struct {
	Error string `json:"error,omitempty"`
}

// Router applies inbound envelopes to a Store. Dispatch is called from the single read
// goroutine of a connection, so handlers never run concurrently for one connection.
type Router struct {
	store   *Store
	toaster Toaster
	desktop Desktop

	live atomic.Bool
	sink atomic.Pointer[notificationSink]
}

// notificationSink is the notification queue of one session.
type notificationSink struct {
	ch chan Notification
}

// NewRouter builds a router. desktop may be nil.
func NewRouter(store *Store, toaster Toaster, desktop Desktop) *Router {
	r := &Router{store: store, toaster: toaster, desktop: desktop}
	r.reset()
	return r
}

// Notifications receives every notification:new payload of the current session.
// Slow readers miss signals.
func (r *Router) Notifications() <-chan Notification {
	return r.sink.Load().ch
}

// reset starts a new session queue. Anything still buffered for the previous session
// stays on the old channel and is never seen by the new one.
func (r *Router) reset() <-chan Notification {
	s := &notificationSink{ch: make(chan Notification, notificationBuffer)}
	r.sink.Store(s)
	return s.ch
}

func (r *Router) open() { r.live.Store(true) }

func (r *Router) close() { r.live.Store(false) }

// Dispatch handles one envelope. Push events are dropped while the router is closed.
func (r *Router) Dispatch(ctx context.Context, env realtime.Envelope) {
	if env.Event.IsPush() && !r.live.Load() {
		slog.DebugContext(ctx, "dropping push event while not connected", "event", env.Event, "id", env.ID)
		return
	}

	var err error
	switch env.Event {
	case realtime.EventStatsUpdate:
		err = r.onStats(ctx, env)
	case realtime.EventLeaderboardUpdate:
		err = r.onLeaderboard(env)
	case realtime.EventProgressUpdate:
		err = r.onProgress(env)
	case realtime.EventNotificationNew:
		err = r.onNotification(ctx, env)
	case realtime.EventSettingsUpdate:
		err = r.onSettings(env)
	case realtime.EventPremiumUpdate:
		err = r.onPremium(env)
	case realtime.EventConnect:
		r.store.SetOnline(true)
	case realtime.EventDisconnect:
		r.store.SetOnline(false)
	case realtime.EventConnectError:
		var data LifecycleData
		err = env.Decode(&data)
		slog.WarnContext(ctx, "realtime connection error", "error", data.Error)
		r.store.SetOnline(false)
	case realtime.EventStatsRefresh, realtime.EventLeaderboardRefresh:
		slog.DebugContext(ctx, "ignoring request kind sent by server", "event", env.Event)
	default:
		slog.WarnContext(ctx, "ignoring unknown realtime event", "event", env.Event, "id", env.ID)
	}

	if err != nil {
		slog.WarnContext(ctx, "failed to apply realtime event", "event", env.Event, "id", env.ID, "error", err)
	}
}

func (r *Router) onStats(ctx context.Context, env realtime.Envelope) error {
	var p StatsPayload
	if err := env.Decode(&p); err != nil {
		return err
	}

	if p.Level != nil {
		if prev, raised := r.store.AdvanceLevel(*p.Level); raised && prev > 0 {
			r.toaster.Toast(ctx, Toast{
				Kind:    ToastLevelUp,
				Title:   "Level up!",
				Message: fmt.Sprintf("You reached level %d", *p.Level),
				Icon:    "zap",
				Color:   "primary",
			})
		}
	}

	r.store.MergeStats(p)
	return nil
}

func (r *Router) onLeaderboard(env realtime.Envelope) error {
	var p LeaderboardPayload
	if err := env.Decode(&p); err != nil {
		return err
	}

	r.store.ReplaceLeaderboard(p.Entries)
	return nil
}

func (r *Router) onProgress(env realtime.Envelope) error {
	var p ProgressPayload
	if err := env.Decode(&p); err != nil {
		return err
	}
	if p.Kind == "" || p.Slug == "" {
		return nil
	}

	r.store.MergeProgress(p)
	return nil
}

func (r *Router) onSettings(env realtime.Envelope) error {
	var settings map[string]any
	if err := env.Decode(&settings); err != nil {
		return err
	}

	r.store.MergeSettings(settings)
	return nil
}

func (r *Router) onPremium(env realtime.Envelope) error {
	var p PremiumPayload
	if err := env.Decode(&p); err != nil {
		return err
	}

	r.store.MergePremium(p)
	return nil
}

func (r *Router) onNotification(ctx context.Context, env realtime.Envelope) error {
	var n Notification
	if err := env.Decode(&n); err != nil {
		return err
	}

	r.toaster.Toast(ctx, toastFor(n))

	if r.desktop != nil && r.desktop.Permitted() {
		if err := r.desktop.Notify(ctx, n.Title, n.Message, n.Icon); err != nil {
			slog.DebugContext(ctx, "desktop notification failed", "id", n.ID, "error", err)
		}
	}

	select {
	case r.sink.Load().ch <- n:
	default:
		slog.DebugContext(ctx, "notification signal dropped", "id", n.ID)
	}
	return nil
}

func toastFor(n Notification) Toast {
	var kind ToastKind
	switch n.Type {
	case "achievement":
		kind = ToastAchievement
	case "level_up":
		kind = ToastLevelUp
	case "streak":
		kind = ToastStreak
	case "challenge":
		kind = ToastChallenge
	default:
		kind = ToastInfo
	}

	return Toast{Kind: kind, Title: n.Title, Message: n.Message, Icon: n.Icon, Color: n.Color}
}
