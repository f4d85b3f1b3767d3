package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shandysiswandi/levelup/internal/pkg/clock"
	"github.com/shandysiswandi/levelup/internal/pkg/uid"
)

// Subscriber receives envelopes for one user.
type Subscriber interface {
	// Deliver queues env without blocking and reports whether it was accepted.
	Deliver(env Envelope) bool
	// Close releases the subscriber; Deliver returns false afterwards.
	Close() error
}

// RequestHandler answers a client request received on a subscriber of userID.
type RequestHandler func(ctx context.Context, userID int64, req Envelope) error

// Hub routes envelopes to the subscribers of a user.
type Hub struct {
	ids     uid.StringID
	clock   clock.Clocker
	metrics *Metrics

	mu   sync.RWMutex
	subs map[int64]map[Subscriber]struct{}

	handlersMu sync.RWMutex
	handlers   map[EventKind]RequestHandler
}

// NewHub creates an empty hub. metrics may be nil.
func NewHub(ids uid.StringID, clk clock.Clocker, metrics *Metrics) *Hub {
	return &Hub{
		ids:      ids,
		clock:    clk,
		metrics:  metrics,
		subs:     make(map[int64]map[Subscriber]struct{}),
		handlers: make(map[EventKind]RequestHandler),
	}
}

// Subscribe adds s to the channel of userID. The returned func removes it and is safe to
// call more than once.
func (h *Hub) Subscribe(ctx context.Context, userID int64, s Subscriber) func() {
	h.mu.Lock()
	set, ok := h.subs[userID]
	if !ok {
		set = make(map[Subscriber]struct{})
		h.subs[userID] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()

	h.metrics.connection(ctx, 1)

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.subs[userID]; ok {
				delete(set, s)
				if len(set) == 0 {
					delete(h.subs, userID)
				}
			}
			h.mu.Unlock()

			h.metrics.connection(ctx, -1)
		})
	}
}

// Connected reports whether userID has at least one subscriber.
func (h *Hub) Connected(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID]) > 0
}

// Count returns the number of live subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, set := range h.subs {
		n += len(set)
	}
	return n
}

// Envelope builds a new envelope addressed to userID.
func (h *Hub) Envelope(userID int64, kind EventKind, data any) (Envelope, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return Envelope{}, fmt.Errorf("realtime: marshal %s: %w", kind, err)
		}
		raw = b
	}

	return Envelope{
		ID:      h.ids.Generate(),
		Event:   kind,
		Channel: RecipientChannel(userID),
		Data:    raw,
		SentAt:  h.clock.Now().UTC(),
	}, nil
}

// Send pushes data as kind to every subscriber of userID and reports whether at least one
// accepted it. A user without subscribers is a miss, not an error.
func (h *Hub) Send(ctx context.Context, userID int64, kind EventKind, data any) bool {
	env, err := h.Envelope(userID, kind, data)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build realtime envelope", "user_id", userID, "event", kind, "error", err)
		return false
	}

	return h.Publish(ctx, userID, env)
}

// Publish delivers a prepared envelope to every subscriber of userID.
func (h *Hub) Publish(ctx context.Context, userID int64, env Envelope) bool {
	h.mu.RLock()
	targets := make([]Subscriber, 0, len(h.subs[userID]))
	for s := range h.subs[userID] {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		h.metrics.delivery(ctx, env.Event, resultMiss)
		return false
	}

	delivered := false
	for _, s := range targets {
		if s.Deliver(env) {
			delivered = true
			h.metrics.delivery(ctx, env.Event, resultDelivered)
			continue
		}
		h.metrics.delivery(ctx, env.Event, resultDropped)
		slog.DebugContext(ctx, "realtime envelope dropped", "user_id", userID, "event", env.Event)
	}

	return delivered
}

// Broadcast sends data as kind to every connected user, each envelope addressed to the
// user's own channel. It returns how many users accepted it.
func (h *Hub) Broadcast(ctx context.Context, kind EventKind, data any) int {
	h.mu.RLock()
	users := make([]int64, 0, len(h.subs))
	for userID := range h.subs {
		users = append(users, userID)
	}
	h.mu.RUnlock()

	if len(users) == 0 {
		return 0
	}

	raw, err := json.Marshal(data)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build realtime broadcast", "event", kind, "error", err)
		return 0
	}

	delivered := 0
	for _, userID := range users {
		env := Envelope{
			ID:      h.ids.Generate(),
			Event:   kind,
			Channel: RecipientChannel(userID),
			Data:    raw,
			SentAt:  h.clock.Now().UTC(),
		}
		if h.Publish(ctx, userID, env) {
			delivered++
		}
	}
	return delivered
}

// HandleRequest registers fn for a client request kind. It replaces any earlier handler.
func (h *Hub) HandleRequest(kind EventKind, fn RequestHandler) {
	h.handlersMu.Lock()
	defer h.handlersMu.Unlock()
	h.handlers[kind] = fn
}

func (h *Hub) dispatchRequest(ctx context.Context, userID int64, req Envelope) {
	if !req.Event.IsRequest() {
		slog.DebugContext(ctx, "ignoring non request frame", "user_id", userID, "event", req.Event)
		return
	}

	h.handlersMu.RLock()
	fn, ok := h.handlers[req.Event]
	h.handlersMu.RUnlock()
	if !ok {
		slog.DebugContext(ctx, "no handler for realtime request", "event", req.Event)
		return
	}

	if err := fn(ctx, userID, req); err != nil {
		slog.WarnContext(ctx, "realtime request failed", "user_id", userID, "event", req.Event, "error", err)
	}
}

// Close closes every subscriber. Subscribers remove themselves as their loops exit.
func (h *Hub) Close() error {
	h.mu.RLock()
	var all []Subscriber
	for _, set := range h.subs {
		for s := range set {
			all = append(all, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range all {
		//nolint:errcheck // closing is best effort on shutdown
		_ = s.Close()
	}
	return nil
}

// Stream is a Subscriber backed by a buffered channel. It serves pull style transports
// such as SSE.
type Stream struct {
	ch   chan Envelope
	done chan struct{}
	once sync.Once
}

// NewStream creates a stream with the given buffer size.
func NewStream(buffer int) *Stream {
	if buffer <= 0 {
		buffer = 1
	}
	return &Stream{ch: make(chan Envelope, buffer), done: make(chan struct{})}
}

func (s *Stream) Deliver(env Envelope) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.ch <- env:
		return true
	default:
		return false
	}
}

// C returns the receive side of the stream.
func (s *Stream) C() <-chan Envelope { return s.ch }

// Done is closed once the stream is closed.
func (s *Stream) Done() <-chan struct{} { return s.done }

func (s *Stream) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}
