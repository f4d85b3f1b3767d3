package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/shandysiswandi/levelup/internal/pkg/instrument"
	"github.com/shandysiswandi/levelup/internal/pkg/stacktrace"
)

// HeaderCorrelationID carries the correlation id across publish and consume.
const HeaderCorrelationID = "cID"

var (
	// ErrUnsupported is returned when a feature is not supported by the selected broker.
	ErrUnsupported = errors.New("messaging: unsupported operation")
	// ErrDestinationRequired is returned when publishing or consuming without a topic.
	ErrDestinationRequired = errors.New("messaging: destination is required")
	// ErrHandlerRequired is returned when Consume is called with a nil handler.
	ErrHandlerRequired = errors.New("messaging: handler is required")
	// ErrClosed is returned after Close.
	ErrClosed = io.ErrClosedPipe
)

// Messaging is a broker-agnostic client that can publish and consume messages.
type Messaging interface {
	io.Closer

	Publisher
	Consumer
}

// Publisher publishes messages to a destination (topic/subject).
type Publisher interface {
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

// Consumer blocks consuming messages from source until ctx is done.
type Consumer interface {
	Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes a received message. With auto-ack a nil error acks and a non-nil
// error nacks (requeue where the broker supports it).
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage represents a broker-agnostic message to be published.
type OutgoingMessage struct {
	Body []byte
	// Key is used by Kafka for partitioning; the user id keeps one learner's events ordered.
	Key     []byte
	Headers []Header
	// Delay is used for deferred delivery (NSQ only).
	Delay time.Duration
}

// Header is a key/value pair used for message headers.
type Header struct {
	Key   string
	Value []byte
}

// PublishResult carries optional broker-specific publish metadata.
type PublishResult struct {
	Topic     string
	Timestamp time.Time
}

// Message is a broker-agnostic received message.
type Message interface {
	Body() []byte
	Key() []byte
	Headers() []Header
	// ID is a broker scoped identity usable as an idempotency key.
	ID() string
	Topic() string
	Timestamp() time.Time
	Ack(ctx context.Context) error
}

// Nackable can request a message redelivery.
type Nackable interface {
	Nack(ctx context.Context) error
}

// PublishJSON marshals v and publishes it with the correlation id found in ctx.
func PublishJSON(ctx context.Context, pub Publisher, destination string, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("messaging: marshal %s: %w", destination, err)
	}

	msg := OutgoingMessage{Body: body, Key: []byte(key)}
	if cID := instrument.GetCorrelationID(ctx); cID != "" {
		msg.Headers = append(msg.Headers, Header{Key: HeaderCorrelationID, Value: []byte(cID)})
	}

	_, err = pub.Publish(ctx, destination, msg)
	return err
}

// HeaderValue returns the first value of key, or "".
func HeaderValue(headers []Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// responder makes Ack/Nack idempotent for a driver message.
type responder struct {
	done atomic.Bool
}

func (r *responder) respond() bool { return !r.done.Swap(true) }

func (r *responder) responded() bool { return r.done.Load() }

type driverMessage interface {
	Message
	Nackable
	responded() bool
}

// dispatch runs the handler with panic recovery and applies auto-ack. Handler
// errors are logged; only broker ack/nack failures are returned.
func dispatch(ctx context.Context, driver string, handler Handler, msg driverMessage, autoAck bool) error {
	herr := callHandlerWithRecover(ctx, driver, func() error { return handler(ctx, msg) })
	if herr != nil {
		slog.WarnContext(ctx, "messaging handler returned error", "driver", driver, "topic", msg.Topic(), "error", herr)
	}

	if !autoAck || msg.responded() {
		return nil
	}
	if herr == nil {
		return msg.Ack(ctx)
	}
	return msg.Nack(ctx)
}

func callHandlerWithRecover(ctx context.Context, driver string, fn func() error) (err error) {
	defer func() {
		rvr := recover()
		if rvr == nil {
			return
		}
		stack := debug.Stack()
		if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
			slog.ErrorContext(ctx, "panic in messaging handler", "driver", driver, "panic", rvr, "stack", paths)
		} else {
			slog.ErrorContext(ctx, "panic in messaging handler", "driver", driver, "panic", rvr, "stack", string(stack))
		}
		err = fmt.Errorf("messaging: panic in %s handler: %v", driver, rvr)
	}()

	return fn()
}
