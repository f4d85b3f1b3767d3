package messaging

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultMemoryBuffer = 256
	maxMemoryAttempts   = 5
)

// Memory is an in-process broker for single-node deployments and tests. Each
// published message reaches one consumer per group; consumers without a group each
// receive every message. Nacked messages are redelivered up to five attempts.
type Memory struct {
	buffer int
	seq    atomic.Uint64

	mu     sync.RWMutex
	topics map[string][]*memorySub
	rr     map[string]int
	closed bool
}

type memorySub struct {
	group string
	ch    chan *memoryMessage
}

// NewMemory constructs an in-process broker. buffer <= 0 selects the default.
func NewMemory(buffer int) *Memory {
	if buffer <= 0 {
		buffer = defaultMemoryBuffer
	}
	return &Memory{buffer: buffer, topics: map[string][]*memorySub{}, rr: map[string]int{}}
}

// Close stops accepting publishes; running consumers exit with their context.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Publish delivers msg to the current subscribers of destination.
func (m *Memory) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrDestinationRequired
	}
	if msg.Delay > 0 {
		return PublishResult{}, ErrUnsupported
	}

	now := time.Now()
	id := strconv.FormatUint(m.seq.Add(1), 10)

	for _, sub := range m.targets(destination) {
		mm := &memoryMessage{
			id:      id,
			topic:   destination,
			body:    append([]byte(nil), msg.Body...),
			key:     append([]byte(nil), msg.Key...),
			headers: append([]Header(nil), msg.Headers...),
			ts:      now,
			sub:     sub,
		}
		select {
		case sub.ch <- mm:
		case <-ctx.Done():
			return PublishResult{}, ctx.Err()
		}
	}

	return PublishResult{Topic: destination, Timestamp: now}, nil
}

func (m *Memory) targets(topic string) []*memorySub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}

	var out []*memorySub
	groups := map[string][]*memorySub{}
	var order []string
	for _, sub := range m.topics[topic] {
		if sub.group == "" {
			out = append(out, sub)
			continue
		}
		if _, ok := groups[sub.group]; !ok {
			order = append(order, sub.group)
		}
		groups[sub.group] = append(groups[sub.group], sub)
	}
	for _, g := range order {
		key := topic + "\x00" + g
		members := groups[g]
		out = append(out, members[m.rr[key]%len(members)])
		m.rr[key]++
	}
	return out
}

// Consume registers a subscriber on source and runs handlers until ctx is done.
func (m *Memory) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := validateConsume(ctx, source, handler); err != nil {
		return err
	}
	co := newConsumeOptions(opts...)

	sub := &memorySub{group: co.group, ch: make(chan *memoryMessage, m.buffer)}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.topics[source] = append(m.topics[source], sub)
	m.mu.Unlock()

	defer m.remove(source, sub)

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case mm := <-sub.ch:
					//nolint:errcheck // memory ack never fails
					_ = dispatch(ctx, DriverMemory, handler, mm, co.autoAck)
				case <-ctx.Done():
					return
				}
			}
		})
	}

	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}

func (m *Memory) remove(topic string, sub *memorySub) {
	m.mu.Lock()
	defer m.mu.Unlock()

	subs := m.topics[topic]
	for i := range subs {
		if subs[i] == sub {
			m.topics[topic] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

type memoryMessage struct {
	responder

	id      string
	topic   string
	body    []byte
	key     []byte
	headers []Header
	ts      time.Time
	attempt int
	sub     *memorySub
}

func (mm *memoryMessage) Body() []byte { return mm.body }

func (mm *memoryMessage) Key() []byte { return mm.key }

func (mm *memoryMessage) Headers() []Header { return mm.headers }

func (mm *memoryMessage) ID() string { return mm.id }

func (mm *memoryMessage) Topic() string { return mm.topic }

func (mm *memoryMessage) Timestamp() time.Time { return mm.ts }

func (mm *memoryMessage) Ack(context.Context) error {
	mm.respond()
	return nil
}

func (mm *memoryMessage) Nack(context.Context) error {
	if !mm.respond() || mm.attempt+1 >= maxMemoryAttempts {
		return nil
	}

	retry := &memoryMessage{
		id: mm.id, topic: mm.topic, body: mm.body, key: mm.key,
		headers: mm.headers, ts: mm.ts, attempt: mm.attempt + 1, sub: mm.sub,
	}
	select {
	case mm.sub.ch <- retry:
	default:
	}
	return nil
}
