package mqtt

import (
	"log"
	"sync"

	"github.com/sweeney/sump-sentry/internal/events"
)

// rawPublisher is the transport Buffered sits on: a topic-level publish
// plus connection state. RealPublisher satisfies it; tests supply their
// own.
type rawPublisher interface {
	publishRaw(topic string, qos byte, retained bool, payload []byte) error
	IsConnected() bool
	Close() error
}

// queued is one serialized message waiting out a broker outage.
type queued struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// Buffered wraps a publisher with a fixed-capacity backlog: while the
// broker is unreachable, messages queue instead of failing, and they
// replay in order once publishing succeeds again. When the backlog is
// full the oldest message is dropped; the most recent state is the one
// worth keeping.
type Buffered struct {
	mu       sync.Mutex
	inner    rawPublisher
	backlog  []queued
	capacity int
	head     int // next write position
	count    int
	overflow bool // a drop happened since the last replay
}

// DefaultBacklog is the default backlog capacity.
const DefaultBacklog = 64

// NewBuffered wraps the given publisher with a backlog of the given
// capacity (DefaultBacklog if <= 0).
func NewBuffered(inner *RealPublisher, capacity int) *Buffered {
	return newBuffered(inner, capacity)
}

func newBuffered(inner rawPublisher, capacity int) *Buffered {
	if capacity <= 0 {
		capacity = DefaultBacklog
	}
	return &Buffered{
		inner:    inner,
		backlog:  make([]queued, capacity),
		capacity: capacity,
	}
}

// PublishSensor formats and delivers a sensor event, queueing it if the
// broker is away.
func (b *Buffered) PublishSensor(msg events.Message) error {
	payload, err := FormatSensorPayload(msg)
	if err != nil {
		return err
	}
	b.deliver(queued{topic: TopicEvents, qos: 0, payload: payload})
	return nil
}

// PublishSystem formats and delivers a system event, queueing it if the
// broker is away.
func (b *Buffered) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	b.deliver(queued{topic: TopicSystem, qos: 1, retained: event.Retained, payload: payload})
	return nil
}

// IsConnected reports the underlying connection state.
func (b *Buffered) IsConnected() bool {
	return b.inner.IsConnected()
}

// Close closes the underlying publisher. Queued messages are dropped.
func (b *Buffered) Close() error {
	b.mu.Lock()
	if b.count > 0 {
		log.Printf("mqtt: closing with %d unsent message(s)", b.count)
	}
	b.mu.Unlock()
	return b.inner.Close()
}

// Pending returns the backlog depth.
func (b *Buffered) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

func (b *Buffered) deliver(msg queued) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inner.IsConnected() {
		b.push(msg)
		return
	}

	// Replay the backlog first so ordering holds.
	for b.count > 0 {
		next := b.peek()
		if err := b.inner.publishRaw(next.topic, next.qos, next.retained, next.payload); err != nil {
			log.Printf("mqtt: replay: %v", err)
			b.push(msg)
			return
		}
		b.pop()
	}
	if b.overflow {
		log.Printf("mqtt: backlog replayed with earlier drops")
		b.overflow = false
	}

	if err := b.inner.publishRaw(msg.topic, msg.qos, msg.retained, msg.payload); err != nil {
		log.Printf("mqtt: publish: %v", err)
		b.push(msg)
	}
}

// push appends to the backlog, overwriting the oldest entry when full.
// Caller holds the lock.
func (b *Buffered) push(msg queued) {
	if b.count == b.capacity {
		if !b.overflow {
			log.Printf("mqtt: backlog full (%d messages), dropping oldest", b.capacity)
			b.overflow = true
		}
		b.backlog[b.head] = msg
		b.head = (b.head + 1) % b.capacity
		return
	}
	b.backlog[b.head] = msg
	b.head = (b.head + 1) % b.capacity
	b.count++
}

// peek returns the oldest queued message. Caller holds the lock and has
// checked count > 0.
func (b *Buffered) peek() queued {
	start := (b.head - b.count + b.capacity) % b.capacity
	return b.backlog[start]
}

// pop discards the oldest queued message. Caller holds the lock.
func (b *Buffered) pop() {
	b.count--
	if b.count == 0 {
		b.head = 0
	}
}
