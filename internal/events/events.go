// Package events carries daemon-internal notifications between the
// software loops and the reporting surfaces (TCP feed, MQTT). Producers
// never block on slow consumers: a full subscriber buffer drops the
// message for that subscriber only.
package events

import (
	"log"
	"sync"
	"time"
)

// Kind discriminates Message payloads.
type Kind int

const (
	// KindKeepAlive is a periodic liveness signal.
	KindKeepAlive Kind = iota
	// KindSensorChange reports a debounced sensor transition.
	KindSensorChange
	// KindLinkChange reports a new diagnostic code from the link
	// watcher.
	KindLinkChange
	// KindClientConnected reports a feed client attaching.
	KindClientConnected
	// KindClientDisconnected reports a feed client detaching.
	KindClientDisconnected
)

// Message is a single bus notification. Fields beyond Kind and Time are
// populated per kind.
type Message struct {
	Kind Kind
	Time time.Time

	// KindSensorChange
	Sensor  int    // sensor index
	Name    string // sensor name
	Tripped bool

	// KindLinkChange
	Code int // diagnostic code

	// KindClientConnected
	Addr string
}

// Subscription is one subscriber's view of the bus. Receive from C;
// Close when done.
type Subscription struct {
	C chan Message

	broker *Broker
	once   sync.Once
}

// Close detaches the subscription from the broker.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.broker.unsubscribe(s)
	})
}

// Broker fans messages out to subscribers.
type Broker struct {
	mu      sync.Mutex
	subs    map[*Subscription]struct{}
	dropped int
}

// NewBroker creates an empty Broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[*Subscription]struct{})}
}

// Subscribe attaches a new subscriber with the given channel buffer.
func (b *Broker) Subscribe(buffer int) *Subscription {
	sub := &Subscription{C: make(chan Message, buffer), broker: b}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

func (b *Broker) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	delete(b.subs, sub)
	b.mu.Unlock()
}

// Publish delivers the message to every subscriber that has buffer
// space. It never blocks; a lagging subscriber loses the message.
func (b *Broker) Publish(msg Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs {
		select {
		case sub.C <- msg:
		default:
			b.dropped++
			if b.dropped == 1 || b.dropped%100 == 0 {
				log.Printf("events: dropped %d message(s) for lagging subscribers", b.dropped)
			}
		}
	}
}

// Dropped returns the number of messages dropped so far.
func (b *Broker) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
