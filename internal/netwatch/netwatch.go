// Package netwatch turns network link condition into two-digit
// diagnostic codes for the blink channel. The join procedure itself is
// someone else's problem (wpa_supplicant, dhcpcd); this package only
// polls an already-maintained status and classifies it.
package netwatch

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/sweeney/sump-sentry/internal/blink"
	"github.com/sweeney/sump-sentry/internal/events"
	"github.com/sweeney/sump-sentry/internal/gpio"
)

// Status is the platform link status enumeration. Values follow the
// CYW43 convention the blink codes were designed around: non-negative
// for progress states, negative for failures. Raw platform values
// outside the named set pass through Classify unmodified.
type Status int

const (
	StatusLinkDown  Status = 0
	StatusJoining   Status = 1
	StatusNoIP      Status = 2
	StatusConnected Status = 3

	StatusLinkFail  Status = -1
	StatusNoNetwork Status = -2
	StatusBadAuth   Status = -3
)

// String returns a short human-readable name for the status.
func (s Status) String() string {
	switch s {
	case StatusLinkDown:
		return "LINK_DOWN"
	case StatusJoining:
		return "JOINING"
	case StatusNoIP:
		return "NO_IP"
	case StatusConnected:
		return "CONNECTED"
	case StatusLinkFail:
		return "LINK_FAIL"
	case StatusNoNetwork:
		return "NO_NETWORK"
	case StatusBadAuth:
		return "BAD_AUTH"
	default:
		return "RAW"
	}
}

// Classify maps a link status to a diagnostic code. Connected is code 0
// (heartbeat). Negative statuses flip sign and land in the 14+ band,
// non-negative ones shift into 11..13. Raw statuses far outside the
// named set can classify past 99; Submit rejects those and the watcher
// logs it, which is the whole diagnostic we can offer for a status the
// scheme never budgeted for.
func Classify(s Status) int {
	if s == StatusConnected {
		return 0
	}
	if s < 0 {
		return 13 - int(s)
	}
	return int(s) + 11
}

// Source reports the current link status. Implementations must be cheap
// enough to call at the polling cadence.
type Source interface {
	Status() (Status, error)
}

// DefaultPollInterval is the watcher cadence. Link state moves on human
// timescales; 4 Hz is plenty.
const DefaultPollInterval = 250 * time.Millisecond

// Watcher polls a Source, submits the classified code to the blink
// channel, drives the coarse link LED, and announces transitions on the
// bus. Duplicate suppression in the channel makes per-tick resubmission
// of a stable status free.
type Watcher struct {
	source Source
	ch     *blink.Channel
	led    gpio.Output   // may be nil
	broker *events.Broker // may be nil

	mu      sync.Mutex
	last    Status
	lastOK  bool
	lastErr error
}

// NewWatcher creates a Watcher. led and broker are optional.
func NewWatcher(source Source, ch *blink.Channel, led gpio.Output, broker *events.Broker) *Watcher {
	return &Watcher{source: source, ch: ch, led: led, broker: broker}
}

// Poll performs one classification pass. Split out from Run so tests can
// drive it without a clock.
func (w *Watcher) Poll(now time.Time) {
	s, err := w.source.Status()
	if err != nil {
		w.mu.Lock()
		w.lastErr = err
		w.mu.Unlock()
		log.Printf("netwatch: read status: %v", err)
		return
	}

	w.mu.Lock()
	changed := !w.lastOK || w.last != s
	w.last = s
	w.lastOK = true
	w.lastErr = nil
	w.mu.Unlock()

	if w.led != nil {
		if err := w.led.Set(s == StatusConnected); err != nil {
			log.Printf("netwatch: set link led: %v", err)
		}
	}

	code := Classify(s)
	accepted, err := w.ch.Submit(code)
	if err != nil {
		log.Printf("netwatch: status %d classifies to unusable code %d: %v", s, code, err)
		return
	}

	if changed {
		log.Printf("netwatch: link %s (code %d)", s, code)
		if w.broker != nil && accepted {
			w.broker.Publish(events.Message{
				Kind: events.KindLinkChange,
				Time: now,
				Code: code,
			})
		}
	}
}

// Last returns the most recently observed status and its code. ok is
// false before the first successful poll.
func (w *Watcher) Last() (status Status, code int, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.lastOK {
		return 0, 0, false
	}
	return w.last, Classify(w.last), true
}

// Run polls until the context is cancelled.
func (w *Watcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			w.Poll(now)
		}
	}
}
