package blink

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/sweeney/sump-sentry/internal/gpio"
	"github.com/sweeney/sump-sentry/internal/pulse"
)

// Timing holds the transmitter's dwell times, expressed in ticks so the
// state machine stays independent of the wall-clock tick rate. The
// defaults assume a 10 ms tick. Exact values are tuning, not
// correctness; the only requirement is that a human can tell long from
// short.
type Timing struct {
	// GapTicks is the low dwell separating heartbeat and code cycles.
	GapTicks int
	// BlipTicks is the very short heartbeat pulse.
	BlipTicks int
	// LongTicks is a tens-digit pulse.
	LongTicks int
	// ShortTicks is a ones-digit pulse.
	ShortTicks int
	// SpaceTicks is the low dwell between pulses of one code.
	SpaceTicks int
}

// DefaultTiming gives a 2 s gap, 30 ms blip, 600 ms long pulse, 200 ms
// short pulse and 400 ms inter-pulse space at a 10 ms tick.
var DefaultTiming = Timing{
	GapTicks:   200,
	BlipTicks:  3,
	LongTicks:  60,
	ShortTicks: 20,
	SpaceTicks: 40,
}

// DefaultTickInterval is the tick period DefaultTiming is tuned for.
const DefaultTickInterval = 10 * time.Millisecond

type txState int

const (
	// stateGap: LED low, waiting out the inter-cycle silence. When it
	// expires the channel is polled, deciding heartbeat vs code.
	stateGap txState = iota
	// stateBlip: LED high for the heartbeat blip.
	stateBlip
	// statePulse: LED high for a long or short digit pulse.
	statePulse
	// stateSpace: LED low between pulses of the current code.
	stateSpace
)

// Transmitter renders codes from a Channel on a single output line. It
// advances only on its own tick and never blocks: an empty channel poll
// means another heartbeat cycle, so producer activity (or silence) can
// never stall it.
type Transmitter struct {
	mu     sync.Mutex
	ch     *Channel
	timing Timing

	state     txState
	level     bool
	remaining int

	// pulses left to emit for the loaded code
	longLeft  int
	shortLeft int

	// last code loaded from the channel. Retained for reporting only;
	// an empty poll never re-transmits it.
	lastCode int
}

// NewTransmitter creates a Transmitter draining the given channel,
// starting in the inter-cycle gap.
func NewTransmitter(ch *Channel, timing Timing) *Transmitter {
	return &Transmitter{
		ch:        ch,
		timing:    timing,
		state:     stateGap,
		remaining: timing.GapTicks,
	}
}

// Tick advances the state machine by one tick and returns the level the
// output line should hold for this tick.
func (t *Transmitter) Tick() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.remaining <= 0 {
		t.advance()
	}
	t.remaining--
	return t.level
}

// LastCode returns the most recently loaded code. It is 0 until the
// first nonzero code is consumed, and retains the last value across
// heartbeat cycles.
func (t *Transmitter) LastCode() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastCode
}

// advance moves to the next state and sets its duration and level.
// Called with the lock held when the current dwell has expired.
func (t *Transmitter) advance() {
	switch t.state {
	case stateGap:
		if pattern, ok := t.ch.Take(); ok {
			if t.load(pattern) {
				t.nextPulse()
				return
			}
		}
		t.set(stateBlip, t.timing.BlipTicks, true)

	case stateBlip:
		t.set(stateGap, t.timing.GapTicks, false)

	case statePulse:
		t.set(stateSpace, t.timing.SpaceTicks, false)

	case stateSpace:
		if t.longLeft+t.shortLeft == 0 {
			// Code fully rendered; long silence, then back to
			// polling.
			t.set(stateGap, t.timing.GapTicks, false)
			return
		}
		t.nextPulse()
	}
}

// load decodes a freshly taken pattern. It returns true if the code has
// pulses to render; code 0 (framing bit only) and malformed patterns
// degrade to the heartbeat.
func (t *Transmitter) load(pattern uint32) bool {
	tens, ones, err := pulse.Decode(pattern)
	if err != nil {
		log.Printf("blink: dropping malformed pattern %#b: %v", pattern, err)
		return false
	}
	t.lastCode = tens*10 + ones
	t.longLeft = tens
	t.shortLeft = ones
	return tens+ones > 0
}

// nextPulse starts the next digit pulse. All long pulses render before
// any short pulse, so the observer reads tens then ones.
func (t *Transmitter) nextPulse() {
	if t.longLeft > 0 {
		t.longLeft--
		t.set(statePulse, t.timing.LongTicks, true)
		return
	}
	t.shortLeft--
	t.set(statePulse, t.timing.ShortTicks, true)
}

func (t *Transmitter) set(s txState, ticks int, level bool) {
	t.state = s
	t.remaining = ticks
	t.level = level
}

// Run drives the transmitter off a ticker, writing the diagnostic line
// on level changes until the context is cancelled. The line is left low
// on exit.
func (t *Transmitter) Run(ctx context.Context, out gpio.Output, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := false
	if err := out.Set(false); err != nil {
		log.Printf("blink: set diagnostic line: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			if err := out.Set(false); err != nil {
				log.Printf("blink: clear diagnostic line: %v", err)
			}
			return
		case <-ticker.C:
			level := t.Tick()
			if level == last {
				continue
			}
			last = level
			if err := out.Set(level); err != nil {
				log.Printf("blink: set diagnostic line: %v", err)
			}
		}
	}
}
