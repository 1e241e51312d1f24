// Package alarm couples one sump switch input to one alarm output at a
// fixed sampling rate. This is the safety path: every tick the output is
// recomputed from the current sample alone, with no debounce, no
// hysteresis and no software between sample and output beyond the copy
// itself. A single-tick trip asserts the alarm within that tick, and the
// alarm drops the moment the input clears.
package alarm

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/sweeney/sump-sentry/internal/gpio"
)

// State is the monitor's view of its sensor, rederived every tick.
type State string

const (
	StateIdle    State = "IDLE"
	StateTripped State = "TRIPPED"
)

// DefaultTickInterval is the default sampling period. The reference
// hardware scanned at 2 kHz; 1 ms is the closest rate worth paying for
// through the GPIO character device, and the rate is tuning, not
// correctness.
const DefaultTickInterval = time.Millisecond

// Monitor owns one input/output pin pair. Nothing else may touch either
// line while the monitor runs.
type Monitor struct {
	name      string
	in        gpio.Input
	out       gpio.Output
	activeLow bool

	mu      sync.Mutex
	state   State
	trips   int
	lastErr error
}

// NewMonitor creates a Monitor for the named sensor. With activeLow set
// (the usual pull-up switch wiring) a low sample means tripped.
func NewMonitor(name string, in gpio.Input, out gpio.Output, activeLow bool) *Monitor {
	return &Monitor{
		name:      name,
		in:        in,
		out:       out,
		activeLow: activeLow,
		state:     StateIdle,
	}
}

// Name returns the configured sensor name.
func (m *Monitor) Name() string { return m.name }

// Tick samples the input once and drives the output to match. The
// output is written every tick, tripped or not, so a glitched line is
// re-asserted within one sampling period. Sampling errors leave the
// previous output level in place; there is nothing safer to do without
// a valid sample.
func (m *Monitor) Tick() error {
	level, err := m.in.Value()
	if err != nil {
		m.mu.Lock()
		m.lastErr = err
		m.mu.Unlock()
		return err
	}

	tripped := level != m.activeLow // activeLow: low = tripped

	m.mu.Lock()
	if tripped && m.state == StateIdle {
		m.trips++
	}
	if tripped {
		m.state = StateTripped
	} else {
		m.state = StateIdle
	}
	m.lastErr = nil
	m.mu.Unlock()

	return m.out.Set(tripped)
}

// State returns the state observed by the most recent tick.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Trips returns the number of IDLE to TRIPPED transitions observed.
// Reporting only; the alarm output does not depend on it.
func (m *Monitor) Trips() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trips
}

// Run samples on its own ticker until the context is cancelled. GPIO
// errors are logged and the loop keeps going; the monitor has no
// recoverable failure mode short of losing the hardware.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastLogged error
	for {
		select {
		case <-ctx.Done():
			if err := m.out.Set(false); err != nil {
				log.Printf("alarm %s: clear output: %v", m.name, err)
			}
			return
		case <-ticker.C:
			if err := m.Tick(); err != nil {
				// Log on change only; a dead line at 1 kHz would
				// otherwise bury the journal.
				if lastLogged == nil || err.Error() != lastLogged.Error() {
					log.Printf("alarm %s: %v", m.name, err)
					lastLogged = err
				}
				continue
			}
			lastLogged = nil
		}
	}
}
