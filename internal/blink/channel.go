// Package blink drives the shared diagnostic LED. A Channel carries the
// latest two-digit status code from software producers to a Transmitter,
// which renders it as a self-clocking pulse train (or a heartbeat blip
// when nothing is pending).
package blink

import (
	"sync"

	"github.com/sweeney/sump-sentry/internal/pulse"
)

// Channel is a single-slot mailbox between status producers and the
// transmitter. Only the most recent code matters for display, so an
// unconsumed value is overwritten rather than queued. A submission equal
// to the last submitted code is suppressed regardless of whether that
// code has been consumed yet, which lets producers resubmit on every
// polling tick without flooding the transmitter.
type Channel struct {
	mu sync.Mutex

	pending    uint32 // encoded pattern awaiting the transmitter
	hasPending bool

	last    int // last accepted code, suppression key
	hasLast bool
}

// NewChannel creates an empty Channel.
func NewChannel() *Channel {
	return &Channel{}
}

// Submit offers a code in 0..99 for display. It returns true if the code
// was accepted as the new pending value, false if it was suppressed as a
// duplicate of the previous submission. Out-of-range codes are rejected
// with an error before any encoding happens and do not disturb the
// suppression key. Submit never blocks beyond the internal lock.
func (c *Channel) Submit(code int) (bool, error) {
	pattern, err := pulse.EncodeCode(code)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hasLast && c.last == code {
		return false, nil
	}

	c.last = code
	c.hasLast = true
	c.pending = pattern
	c.hasPending = true
	return true, nil
}

// Take removes and returns the pending pattern, if any. It never blocks;
// the transmitter treats "nothing new" as a heartbeat cycle.
func (c *Channel) Take() (uint32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasPending {
		return 0, false
	}
	c.hasPending = false
	return c.pending, true
}
