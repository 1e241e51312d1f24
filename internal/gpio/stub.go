//go:build !linux

package gpio

import "errors"

// Chip is not available on non-Linux platforms.
type Chip struct{}

// NewChip returns an error on non-Linux platforms.
func NewChip() (*Chip, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// RequestInput is not implemented on non-Linux platforms.
func (c *Chip) RequestInput(pin int) (Input, error) {
	return nil, errors.New("gpio: not supported")
}

// RequestOutput is not implemented on non-Linux platforms.
func (c *Chip) RequestOutput(pin int) (Output, error) {
	return nil, errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (c *Chip) Close() error {
	return nil
}
