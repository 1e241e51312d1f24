//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// Chip wraps the GPIO character device and hands out individual lines.
// All lines requested through a Chip share its file descriptor; closing
// the Chip after the lines invalidates nothing the kernel cares about,
// but Close order is still lines-then-chip to keep errors attributable.
type Chip struct {
	chip *gpiocdev.Chip
}

// NewChip opens the default GPIO character device.
func NewChip() (*Chip, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &Chip{chip: chip}, nil
}

// RequestInput requests the given pin as an input with pull-up, matching
// the switch wiring: the sump switch shorts the pin to ground, so the
// line idles high and reads low when the float switch closes.
func (c *Chip) RequestInput(pin int) (Input, error) {
	line, err := c.chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		return nil, fmt.Errorf("request input pin %d: %w", pin, err)
	}
	return &realInput{line: line}, nil
}

// RequestOutput requests the given pin as an output driven low.
func (c *Chip) RequestOutput(pin int) (Output, error) {
	line, err := c.chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request output pin %d: %w", pin, err)
	}
	return &realOutput{line: line}, nil
}

// Close releases the chip. Lines must be closed first.
func (c *Chip) Close() error {
	if err := c.chip.Close(); err != nil {
		return fmt.Errorf("close chip: %w", err)
	}
	return nil
}

type realInput struct {
	line *gpiocdev.Line
}

func (r *realInput) Value() (bool, error) {
	v, err := r.line.Value()
	if err != nil {
		return false, fmt.Errorf("read pin: %w", err)
	}
	return v != 0, nil
}

// Close reconfigures the line back to an input with pull-up (the Pi boot
// default for these pins) before releasing it, so external hardware sees
// a consistent state across daemon restarts and reboots.
func (r *realInput) Close() error {
	if err := r.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp); err != nil {
		return fmt.Errorf("reconfigure pin: %w", err)
	}
	if err := r.line.Close(); err != nil {
		return fmt.Errorf("close pin: %w", err)
	}
	return nil
}

type realOutput struct {
	line *gpiocdev.Line
}

func (r *realOutput) Set(level bool) error {
	v := 0
	if level {
		v = 1
	}
	if err := r.line.SetValue(v); err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	return nil
}

// Close drives the line low before releasing it so LEDs go dark on
// shutdown rather than freezing in whatever state the tick left them.
func (r *realOutput) Close() error {
	var errs []error
	if err := r.line.SetValue(0); err != nil {
		errs = append(errs, fmt.Errorf("clear pin: %w", err))
	}
	if err := r.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close pin: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
