package gpio

import (
	"errors"
	"sync"
)

// FakeInput is a test double that returns scripted line levels.
type FakeInput struct {
	mu sync.Mutex

	// Samples contains scripted levels to return. Each call to Value
	// consumes the next sample; when exhausted, the last sample is
	// returned repeatedly.
	Samples []bool

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Value()
	ReadError error
}

// NewFakeInput creates a FakeInput with the given samples.
func NewFakeInput(samples ...bool) *FakeInput {
	return &FakeInput{Samples: samples}
}

// Value returns the next scripted sample.
func (f *FakeInput) Value() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ReadError != nil {
		return false, f.ReadError
	}
	if len(f.Samples) == 0 {
		return false, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample, nil
}

// SetLevel replaces the script with a single steady level. Useful for
// tests that flip an input mid-run rather than scripting every sample.
func (f *FakeInput) SetLevel(level bool) {
	f.mu.Lock()
	f.Samples = []bool{level}
	f.index = 0
	f.mu.Unlock()
}

// Close marks the input as closed.
func (f *FakeInput) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// FakeOutput records every level written to it.
type FakeOutput struct {
	mu sync.Mutex

	// Writes contains every level passed to Set, in order.
	Writes []bool

	// Closed tracks if Close was called
	Closed bool

	// SetError, if set, will be returned by Set()
	SetError error
}

// NewFakeOutput creates an empty FakeOutput.
func NewFakeOutput() *FakeOutput {
	return &FakeOutput{}
}

// Set records the level.
func (f *FakeOutput) Set(level bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.SetError != nil {
		return f.SetError
	}
	f.Writes = append(f.Writes, level)
	return nil
}

// Last returns the most recently written level, or false if none.
func (f *FakeOutput) Last() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.Writes) == 0 {
		return false
	}
	return f.Writes[len(f.Writes)-1]
}

// Levels returns a copy of all recorded writes.
func (f *FakeOutput) Levels() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]bool, len(f.Writes))
	copy(out, f.Writes)
	return out
}

// Close marks the output as closed.
func (f *FakeOutput) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}
