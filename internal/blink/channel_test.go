package blink

import (
	"errors"
	"testing"

	"github.com/sweeney/sump-sentry/internal/pulse"
)

func mustSubmit(t *testing.T, c *Channel, code int) bool {
	t.Helper()
	ok, err := c.Submit(code)
	if err != nil {
		t.Fatalf("Submit(%d): %v", code, err)
	}
	return ok
}

func TestSubmitFirstCodeAccepted(t *testing.T) {
	c := NewChannel()
	if !mustSubmit(t, c, 12) {
		t.Fatal("first submission should be accepted")
	}

	pattern, ok := c.Take()
	if !ok {
		t.Fatal("expected a pending pattern")
	}
	tens, ones, err := pulse.Decode(pattern)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if tens != 1 || ones != 2 {
		t.Errorf("pattern decodes to (%d,%d), want (1,2)", tens, ones)
	}
}

func TestSubmitZeroAccepted(t *testing.T) {
	// Code 0 is a real submission (clears the display back to
	// heartbeat), not an absence of one.
	c := NewChannel()
	if !mustSubmit(t, c, 0) {
		t.Fatal("code 0 should be accepted")
	}
	if _, ok := c.Take(); !ok {
		t.Fatal("expected pending pattern for code 0")
	}
}

func TestDuplicateSuppressed(t *testing.T) {
	c := NewChannel()

	if !mustSubmit(t, c, 15) {
		t.Fatal("first submission should be accepted")
	}
	if mustSubmit(t, c, 15) {
		t.Error("immediate duplicate should be suppressed")
	}

	// Only one value is observable by the consumer.
	if _, ok := c.Take(); !ok {
		t.Fatal("expected one pending pattern")
	}
	if _, ok := c.Take(); ok {
		t.Error("duplicate submission should not produce a second pending value")
	}
}

func TestDuplicateSuppressionKeysOffLastSubmissionOnly(t *testing.T) {
	c := NewChannel()

	if !mustSubmit(t, c, 15) {
		t.Fatal("submit 15 should be accepted")
	}
	if !mustSubmit(t, c, 11) {
		t.Fatal("submit 11 should be accepted")
	}
	if !mustSubmit(t, c, 15) {
		t.Error("resubmitting 15 after an intervening code should be accepted")
	}
}

func TestSuppressionIndependentOfConsumption(t *testing.T) {
	c := NewChannel()

	mustSubmit(t, c, 42)
	c.Take()
	// Consumed or not, 42 is still the last submitted code.
	if mustSubmit(t, c, 42) {
		t.Error("duplicate should be suppressed even after consumption")
	}
}

func TestMostRecentWins(t *testing.T) {
	c := NewChannel()

	mustSubmit(t, c, 11)
	mustSubmit(t, c, 15)

	pattern, ok := c.Take()
	if !ok {
		t.Fatal("expected a pending pattern")
	}
	tens, ones, err := pulse.Decode(pattern)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if code := tens*10 + ones; code != 15 {
		t.Errorf("consumer observed code %d, want the overwriting 15", code)
	}
	if _, ok := c.Take(); ok {
		t.Error("overwritten value should not be queued behind the winner")
	}
}

func TestSubmitRejectsOutOfRange(t *testing.T) {
	c := NewChannel()

	for _, code := range []int{-1, 100} {
		ok, err := c.Submit(code)
		if ok {
			t.Errorf("Submit(%d) should not be accepted", code)
		}
		if !errors.Is(err, pulse.ErrCodeRange) {
			t.Errorf("Submit(%d): expected ErrCodeRange, got %v", code, err)
		}
	}

	// A rejected code must not disturb the suppression key.
	if !mustSubmit(t, c, 99) {
		t.Error("valid submission after rejected ones should be accepted")
	}
}

func TestTakeEmpty(t *testing.T) {
	c := NewChannel()
	if _, ok := c.Take(); ok {
		t.Error("Take on empty channel should report nothing pending")
	}
}
