package alarm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/sump-sentry/internal/gpio"
)

func TestOutputTracksInputEveryTick(t *testing.T) {
	// Arbitrary input sequence; output must equal the tripped
	// predicate on the same tick, with no carry-over in either
	// direction. Active-low: false (low) = tripped.
	samples := []bool{true, true, false, true, false, false, true, false, true, true}
	in := gpio.NewFakeInput(samples...)
	out := gpio.NewFakeOutput()
	m := NewMonitor("sump1", in, out, true)

	for i := range samples {
		if err := m.Tick(); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}

	writes := out.Levels()
	if len(writes) != len(samples) {
		t.Fatalf("got %d writes, want one per tick (%d)", len(writes), len(samples))
	}
	for i, level := range samples {
		wantTripped := !level
		if writes[i] != wantTripped {
			t.Errorf("tick %d: input=%v output=%v, want %v", i, level, writes[i], wantTripped)
		}
	}
}

func TestSingleTickTripReported(t *testing.T) {
	// One low sample in a sea of highs must assert the alarm for
	// exactly that tick. No debounce on the safety path.
	in := gpio.NewFakeInput(true, false, true)
	out := gpio.NewFakeOutput()
	m := NewMonitor("sump1", in, out, true)

	for i := 0; i < 3; i++ {
		m.Tick()
	}

	want := []bool{false, true, false}
	writes := out.Levels()
	for i := range want {
		if writes[i] != want[i] {
			t.Errorf("tick %d: output %v, want %v", i, writes[i], want[i])
		}
	}
}

func TestActiveHighPolarity(t *testing.T) {
	in := gpio.NewFakeInput(true, false)
	out := gpio.NewFakeOutput()
	m := NewMonitor("sump1", in, out, false)

	m.Tick()
	m.Tick()

	writes := out.Levels()
	if writes[0] != true || writes[1] != false {
		t.Errorf("active-high: writes %v, want [true false]", writes)
	}
}

func TestStateAndTripCount(t *testing.T) {
	in := gpio.NewFakeInput(true, false, false, true, false)
	out := gpio.NewFakeOutput()
	m := NewMonitor("sump1", in, out, true)

	if m.State() != StateIdle {
		t.Errorf("initial state %s, want IDLE", m.State())
	}

	m.Tick() // idle
	m.Tick() // trip 1
	if m.State() != StateTripped {
		t.Errorf("state %s after trip, want TRIPPED", m.State())
	}
	m.Tick() // still tripped, same trip
	m.Tick() // clear
	if m.State() != StateIdle {
		t.Errorf("state %s after clear, want IDLE", m.State())
	}
	m.Tick() // trip 2

	if m.Trips() != 2 {
		t.Errorf("trips = %d, want 2", m.Trips())
	}
}

func TestTickReadError(t *testing.T) {
	in := gpio.NewFakeInput(true)
	in.ReadError = errors.New("line gone")
	out := gpio.NewFakeOutput()
	m := NewMonitor("sump1", in, out, true)

	if err := m.Tick(); err == nil {
		t.Fatal("expected read error to propagate")
	}
	if len(out.Levels()) != 0 {
		t.Error("output must not be driven from a failed sample")
	}
}

func TestRunClearsOutputOnShutdown(t *testing.T) {
	in := gpio.NewFakeInput(false) // held tripped
	out := gpio.NewFakeOutput()
	m := NewMonitor("sump1", in, out, true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, time.Millisecond)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	if out.Last() != false {
		t.Error("alarm output should be cleared on shutdown")
	}
	if m.Trips() != 1 {
		t.Errorf("trips = %d, want 1 for a held trip", m.Trips())
	}
}
