package netwatch_test

import (
	"testing"
	"time"

	"github.com/sweeney/sump-sentry/internal/blink"
	"github.com/sweeney/sump-sentry/internal/netwatch"
)

// End-to-end checks of the diagnostic path: link status in, LED
// waveform out.

// Widths chosen so gap, blip, long and short are all distinguishable
// when counting ticks.
var txTiming = blink.Timing{
	GapTicks:   10,
	BlipTicks:  1,
	LongTicks:  6,
	ShortTicks: 2,
	SpaceTicks: 3,
}

// highRuns collects the lengths of consecutive high-tick runs.
func highRuns(tx *blink.Transmitter, ticks int) []int {
	var runs []int
	cur := 0
	for i := 0; i < ticks; i++ {
		if tx.Tick() {
			cur++
			continue
		}
		if cur > 0 {
			runs = append(runs, cur)
			cur = 0
		}
	}
	return runs
}

func TestNoNetworkBlinksCode15(t *testing.T) {
	src := netwatch.NewFakeSource(netwatch.StatusNoNetwork)
	ch := blink.NewChannel()
	w := netwatch.NewWatcher(src, ch, nil, nil)
	tx := blink.NewTransmitter(ch, txTiming)

	w.Poll(time.Now())

	// Code 15 renders as one long pulse then five shorts.
	runs := highRuns(tx, 120)
	if len(runs) < 6 {
		t.Fatalf("expected at least 6 pulses, got %v", runs)
	}
	if runs[0] != txTiming.LongTicks {
		t.Errorf("pulse 0: got width %d, want long %d", runs[0], txTiming.LongTicks)
	}
	for i := 1; i < 6; i++ {
		if runs[i] != txTiming.ShortTicks {
			t.Errorf("pulse %d: got width %d, want short %d", i, runs[i], txTiming.ShortTicks)
		}
	}
	if tx.LastCode() != 15 {
		t.Errorf("LastCode: got %d, want 15", tx.LastCode())
	}
}

func TestStableLinkBlinksCodeOnce(t *testing.T) {
	src := netwatch.NewFakeSource(netwatch.StatusBadAuth)
	ch := blink.NewChannel()
	w := netwatch.NewWatcher(src, ch, nil, nil)
	tx := blink.NewTransmitter(ch, txTiming)

	// Repeated polls of an unchanged status must not re-queue the code.
	for i := 0; i < 5; i++ {
		w.Poll(time.Now())
	}

	// Code 16: one long, six shorts, then heartbeat blips only.
	runs := highRuns(tx, 300)
	if len(runs) < 8 {
		t.Fatalf("expected code pulses plus heartbeats, got %v", runs)
	}
	if runs[0] != txTiming.LongTicks {
		t.Errorf("pulse 0: got width %d, want long", runs[0])
	}
	for i := 1; i < 7; i++ {
		if runs[i] != txTiming.ShortTicks {
			t.Errorf("pulse %d: got width %d, want short", i, runs[i])
		}
	}
	for i := 7; i < len(runs); i++ {
		if runs[i] != txTiming.BlipTicks {
			t.Errorf("run %d: got width %d, want heartbeat blip", i, runs[i])
		}
	}
}

func TestRecoveryDropsToHeartbeat(t *testing.T) {
	src := netwatch.NewFakeSource(netwatch.StatusLinkFail)
	ch := blink.NewChannel()
	w := netwatch.NewWatcher(src, ch, nil, nil)
	tx := blink.NewTransmitter(ch, txTiming)

	w.Poll(time.Now())
	highRuns(tx, 120) // render code 14

	src.SetStatus(netwatch.StatusConnected)
	w.Poll(time.Now())

	// Code 0 carries no pulses; the transmitter degrades to heartbeat
	// blips and LastCode reflects the recovery.
	runs := highRuns(tx, 100)
	for i, r := range runs {
		if r != txTiming.BlipTicks {
			t.Errorf("run %d: got width %d, want heartbeat blip", i, r)
		}
	}
	if tx.LastCode() != 0 {
		t.Errorf("LastCode: got %d, want 0", tx.LastCode())
	}
}
