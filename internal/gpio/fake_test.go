package gpio

import (
	"errors"
	"testing"
)

func TestFakeInputConsumesSamples(t *testing.T) {
	in := NewFakeInput(true, false, true)

	want := []bool{true, false, true}
	for i, w := range want {
		got, err := in.Value()
		if err != nil {
			t.Fatalf("sample %d: unexpected error: %v", i, err)
		}
		if got != w {
			t.Errorf("sample %d: got %v, want %v", i, got, w)
		}
	}
}

func TestFakeInputRepeatsLastSample(t *testing.T) {
	in := NewFakeInput(false, true)

	in.Value()
	for i := 0; i < 5; i++ {
		got, err := in.Value()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got {
			t.Errorf("read %d: expected last sample (true) to repeat", i)
		}
	}
}

func TestFakeInputNoSamples(t *testing.T) {
	in := NewFakeInput()
	if _, err := in.Value(); err == nil {
		t.Error("expected error when no samples configured")
	}
}

func TestFakeInputReadError(t *testing.T) {
	in := NewFakeInput(true)
	in.ReadError = errors.New("boom")
	if _, err := in.Value(); err == nil {
		t.Error("expected configured read error")
	}
}

func TestFakeInputSetLevel(t *testing.T) {
	in := NewFakeInput(false)
	in.SetLevel(true)

	for i := 0; i < 3; i++ {
		got, err := in.Value()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got {
			t.Errorf("read %d: expected level true after SetLevel", i)
		}
	}
}

func TestFakeOutputRecordsWrites(t *testing.T) {
	out := NewFakeOutput()

	out.Set(true)
	out.Set(true)
	out.Set(false)

	levels := out.Levels()
	want := []bool{true, true, false}
	if len(levels) != len(want) {
		t.Fatalf("got %d writes, want %d", len(levels), len(want))
	}
	for i := range want {
		if levels[i] != want[i] {
			t.Errorf("write %d: got %v, want %v", i, levels[i], want[i])
		}
	}
	if out.Last() != false {
		t.Error("Last should report the most recent write")
	}
}

func TestFakeOutputLastEmpty(t *testing.T) {
	out := NewFakeOutput()
	if out.Last() != false {
		t.Error("Last on empty output should be false")
	}
}

func TestFakeClose(t *testing.T) {
	in := NewFakeInput(true)
	out := NewFakeOutput()

	if err := in.Close(); err != nil {
		t.Errorf("input close: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Errorf("output close: %v", err)
	}
	if !in.Closed || !out.Closed {
		t.Error("Close should mark fakes as closed")
	}
}
