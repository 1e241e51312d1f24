package pulse

import (
	"errors"
	"testing"
)

func TestEncodeKnownPatterns(t *testing.T) {
	tests := []struct {
		tens, ones int
		want       uint32
	}{
		{0, 0, 0b1},
		{0, 1, 0b10},
		{1, 0, 0b11},
		{1, 1, 0b110},
		{3, 7, 0b11110000000},
		{2, 5, 0b11100000},
		{9, 9, 0b1111111111000000000},
	}

	for _, tt := range tests {
		got, err := Encode(tt.tens, tt.ones)
		if err != nil {
			t.Errorf("Encode(%d,%d): unexpected error: %v", tt.tens, tt.ones, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Encode(%d,%d) = %#b, want %#b", tt.tens, tt.ones, got, tt.want)
		}
	}
}

func TestEncodeZeroIsFramingOnly(t *testing.T) {
	got, err := Encode(0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Errorf("Encode(0,0) = %#b, want just the framing bit", got)
	}

	tens, ones, err := Decode(got)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if tens != 0 || ones != 0 {
		t.Errorf("Decode(framing only) = (%d,%d), want (0,0)", tens, ones)
	}
}

func TestRoundTripAllDigitPairs(t *testing.T) {
	for tens := 0; tens <= 9; tens++ {
		for ones := 0; ones <= 9; ones++ {
			pattern, err := Encode(tens, ones)
			if err != nil {
				t.Fatalf("Encode(%d,%d): %v", tens, ones, err)
			}
			gotTens, gotOnes, err := Decode(pattern)
			if err != nil {
				t.Fatalf("Decode(Encode(%d,%d)): %v", tens, ones, err)
			}
			if gotTens != tens || gotOnes != ones {
				t.Errorf("round trip (%d,%d) -> (%d,%d)", tens, ones, gotTens, gotOnes)
			}
		}
	}
}

func TestEncodeRejectsBadDigits(t *testing.T) {
	bad := []struct{ tens, ones int }{
		{-1, 0}, {0, -1}, {10, 0}, {0, 10}, {10, 10},
	}
	for _, tt := range bad {
		if _, err := Encode(tt.tens, tt.ones); !errors.Is(err, ErrDigitRange) {
			t.Errorf("Encode(%d,%d): expected ErrDigitRange, got %v", tt.tens, tt.ones, err)
		}
	}
}

func TestEncodeCode(t *testing.T) {
	tests := []struct {
		code       int
		tens, ones int
	}{
		{0, 0, 0},
		{7, 0, 7},
		{12, 1, 2},
		{37, 3, 7},
		{70, 7, 0},
		{99, 9, 9},
	}

	for _, tt := range tests {
		pattern, err := EncodeCode(tt.code)
		if err != nil {
			t.Errorf("EncodeCode(%d): %v", tt.code, err)
			continue
		}
		tens, ones, err := Decode(pattern)
		if err != nil {
			t.Errorf("Decode(EncodeCode(%d)): %v", tt.code, err)
			continue
		}
		if tens != tt.tens || ones != tt.ones {
			t.Errorf("EncodeCode(%d) decodes to (%d,%d), want (%d,%d)",
				tt.code, tens, ones, tt.tens, tt.ones)
		}
	}
}

func TestEncodeCodeRejectsOutOfRange(t *testing.T) {
	for _, code := range []int{-1, 100, 1000} {
		if _, err := EncodeCode(code); !errors.Is(err, ErrCodeRange) {
			t.Errorf("EncodeCode(%d): expected ErrCodeRange, got %v", code, err)
		}
	}
}

func TestDecodeRejectsZero(t *testing.T) {
	if _, _, err := Decode(0); !errors.Is(err, ErrBadPattern) {
		t.Errorf("Decode(0): expected ErrBadPattern, got %v", err)
	}
}

func TestDecodeRejectsInterleavedBits(t *testing.T) {
	// Framing bit then 0 then 1: a 1 after a 0 is not a valid digit
	// stream.
	bad := []uint32{0b101, 0b1010, 0b11011, 0b100000001}
	for _, pattern := range bad {
		if _, _, err := Decode(pattern); !errors.Is(err, ErrBadPattern) {
			t.Errorf("Decode(%#b): expected ErrBadPattern, got %v", pattern, err)
		}
	}
}

func TestDecodeDistinguishesLeadingZeroDigit(t *testing.T) {
	// Codes 7 and 70 must not collide; the framing bit exists exactly
	// for this.
	p7, _ := EncodeCode(7)
	p70, _ := EncodeCode(70)
	if p7 == p70 {
		t.Fatalf("codes 7 and 70 encode identically (%#b)", p7)
	}
}
