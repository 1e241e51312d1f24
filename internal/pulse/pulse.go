// Package pulse implements the two-digit blink code encoding.
//
// A code in 1..99 is shown on the diagnostic LED as its tens digit in
// long pulses followed by its ones digit in short pulses, so a human
// can read the value without any shared clock. The wire form is an
// unsigned integer read most-significant-bit first: a single framing
// 1-bit, then exactly `tens` 1-bits, then exactly `ones` 0-bits. The
// framing bit is never data; it exists so leading and trailing zero
// digits stay unambiguous (code 7 and code 70 encode differently).
//
// This package has no dependencies and no I/O. Rendering the pattern
// as actual pulses is the blink package's job.
package pulse

import (
	"errors"
	"fmt"
	"math/bits"
)

// MaxSymbols is the largest number of data bits (tens+ones) a pattern
// can carry, limited by the 32-bit word holding it (one bit is spent on
// framing). Digits capped at 9 keep real codes far below this, but the
// encoder enforces it so the formula can never silently truncate.
const MaxSymbols = 31

var (
	// ErrDigitRange reports a digit outside 0..9.
	ErrDigitRange = errors.New("pulse: digit out of range")

	// ErrCodeRange reports a code outside 0..99.
	ErrCodeRange = errors.New("pulse: code out of range")

	// ErrSymbolBudget reports tens+ones exceeding MaxSymbols.
	ErrSymbolBudget = errors.New("pulse: symbol count exceeds pattern capacity")

	// ErrBadPattern reports a pattern that is not a framing bit
	// followed by 1-bits then 0-bits.
	ErrBadPattern = errors.New("pulse: malformed pattern")
)

// Encode builds the pattern for the given digit pair.
func Encode(tens, ones int) (uint32, error) {
	if tens < 0 || tens > 9 {
		return 0, fmt.Errorf("%w: tens=%d", ErrDigitRange, tens)
	}
	if ones < 0 || ones > 9 {
		return 0, fmt.Errorf("%w: ones=%d", ErrDigitRange, ones)
	}
	if tens+ones > MaxSymbols {
		return 0, fmt.Errorf("%w: %d symbols", ErrSymbolBudget, tens+ones)
	}
	return 1<<uint(tens+ones) + ((1<<uint(tens))-1)<<uint(ones), nil
}

// EncodeCode builds the pattern for a two-digit code in 0..99.
// Code 0 encodes to just the framing bit; callers normally special-case
// it as "no active condition" before it reaches the transmitter.
func EncodeCode(code int) (uint32, error) {
	if code < 0 || code > 99 {
		return 0, fmt.Errorf("%w: %d", ErrCodeRange, code)
	}
	return Encode(code/10, code%10)
}

// Decode recovers the digit pair from a pattern. The most significant
// set bit is the framing bit and is discarded; the remaining bits must
// be all 1s followed by all 0s.
func Decode(pattern uint32) (tens, ones int, err error) {
	if pattern == 0 {
		return 0, 0, fmt.Errorf("%w: no framing bit", ErrBadPattern)
	}

	// Bits below the framing bit, walked most-significant first.
	width := bits.Len32(pattern) - 1
	data := pattern & (1<<uint(width) - 1)

	inOnes := false
	for i := width - 1; i >= 0; i-- {
		bit := data>>uint(i)&1 == 1
		switch {
		case bit && !inOnes:
			tens++
		case !bit:
			inOnes = true
			ones++
		default:
			// A 1 after a 0: not producible by Encode.
			return 0, 0, fmt.Errorf("%w: %#b", ErrBadPattern, pattern)
		}
	}
	return tens, ones, nil
}
