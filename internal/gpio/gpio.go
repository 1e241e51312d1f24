// Package gpio provides GPIO line access with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementations allow testing without hardware.
package gpio

// Input reads the electrical level of one GPIO input line.
type Input interface {
	// Value returns the current level of the line (high = true).
	// Polarity handling (active-low switches) is the caller's concern.
	Value() (bool, error)

	// Close releases the line.
	Close() error
}

// Output drives the level of one GPIO output line.
type Output interface {
	// Set drives the line high (true) or low (false).
	Set(level bool) error

	// Close releases the line. The line is driven low first so an
	// alarm or status LED never sticks on across a restart.
	Close() error
}

// Default pin assignments (BCM numbering) for the reference board: two
// sump switch inputs with paired alarm LEDs, one shared diagnostic LED
// and one link LED.
const (
	DefaultPinSump1      = 12
	DefaultPinAlarm1     = 13
	DefaultPinSump2      = 14
	DefaultPinAlarm2     = 15
	DefaultPinDiagnostic = 19
	DefaultPinLink       = 18
)
