// Package gpio provides GPIO input reading with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Reader reads the DCF77 receiver module's demodulated output.
type Reader interface {
	// Read returns the current carrier level: true while the carrier has
	// full amplitude, false during the once-per-second reduction.
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// DefaultPin is the BCM pin number the receiver module's TCO output is
// wired to.
const DefaultPin = 4
