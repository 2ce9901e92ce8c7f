//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads the receiver pin from actual hardware using the Linux
// GPIO character device.
type RealReader struct {
	chip   *gpiocdev.Chip
	pin    *gpiocdev.Line
	invert bool
}

// NewRealReader creates a GPIO reader for the receiver module's output pin.
// Many DCF77 modules have an open-collector, inverted TCO output; set
// invert for those so that a raised line reads as reduced carrier.
func NewRealReader(pin int, invert bool) (*RealReader, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	// Request the line as input with pull-up: the module's output is
	// open collector and needs the pull to idle high.
	line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request receiver pin %d: %w", pin, err)
	}

	return &RealReader{
		chip:   chip,
		pin:    line,
		invert: invert,
	}, nil
}

// Read returns the carrier level. With invert set, a raw high reads as
// reduced carrier (false).
func (r *RealReader) Read() (bool, error) {
	raw, err := r.pin.Value()
	if err != nil {
		return false, fmt.Errorf("read receiver pin: %w", err)
	}
	high := raw != 0
	if r.invert {
		high = !high
	}
	return high, nil
}

// Close releases GPIO resources. The pin is reconfigured to a plain input
// before closing so the receiver module sees a clean line afterwards.
func (r *RealReader) Close() error {
	var errs []error

	if r.pin != nil {
		if err := r.pin.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure receiver pin: %w", err))
		}
		if err := r.pin.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close receiver pin: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
