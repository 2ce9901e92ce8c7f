// Package dcf77 decodes the time telegram broadcast by the DCF77 long-wave
// transmitter in Mainflingen, Germany (77.5 kHz). The carrier amplitude is
// reduced once per second; the length of the reduction encodes one bit, and
// the missing reduction in second 59 marks the minute boundary.
//
// This package is pure decode logic with NO external dependencies (no GPIO,
// MQTT, OS, or time.Sleep). The caller feeds one sample per millisecond tick
// together with a 16-bit millisecond timestamp; timestamps wrap and are only
// ever compared modulo 2^16.
package dcf77

// Fixed-point single-pole low-pass filter. One byte of precision with a
// base of 2^7 leaves enough headroom that the update never locks up from
// rounding.
const (
	fixedPointLog2 = 7
	fixedPointBase = 1 << fixedPointLog2

	// Filter coefficient 0.97 in fixed point.
	filterF1 = fixedPointBase * 97 / 100
	filterF2 = fixedPointBase - filterF1
)

// filterStep advances the accumulator one tick toward full scale (ctrl
// true) or zero (ctrl false).
func filterStep(ctrl bool, x uint8) uint8 {
	v := uint16(x) * filterF1
	if ctrl {
		v += filterF2 << fixedPointLog2
	}
	return uint8(v >> fixedPointLog2)
}

// converge iterates the filter from midscale until it reaches a stable
// fixed point. Because of fixed-point truncation the extrema are not
// exactly 0 and fixedPointBase; deriving them from the coefficient keeps
// the hysteresis scaling proportional if the coefficient ever changes.
func converge(ctrl bool) uint8 {
	x := uint8(fixedPointBase / 2)
	for {
		next := filterStep(ctrl, x)
		if next == x {
			return x
		}
		x = next
	}
}

var (
	filterMax = converge(true)
	filterMin = converge(false)
)

// Edge is the per-tick output of the debounce filter.
type Edge struct {
	// T is the tick at which the transition occurred. On an edge this is
	// the timestamp of the last raw input flip, not the tick at which the
	// filtered value crossed its threshold — the decoder's timing
	// thresholds are calibrated against the transmitter's nominal pulse
	// widths, and the filter settling time would bias every interval.
	T uint16

	// Value is the current debounced output level.
	Value bool

	// Edge is true if Value changed on this tick.
	Edge bool
}

// Debounce is a digital low-pass filter with a Schmitt trigger of
// configurable hysteresis. It cleans up a noisy input level and recovers
// the phase of the original transitions.
type Debounce struct {
	lowPass    uint8
	lastT      uint16
	lastChange uint16
	hysteresis uint8
	lastInput  bool
	out        Edge
}

// NewDebounce creates a filter with the given hysteresis byte. The byte is
// scaled to the filter's dynamic range: with the default of 64 (25%) the
// output switches high once the accumulator rises above 75% of full scale,
// and low once it falls below 25%. Larger values widen the switching band,
// so the output reacts sooner after a transition.
func NewDebounce(hysteresis uint8) *Debounce {
	return &Debounce{
		lowPass:    fixedPointBase / 2,
		hysteresis: uint8(uint16(hysteresis) * uint16(filterMax-filterMin) >> 8),
	}
}

// Sample processes one input sample at tick t. Gaps since the previous call
// are collapsed into repeated filter steps, stopping early once the
// accumulator stops moving.
func (d *Debounce) Sample(value bool, t uint16) Edge {
	dt := t - d.lastT
	prev := d.lowPass
	for i := uint16(0); i < dt; i++ {
		d.lowPass = filterStep(value, d.lowPass)
		if d.lowPass == prev {
			break
		}
		prev = d.lowPass
	}

	if value != d.lastInput {
		d.lastChange = t
	}

	switch {
	case !d.out.Value && d.lowPass > filterMax-d.hysteresis:
		d.out = Edge{T: d.lastChange, Value: true, Edge: true}
	case d.out.Value && d.lowPass < filterMin+d.hysteresis:
		d.out = Edge{T: d.lastChange, Value: false, Edge: true}
	default:
		d.out.Edge = false
	}

	d.lastT = t
	d.lastInput = value

	return d.out
}
