package dcf77

// Result describes what a call to Decoder.Sample produced.
type Result int8

const (
	// ResultInvalid is declared for completeness but never returned by the
	// current algorithm: a boundary whose telegram fails validation is
	// reported as ResultNone, indistinguishable from "no boundary seen".
	ResultInvalid Result = -1

	// ResultNone means no new telegram is available.
	ResultNone Result = 0

	// ResultTimeAndDate means a partial capture validated: time and date
	// are good but the leading flag bits of the minute were missed.
	ResultTimeAndDate Result = 1

	// ResultComplete means a full 59-bit telegram validated.
	ResultComplete Result = 2
)

// String returns the result name for logging.
func (r Result) String() string {
	switch r {
	case ResultInvalid:
		return "invalid"
	case ResultNone:
		return "none"
	case ResultTimeAndDate:
		return "time_and_date"
	case ResultComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Protocol timing, all in milliseconds. These are intrinsic to the DCF77
// modulation scheme and not configurable.
const (
	// slack is subtracted from every nominal threshold so that pulses
	// shortened by filter lag are still classified correctly.
	slack = 50

	// syncHighTime is the elongated high phase marking a minute boundary:
	// second 59 carries no pulse, so the carrier stays high from the end of
	// second 58's pulse to the start of second 0.
	syncHighTime = 1800

	// lowZeroTime is the reduced-amplitude duration encoding a zero bit.
	lowZeroTime = 100

	// lowOneTime is the reduced-amplitude duration encoding a one bit.
	lowOneTime = 200

	// telegramBits is the number of bits in one minute's telegram.
	telegramBits = 59
)

// Decoder turns a raw carrier-amplitude bit stream into validated
// telegrams. It debounces the input, measures the interval between
// successive edges, accumulates one bit per second into a working register
// and validates the register at each minute boundary.
//
// The decoder is call-driven and single-threaded: feed it one sample per
// millisecond tick from one goroutine. It runs indefinitely and self-heals
// at the next minute boundary after any malformed minute.
type Decoder struct {
	filter *Debounce

	// phase is the tick of the falling edge that started second 0 of the
	// last validated minute. Only updated on successful validation.
	phase uint16

	// lastEdge is the tick of the previous edge of either polarity.
	lastEdge uint16

	working  Telegram
	current  Telegram
	bitIndex uint8
}

// NewDecoder creates a decoder whose debounce filter uses the given
// hysteresis byte (see NewDebounce; 64 is a reasonable default).
func NewDecoder(hysteresis uint8) *Decoder {
	return &Decoder{filter: NewDebounce(hysteresis)}
}

// Sample pushes one carrier sample into the decoder. value is true while
// the carrier has full amplitude, false during the once-per-second
// reduction; t is a monotonic millisecond tick, wrapping at 16 bits.
//
// On ResultTimeAndDate or ResultComplete the new record is available from
// Telegram and the boundary tick from Phase.
func (d *Decoder) Sample(value bool, t uint16) Result {
	event := d.filter.Sample(value, t)
	res := ResultNone
	if !event.Edge {
		return res
	}

	dt := event.T - d.lastEdge
	if !event.Value {
		// Falling edge: dt is the duration of the completed high phase. An
		// elongated high phase means second 59 carried no pulse and this
		// edge starts second 0 of a new minute.
		if dt > syncHighTime-slack {
			if d.bitIndex < telegramBits {
				// Partial capture: the decoder started mid-minute. Shift
				// the bits received so far up to their true positions and
				// validate only the time and date fields.
				d.working <<= telegramBits - d.bitIndex
				if d.working.Valid(true) {
					res = ResultTimeAndDate
				}
			} else if d.working.Valid(false) {
				res = ResultComplete
			}
			if res >= ResultTimeAndDate {
				d.current = d.working
				d.phase = event.T
			}
			d.bitIndex = 0
			d.working = 0
		}
	} else {
		// Rising edge: dt is the duration of the completed amplitude
		// reduction. Anything shorter than a zero pulse is noise and
		// consumes no bit.
		if dt > lowZeroTime-slack {
			if dt > lowOneTime-slack {
				d.working.SetBit(d.bitIndex)
			}
			d.bitIndex++
		}
	}
	d.lastEdge = event.T

	return res
}

// Telegram returns the last validated telegram. It is only meaningful after
// Sample has returned ResultTimeAndDate or ResultComplete and stays valid
// until the next successful validation replaces it.
func (d *Decoder) Telegram() Telegram {
	return d.current
}

// Phase returns the tick of the falling edge that ended the last validated
// minute, i.e. the start of second 0 of the following minute.
func (d *Decoder) Phase() uint16 {
	return d.phase
}

// BitCount returns the number of bits accepted since the last minute
// boundary (0 to 59).
func (d *Decoder) BitCount() int {
	return int(d.bitIndex)
}

// Level returns the current debounced carrier level.
func (d *Decoder) Level() bool {
	return d.filter.out.Value
}
