package dcf77

import (
	"math/bits"
	"time"
)

// Telegram is the 59-bit payload transmitted once per minute, stored in a
// 64-bit register. Bit i was received during second i of the minute. The
// field layout below is the authoritative contract; all access goes through
// explicit shifts and masks.
//
//	bit  0      minute start, always 0
//	bits 1-14   auxiliary data (civil warning bits / weather, encrypted)
//	bit  15     call bit (transmitter irregularity)
//	bit  16     DST change announced for the end of this hour
//	bit  17     CEST
//	bit  18     CET
//	bit  19     leap second announced for the end of this hour
//	bit  20     time start, always 1
//	bits 21-27  minute, BCD
//	bit  28     minute parity (even)
//	bits 29-34  hour, BCD
//	bit  35     hour parity (even)
//	bits 36-41  day of month, BCD
//	bits 42-44  day of week, 1=Monday
//	bits 45-49  month, BCD
//	bits 50-57  year within century, BCD
//	bit  58     date parity (even, covers bits 36-57)
type Telegram uint64

const (
	minuteStartBit = 0
	auxDataShift   = 1
	auxDataWidth   = 14
	callBitPos     = 15
	dstAnnounceBit = 16
	cestBit        = 17
	cetBit         = 18
	leapAnnounce   = 19
	timeStartBit   = 20
	minuteShift    = 21
	minuteWidth    = 7
	minuteParity   = 28
	hourShift      = 29
	hourWidth      = 6
	hourParity     = 35
	dayShift       = 36
	dayWidth       = 6
	weekdayShift   = 42
	weekdayWidth   = 3
	monthShift     = 45
	monthWidth     = 5
	yearShift      = 50
	yearWidth      = 8
	dateParity     = 58

	// Bits covered by the date parity: day, day of week, month and year.
	dateFieldShift = dayShift
	dateFieldWidth = dayWidth + weekdayWidth + monthWidth + yearWidth
)

func (tg Telegram) bit(pos uint) bool {
	return tg>>pos&1 == 1
}

func (tg Telegram) field(shift, width uint) uint16 {
	return uint16(tg >> shift & (1<<width - 1))
}

// parity returns the even parity (population count mod 2) of x.
func parity(x uint64) uint8 {
	return uint8(bits.OnesCount64(x) & 1)
}

// decodeBCD converts a two-digit BCD value to binary.
func decodeBCD(v uint8) uint8 {
	return v&0x0F + v>>4*10
}

// validBCD checks that both digits of v are decimal and that v does not
// exceed the two-digit maximum maxHi*10+maxLo.
func validBCD(v, maxHi, maxLo uint8) bool {
	hi := v >> 4
	lo := v & 0x0F
	if hi > 9 || lo > 9 {
		return false
	}
	if hi > maxHi {
		return false
	}
	if hi == maxHi && lo > maxLo {
		return false
	}
	return true
}

// Valid checks the constant flags, the three even parities and the BCD
// ranges of the telegram. With timeAndDateOnly set, the flags in the first
// 20 bits are skipped; this is used for partial captures where the leading
// bits of the minute were never received.
func (tg Telegram) Valid(timeAndDateOnly bool) bool {
	if !timeAndDateOnly {
		if tg.bit(minuteStartBit) {
			return false
		}
		if tg.bit(cestBit) == tg.bit(cetBit) {
			return false
		}
	}
	if !tg.bit(timeStartBit) {
		return false
	}

	minute := uint8(tg.field(minuteShift, minuteWidth))
	hour := uint8(tg.field(hourShift, hourWidth))
	day := uint8(tg.field(dayShift, dayWidth))
	weekday := uint8(tg.field(weekdayShift, weekdayWidth))
	month := uint8(tg.field(monthShift, monthWidth))
	year := uint8(tg.field(yearShift, yearWidth))

	if boolToBit(tg.bit(minuteParity)) != parity(uint64(minute)) {
		return false
	}
	if boolToBit(tg.bit(hourParity)) != parity(uint64(hour)) {
		return false
	}
	if boolToBit(tg.bit(dateParity)) != parity(uint64(tg.field(dateFieldShift, dateFieldWidth))) {
		return false
	}

	return validBCD(minute, 5, 9) &&
		validBCD(hour, 2, 3) &&
		validBCD(day, 3, 1) && day > 0 &&
		weekday > 0 &&
		validBCD(month, 1, 2) && month > 0 &&
		validBCD(year, 9, 9)
}

func boolToBit(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// SetBit sets bit pos of the register. Used by the decoder while a telegram
// is being accumulated.
func (tg *Telegram) SetBit(pos uint8) {
	*tg |= 1 << pos
}

// Minute returns the minute of the hour (0 to 59).
func (tg Telegram) Minute() uint8 {
	return decodeBCD(uint8(tg.field(minuteShift, minuteWidth)))
}

// Hour returns the hour of the day (0 to 23).
func (tg Telegram) Hour() uint8 {
	return decodeBCD(uint8(tg.field(hourShift, hourWidth)))
}

// Day returns the day of the month (1 to 31).
func (tg Telegram) Day() uint8 {
	return decodeBCD(uint8(tg.field(dayShift, dayWidth)))
}

// Weekday returns the day of the week (1 to 7), where 1 is Monday.
func (tg Telegram) Weekday() uint8 {
	return uint8(tg.field(weekdayShift, weekdayWidth))
}

// Month returns the month (1 to 12).
func (tg Telegram) Month() uint8 {
	return decodeBCD(uint8(tg.field(monthShift, monthWidth)))
}

// Year returns the four-digit year. DCF77 only transmits the year within
// the century; the 21st century is assumed.
func (tg Telegram) Year() uint16 {
	return 2000 + uint16(decodeBCD(uint8(tg.field(yearShift, yearWidth))))
}

// CEST reports whether the transmitted time is central european summer time.
func (tg Telegram) CEST() bool {
	return tg.bit(cestBit)
}

// CET reports whether the transmitted time is central european time.
func (tg Telegram) CET() bool {
	return tg.bit(cetBit)
}

// DSTAnnounced reports whether a switch between CET and CEST is announced
// for the end of this hour.
func (tg Telegram) DSTAnnounced() bool {
	return tg.bit(dstAnnounceBit)
}

// LeapSecondAnnounced reports whether this hour ends with a leap second.
func (tg Telegram) LeapSecondAnnounced() bool {
	return tg.bit(leapAnnounce)
}

// CallBit reports the transmitter irregularity flag.
func (tg Telegram) CallBit() bool {
	return tg.bit(callBitPos)
}

// AuxData returns the 14 auxiliary data bits (civil warning / encrypted
// weather data).
func (tg Telegram) AuxData() uint16 {
	return tg.field(auxDataShift, auxDataWidth)
}

// Time maps the telegram to a time.Time in the transmitted zone (CET or
// CEST). The transmitted record has minute precision; seconds are zero.
// For a partial capture the zone flags were not received, in which case CET
// is assumed.
func (tg Telegram) Time() time.Time {
	loc := time.FixedZone("CET", 3600)
	if tg.CEST() {
		loc = time.FixedZone("CEST", 2*3600)
	}
	return time.Date(int(tg.Year()), time.Month(tg.Month()), int(tg.Day()),
		int(tg.Hour()), int(tg.Minute()), 0, 0, loc)
}
