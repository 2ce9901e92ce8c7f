package dcf77

import (
	"testing"
	"time"
)

func bcdEnc(v uint8) uint64 {
	return uint64(v%10) | uint64(v/10)<<4
}

// makeTelegram builds a structurally valid telegram with correct parities.
func makeTelegram(minute, hour, day, weekday, month, year uint8, cest bool) Telegram {
	var tg Telegram
	tg |= 1 << timeStartBit
	if cest {
		tg |= 1 << cestBit
	} else {
		tg |= 1 << cetBit
	}
	tg |= Telegram(bcdEnc(minute) << minuteShift)
	tg |= Telegram(bcdEnc(hour) << hourShift)
	tg |= Telegram(bcdEnc(day) << dayShift)
	tg |= Telegram(uint64(weekday) << weekdayShift)
	tg |= Telegram(bcdEnc(month) << monthShift)
	tg |= Telegram(bcdEnc(year) << yearShift)
	if parity(uint64(tg.field(minuteShift, minuteWidth))) == 1 {
		tg |= 1 << minuteParity
	}
	if parity(uint64(tg.field(hourShift, hourWidth))) == 1 {
		tg |= 1 << hourParity
	}
	if parity(uint64(tg.field(dateFieldShift, dateFieldWidth))) == 1 {
		tg |= 1 << dateParity
	}
	return tg
}

func TestDecodeBCD(t *testing.T) {
	cases := []struct {
		in   uint8
		want uint8
	}{
		{0x00, 0},
		{0x09, 9},
		{0x10, 10},
		{0x25, 25},
		{0x59, 59},
		{0x99, 99},
	}
	for _, c := range cases {
		if got := decodeBCD(c.in); got != c.want {
			t.Errorf("decodeBCD(%#x): got %d, want %d", c.in, got, c.want)
		}
	}
}

func TestValidBCD(t *testing.T) {
	cases := []struct {
		v, maxHi, maxLo uint8
		want            bool
	}{
		{0x59, 5, 9, true},
		{0x60, 5, 9, false}, // first digit above max
		{0x5A, 5, 9, false}, // second digit not decimal
		{0xA0, 5, 9, false}, // first digit not decimal
		{0x23, 2, 3, true},
		{0x24, 2, 3, false}, // hour 24
		{0x19, 2, 3, true},  // hi below max, lo unconstrained
		{0x31, 3, 1, true},
		{0x32, 3, 1, false}, // day 32
	}
	for _, c := range cases {
		if got := validBCD(c.v, c.maxHi, c.maxLo); got != c.want {
			t.Errorf("validBCD(%#x, %d, %d): got %v, want %v", c.v, c.maxHi, c.maxLo, got, c.want)
		}
	}
}

func TestTelegramAccessors(t *testing.T) {
	// Tuesday 2026-08-25 10:42 CEST.
	tg := makeTelegram(42, 10, 25, 2, 8, 26, true)

	if !tg.Valid(false) {
		t.Fatal("constructed telegram should be valid")
	}
	if got := tg.Minute(); got != 42 {
		t.Errorf("Minute: got %d, want 42", got)
	}
	if got := tg.Hour(); got != 10 {
		t.Errorf("Hour: got %d, want 10", got)
	}
	if got := tg.Day(); got != 25 {
		t.Errorf("Day: got %d, want 25", got)
	}
	if got := tg.Weekday(); got != 2 {
		t.Errorf("Weekday: got %d, want 2", got)
	}
	if got := tg.Month(); got != 8 {
		t.Errorf("Month: got %d, want 8", got)
	}
	if got := tg.Year(); got != 2026 {
		t.Errorf("Year: got %d, want 2026", got)
	}
	if !tg.CEST() || tg.CET() {
		t.Error("expected CEST set and CET clear")
	}
	if tg.DSTAnnounced() || tg.LeapSecondAnnounced() || tg.CallBit() {
		t.Error("announcement and call flags should be clear")
	}
	if tg.AuxData() != 0 {
		t.Errorf("AuxData: got %#x, want 0", tg.AuxData())
	}
}

func TestTelegramTime(t *testing.T) {
	tg := makeTelegram(42, 10, 25, 2, 8, 26, true)
	got := tg.Time()
	want := time.Date(2026, time.August, 25, 10, 42, 0, 0, time.FixedZone("CEST", 2*3600))
	if !got.Equal(want) {
		t.Errorf("Time: got %v, want %v", got, want)
	}
	if name, off := got.Zone(); name != "CEST" || off != 2*3600 {
		t.Errorf("zone: got %s/%d, want CEST/7200", name, off)
	}

	winter := makeTelegram(5, 23, 31, 7, 12, 28, false)
	if name, off := winter.Time().Zone(); name != "CET" || off != 3600 {
		t.Errorf("zone: got %s/%d, want CET/3600", name, off)
	}
}

func TestValidRejectsStructuralViolations(t *testing.T) {
	base := makeTelegram(42, 10, 25, 2, 8, 26, true)

	cases := []struct {
		name string
		tg   Telegram
	}{
		{"minute start set", base | 1<<minuteStartBit},
		{"time start clear", base &^ (1 << timeStartBit)},
		{"both zone flags set", base | 1<<cetBit},
		{"no zone flag set", base &^ (1 << cestBit)},
		{"minute parity flipped", base ^ 1<<minuteParity},
		{"hour parity flipped", base ^ 1<<hourParity},
		{"date parity flipped", base ^ 1<<dateParity},
	}
	for _, c := range cases {
		if c.tg.Valid(false) {
			t.Errorf("%s: telegram should be invalid", c.name)
		}
	}
}

func TestValidRejectsBadRanges(t *testing.T) {
	cases := []struct {
		name                                   string
		minute, hour, day, weekday, month, yr  uint8
	}{
		{"minute 60", 60, 10, 25, 2, 8, 26},
		{"hour 24", 42, 24, 25, 2, 8, 26},
		{"day 0", 42, 10, 0, 2, 8, 26},
		{"day 32", 42, 10, 32, 2, 8, 26},
		{"weekday 0", 42, 10, 25, 0, 8, 26},
		{"month 0", 42, 10, 25, 2, 0, 26},
		{"month 13", 42, 10, 25, 2, 13, 26},
	}
	for _, c := range cases {
		tg := makeTelegram(c.minute, c.hour, c.day, c.weekday, c.month, c.yr, true)
		if tg.Valid(false) {
			t.Errorf("%s: telegram should be invalid", c.name)
		}
	}
}

func TestValidTimeAndDateOnlySkipsLeadingFlags(t *testing.T) {
	// Realigned partial captures have zeroed flag bits; those must not be
	// checked, but the time-start flag and all time/date rules still are.
	tg := makeTelegram(42, 10, 25, 2, 8, 26, true)
	partial := tg &^ (1<<minuteStartBit | 1<<cestBit | 1<<cetBit)
	partial |= 1 << minuteStartBit

	if partial.Valid(false) {
		t.Error("telegram with broken flags should fail full validation")
	}
	if !partial.Valid(true) {
		t.Error("time-and-date-only validation should skip the leading flags")
	}

	noTimeStart := partial &^ (1 << timeStartBit)
	if noTimeStart.Valid(true) {
		t.Error("time-start flag must be checked even in partial validation")
	}

	badParity := partial ^ 1<<hourParity
	if badParity.Valid(true) {
		t.Error("parity must be checked in partial validation")
	}
}

func TestSetBit(t *testing.T) {
	var tg Telegram
	tg.SetBit(timeStartBit)
	tg.SetBit(58)
	if !tg.bit(timeStartBit) || !tg.bit(58) {
		t.Errorf("SetBit: register %#x missing expected bits", uint64(tg))
	}
}
