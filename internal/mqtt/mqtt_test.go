package mqtt

import (
	"encoding/json"
	"errors"
	"math/bits"
	"testing"
	"time"

	"github.com/sweeney/dcf77-receiver/internal/dcf77"
)

// buildTelegram assembles a valid telegram using the documented bit layout.
func buildTelegram(minute, hour, day, weekday, month, year int, cest bool) dcf77.Telegram {
	bcd := func(v int) uint64 { return uint64(v%10) | uint64(v/10)<<4 }
	var u uint64
	u |= 1 << 20 // time start
	if cest {
		u |= 1 << 17
	} else {
		u |= 1 << 18
	}
	u |= bcd(minute) << 21
	u |= bcd(hour) << 29
	u |= bcd(day) << 36
	u |= uint64(weekday) << 42
	u |= bcd(month) << 45
	u |= bcd(year) << 50
	if bits.OnesCount64(u>>21&0x7F)%2 == 1 {
		u |= 1 << 28
	}
	if bits.OnesCount64(u>>29&0x3F)%2 == 1 {
		u |= 1 << 35
	}
	if bits.OnesCount64(u>>36&0x3FFFFF)%2 == 1 {
		u |= 1 << 58
	}
	return dcf77.Telegram(u)
}

func TestFormatTimePayload(t *testing.T) {
	event := TimeEvent{
		Timestamp: time.Date(2026, 8, 25, 8, 43, 1, 0, time.UTC),
		Anchor:    time.Date(2026, 8, 25, 8, 43, 0, 12000000, time.UTC),
		Quality:   "complete",
		Telegram:  buildTelegram(42, 10, 25, 2, 8, 26, true),
	}

	payload, err := FormatTimePayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	p := parsed.DCF77
	if p.Timestamp != "2026-08-25T08:43:01Z" {
		t.Errorf("unexpected timestamp: %s", p.Timestamp)
	}
	if p.Anchor != "2026-08-25T08:43:00.012Z" {
		t.Errorf("unexpected anchor: %s", p.Anchor)
	}
	if p.Quality != "complete" {
		t.Errorf("unexpected quality: %s", p.Quality)
	}
	if p.Time != "2026-08-25T10:42:00+02:00" {
		t.Errorf("unexpected decoded time: %s", p.Time)
	}
	if p.Minute != 42 || p.Hour != 10 || p.Day != 25 || p.Weekday != 2 || p.Month != 8 || p.Year != 2026 {
		t.Errorf("unexpected fields: %+v", p)
	}
	if !p.CEST || p.CET {
		t.Errorf("unexpected zone flags: CEST=%v CET=%v", p.CEST, p.CET)
	}
	if p.DSTChangeAnnounced || p.LeapSecondAnnounced || p.CallBit {
		t.Errorf("unexpected announcement flags: %+v", p)
	}
}

func TestFormatSystemPayload(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed SystemPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.System.Timestamp != "2026-02-02T22:18:12Z" {
		t.Errorf("unexpected timestamp: %s", parsed.System.Timestamp)
	}
	if parsed.System.Event != "SHUTDOWN" {
		t.Errorf("unexpected event: %s", parsed.System.Event)
	}
	if parsed.System.Reason != "SIGTERM" {
		t.Errorf("unexpected reason: %s", parsed.System.Reason)
	}
}

func TestFormatSystemPayloadOmitsEmptyReason(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Now(),
		Event:     "HEARTBEAT",
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var raw map[string]map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := raw["system"]["reason"]; ok {
		t.Error("empty reason should be omitted")
	}
}

func TestFormatSystemPayloadRawPassthrough(t *testing.T) {
	raw := []byte(`{"status":{"event":"STARTUP"}}`)
	payload, err := FormatSystemPayload(SystemEvent{RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("raw payload not passed through: %s", payload)
	}
}

func TestFakePublisherRecords(t *testing.T) {
	f := NewFakePublisher()

	event := TimeEvent{
		Timestamp: time.Now(),
		Anchor:    time.Now(),
		Quality:   "time_and_date",
		Telegram:  buildTelegram(5, 23, 31, 7, 12, 26, false),
	}
	if err := f.PublishTime(event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.TimeEvents) != 1 || len(f.Payloads) != 1 {
		t.Fatalf("expected 1 recorded event, got %d/%d", len(f.TimeEvents), len(f.Payloads))
	}
	if f.TimeEvents[0].Quality != "time_and_date" {
		t.Errorf("unexpected quality: %s", f.TimeEvents[0].Quality)
	}

	if err := f.PublishSystem(SystemEvent{Event: "STARTUP"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(f.SystemEvents))
	}

	f.Close()
	if !f.Closed {
		t.Error("expected Closed after Close")
	}

	f.Reset()
	if len(f.TimeEvents) != 0 || len(f.SystemEvents) != 0 || f.Closed {
		t.Error("Reset did not clear state")
	}
}

func TestFakePublisherErrors(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("time boom")
	f.PublishSystemError = errors.New("system boom")

	if err := f.PublishTime(TimeEvent{}); err == nil {
		t.Error("expected configured publish error")
	}
	if err := f.PublishSystem(SystemEvent{}); err == nil {
		t.Error("expected configured system publish error")
	}
	if len(f.TimeEvents) != 0 || len(f.SystemEvents) != 0 {
		t.Error("failed publishes must not be recorded")
	}
}
