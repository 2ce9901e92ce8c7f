// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/dcf77-receiver/internal/dcf77"
)

// Topic is the MQTT topic for decoded time telegrams.
const Topic = "clock/dcf77/time"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "clock/dcf77/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// PublishTime sends a decoded time telegram to the broker.
	// Returns error if publishing fails (should not crash the process).
	PublishTime(event TimeEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// TimeEvent represents one validated minute telegram.
type TimeEvent struct {
	Timestamp time.Time      // wall time at which the decode was reported
	Anchor    time.Time      // wall-clock estimate of the minute boundary
	Quality   string         // "complete" or "time_and_date"
	Telegram  dcf77.Telegram // the validated telegram
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	DCF77 TimePayload `json:"dcf77"`
}

// TimePayload contains the decoded telegram details.
type TimePayload struct {
	Timestamp           string `json:"timestamp"`
	Anchor              string `json:"anchor"`
	Quality             string `json:"quality"`
	Time                string `json:"time"`
	Minute              uint8  `json:"minute"`
	Hour                uint8  `json:"hour"`
	Day                 uint8  `json:"day"`
	Weekday             uint8  `json:"weekday"`
	Month               uint8  `json:"month"`
	Year                uint16 `json:"year"`
	CEST                bool   `json:"cest"`
	CET                 bool   `json:"cet"`
	DSTChangeAnnounced  bool   `json:"dst_change_announced"`
	LeapSecondAnnounced bool   `json:"leap_second_announced"`
	CallBit             bool   `json:"call_bit"`
}

// FormatTimePayload creates the JSON payload for a decoded time event.
func FormatTimePayload(event TimeEvent) ([]byte, error) {
	tg := event.Telegram
	payload := Payload{
		DCF77: TimePayload{
			Timestamp:           event.Timestamp.UTC().Format(time.RFC3339),
			Anchor:              event.Anchor.UTC().Format(time.RFC3339Nano),
			Quality:             event.Quality,
			Time:                tg.Time().Format(time.RFC3339),
			Minute:              tg.Minute(),
			Hour:                tg.Hour(),
			Day:                 tg.Day(),
			Weekday:             tg.Weekday(),
			Month:               tg.Month(),
			Year:                tg.Year(),
			CEST:                tg.CEST(),
			CET:                 tg.CET(),
			DSTChangeAnnounced:  tg.DSTAnnounced(),
			LeapSecondAnnounced: tg.LeapSecondAnnounced(),
			CallBit:             tg.CallBit(),
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
