// Package status provides a thread-safe status tracker for the dcf77-receiver
// daemon. It is designed to be read by HTTP handlers and system event payloads.
package status

import (
	"sync"
	"time"
)

// NetworkInfo contains network state as reported by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	Hysteresis  int
	HeartbeatMs int64
	Broker      string
	HTTPPort    string
	WSBroker    string // Websocket broker URL for browser MQTT (empty = disabled)
	Pin         int
	Invert      bool
}

// Counts tracks decoded minutes by quality since startup.
type Counts struct {
	Complete    int // full 59-bit telegrams
	TimeAndDate int // partial captures with valid time and date
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Synced        bool      // at least one telegram validated since startup
	LastTime      time.Time // civil time of the last validated telegram
	LastQuality   string    // "complete" or "time_and_date"
	LastAnchor    time.Time // wall-clock estimate of the last minute boundary
	Signal        bool      // current debounced carrier level
	BitCount      int       // bits accumulated in the current minute
	Counts        Counts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// RecordDecode registers a validated telegram.
func (t *Tracker) RecordDecode(quality string, decoded, anchor time.Time) {
	t.mu.Lock()
	t.snap.Synced = true
	t.snap.LastQuality = quality
	t.snap.LastTime = decoded
	t.snap.LastAnchor = anchor
	switch quality {
	case "complete":
		t.snap.Counts.Complete++
	case "time_and_date":
		t.snap.Counts.TimeAndDate++
	}
	t.mu.Unlock()
}

// UpdateSignal sets the current carrier level and minute progress.
// Called from the sampling loop.
func (t *Tracker) UpdateSignal(level bool, bitCount int) {
	t.mu.Lock()
	t.snap.Signal = level
	t.snap.BitCount = bitCount
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
