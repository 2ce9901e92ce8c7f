package web

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	minutesDecoded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dcf77_minutes_decoded_total",
		Help: "Validated telegrams by decode quality (complete or time_and_date).",
	}, []string{"quality"})

	signalLevel = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dcf77_signal_level",
		Help: "Current debounced carrier level (1 = full amplitude).",
	})

	lastSyncTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dcf77_last_sync_timestamp_seconds",
		Help: "Unix time of the last validated minute boundary.",
	})

	mqttConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dcf77_mqtt_connected",
		Help: "Whether the MQTT broker connection is up.",
	})
)

// ObserveDecode records a validated telegram for the metrics endpoint.
func ObserveDecode(quality string, anchor time.Time) {
	minutesDecoded.WithLabelValues(quality).Inc()
	lastSyncTimestamp.Set(float64(anchor.UnixNano()) / 1e9)
}

// SetSignal records the current debounced carrier level.
func SetSignal(high bool) {
	if high {
		signalLevel.Set(1)
	} else {
		signalLevel.Set(0)
	}
}

// SetMQTTConnected records broker connectivity.
func SetMQTTConnected(connected bool) {
	if connected {
		mqttConnected.Set(1)
	} else {
		mqttConnected.Set(0)
	}
}
