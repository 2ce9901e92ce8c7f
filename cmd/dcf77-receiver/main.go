// Command dcf77-receiver samples a DCF77 receiver module on a GPIO pin,
// decodes the time telegram and publishes validated minutes to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/dcf77-receiver/internal/dcf77"
	"github.com/sweeney/dcf77-receiver/internal/gpio"
	"github.com/sweeney/dcf77-receiver/internal/mqtt"
	"github.com/sweeney/dcf77-receiver/internal/status"
	"github.com/sweeney/dcf77-receiver/internal/web"
)

func main() {
	poll := flag.Duration("poll", time.Millisecond, "GPIO sampling interval")
	hysteresis := flag.Int("hysteresis", 64, "Debounce hysteresis byte (0-255)")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	pin := flag.Int("pin", gpio.DefaultPin, "BCM pin number of the receiver output")
	invert := flag.Bool("invert", false, "Invert the receiver output (open-collector modules)")
	printSignal := flag.Bool("print-signal", false, "Print current carrier level and exit")
	httpAddr := flag.String("http", ":80", "HTTP status address (empty to disable)")
	wsBroker := flag.String("ws-broker", "=broker", `MQTT websocket URL for live UI ("=broker" derives from --broker, "off" disables)`)

	flag.Parse()

	if *hysteresis < 0 || *hysteresis > 255 {
		log.Fatalf("fatal: hysteresis %d out of range 0-255", *hysteresis)
	}

	ws := resolveWSBroker(*wsBroker, *broker)
	if err := run(*poll, uint8(*hysteresis), *broker, *heartbeat, *pin, *invert, *printSignal, *httpAddr, ws); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(poll time.Duration, hysteresis uint8, broker string, heartbeat time.Duration, pin int, invert, printSignal bool, httpAddr, wsBroker string) error {
	// Initialize GPIO
	gpioReader, err := gpio.NewRealReader(pin, invert)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer gpioReader.Close()

	// Print signal mode
	if printSignal {
		level, err := gpioReader.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Printf("carrier: %s\n", levelString(level))
		return nil
	}

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(broker)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      poll.Milliseconds(),
		Hysteresis:  int(hysteresis),
		HeartbeatMs: heartbeat.Milliseconds(),
		Broker:      broker,
		HTTPPort:    httpAddr,
		WSBroker:    wsBroker,
		Pin:         pin,
		Invert:      invert,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if httpAddr != "" {
		srv := web.New(httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", httpAddr)
	}

	log.Printf("started: poll=%v hysteresis=%d pin=%d broker=%s heartbeat=%v", poll, hysteresis, pin, broker, heartbeat)

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(gpioReader, publisher, publisher, tracker, hysteresis, heartbeat, time.Now, ticker.C, sigCh)
}

func runLoop(gpioReader gpio.Reader, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, hysteresis uint8, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	decoder := dcf77.NewDecoder(hysteresis)
	lastHeartbeat := now()
	lastLevel := false
	lastBits := 0

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			level, err := gpioReader.Read()
			if err != nil {
				log.Printf("gpio read error: %v", err)
				continue
			}

			tickMs := uint16(t.UnixMilli())
			res := decoder.Sample(level, tickMs)

			if res == dcf77.ResultTimeAndDate || res == dcf77.ResultComplete {
				telegram := decoder.Telegram()
				anchor := anchorTime(t, tickMs, decoder.Phase())
				log.Printf("decoded %s (%s)", telegram.Time().Format("2006-01-02 15:04 MST"), res)

				event := mqtt.TimeEvent{
					Timestamp: t,
					Anchor:    anchor,
					Quality:   res.String(),
					Telegram:  telegram,
				}
				if err := publisher.PublishTime(event); err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}

				if tracker != nil {
					tracker.RecordDecode(res.String(), telegram.Time(), anchor)
				}
				web.ObserveDecode(res.String(), anchor)
			}

			// Update status tracker for HTTP consumers. Only on change, the
			// loop runs at 1 kHz.
			if lvl, bits := decoder.Level(), decoder.BitCount(); tracker != nil && (lvl != lastLevel || bits != lastBits) {
				tracker.UpdateSignal(lvl, bits)
				web.SetSignal(lvl)
				lastLevel = lvl
				lastBits = bits
			}

			// Check for heartbeat
			if heartbeat > 0 && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t
				hbEvent := mqtt.SystemEvent{
					Timestamp: t,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					if mqttStatus != nil {
						connected := mqttStatus.IsConnected()
						tracker.SetMQTTConnected(connected)
						web.SetMQTTConnected(connected)
					}
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
					log.Printf("heartbeat: uptime=%v complete=%d time_and_date=%d",
						snap.Uptime().Truncate(time.Second), snap.Counts.Complete, snap.Counts.TimeAndDate)
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

// anchorTime converts the decoder's 16-bit boundary tick back to a wall-clock
// instant. The boundary happened (nowTick - phase) mod 2^16 milliseconds ago;
// boundaries are reported on the tick they occur, so the difference is far
// below the 65.5 s wrap period.
func anchorTime(t time.Time, nowTick, phase uint16) time.Time {
	return t.Add(-time.Duration(nowTick-phase) * time.Millisecond)
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

func levelString(high bool) string {
	if high {
		return "HIGH"
	}
	return "LOW"
}

// resolveWSBroker converts the --ws-broker flag value into a concrete URL.
// "=broker" derives ws://host:9001 from the TCP broker address; empty disables.
func resolveWSBroker(ws, broker string) string {
	if ws == "off" {
		return ""
	}
	if ws != "=broker" {
		return ws
	}
	u, err := url.Parse(broker)
	if err != nil {
		log.Printf("ws-broker: cannot parse --broker %q: %v", broker, err)
		return ""
	}
	u.Scheme = "ws"
	u.Host = u.Hostname() + ":9001"
	return u.String()
}
