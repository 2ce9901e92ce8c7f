package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/dcf77-receiver/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"clock": func(t time.Time) string {
		return t.Format("15:04 MST")
	},
	"date": func(t time.Time) string {
		return t.Format("Mon 2006-01-02")
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>DCF77 Receiver</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.clock { font-size: 2.4em; margin: 0.4em 0 0.1em; }
.synced { color: green; font-weight: bold; }
.unsynced { color: orange; }
.high { color: green; }
.low { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>DCF77 Receiver{{if .Config.WSBroker}}<span id="live-dot" class="live-dot pending" title="connecting"></span>{{end}}</h1>

{{if .Synced}}
<div class="clock" id="clock-time">{{clock .LastTime}}</div>
<div id="clock-date">{{date .LastTime}}</div>
{{else}}
<div class="clock unsynced">--:--</div>
<div>waiting for first telegram</div>
{{end}}

<h2>Reception</h2>
<table>
<tr><th>Synced</th><td class="{{if .Synced}}synced{{else}}unsynced{{end}}">{{if .Synced}}yes{{else}}no{{end}}</td></tr>
{{if .Synced}}<tr><th>Quality</th><td id="quality">{{.LastQuality}}</td></tr>
<tr><th>Minute anchor</th><td>{{.LastAnchor.UTC.Format "2006-01-02T15:04:05.000Z"}}</td></tr>{{end}}
<tr><th>Carrier</th><td class="{{if .Signal}}high{{else}}low{{end}}">{{if .Signal}}HIGH{{else}}LOW{{end}}</td></tr>
<tr><th>Bits this minute</th><td>{{.BitCount}} / 59</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}} — {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Decode Counts</h2>
<table>
<tr><th>Complete</th><td>{{.Counts.Complete}}</td></tr>
<tr><th>Time and date only</th><td>{{.Counts.TimeAndDate}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Hysteresis</th><td>{{.Config.Hysteresis}}</td></tr>
<tr><th>Receiver pin</th><td>BCM {{.Config.Pin}}{{if .Config.Invert}} (inverted){{end}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> &middot; <a href="/metrics">metrics</a></p>
{{if .Config.WSBroker}}
<script src="/mqtt.min.js"></script>
<script>
(function() {
  var broker = "{{.Config.WSBroker}}";
  var topic = "clock/dcf77/time";
  var dot = document.getElementById("live-dot");
  var timeEl = document.getElementById("clock-time");
  var dateEl = document.getElementById("clock-date");
  var qualityEl = document.getElementById("quality");

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  var client = mqtt.connect(broker, { reconnectPeriod: 5000 });

  client.on("connect", function() {
    setDot("ok", "live");
    client.subscribe(topic);
  });

  client.on("reconnect", function() {
    setDot("pending", "reconnecting");
  });

  client.on("offline", function() {
    setDot("err", "offline");
  });

  client.on("error", function() {
    setDot("err", "error");
  });

  client.on("message", function(t, payload) {
    try {
      var msg = JSON.parse(payload.toString());
      if (msg.dcf77 && timeEl) {
        var d = new Date(msg.dcf77.time);
        timeEl.textContent = msg.dcf77.time.substring(11, 16) + (msg.dcf77.cest ? " CEST" : " CET");
        dateEl.textContent = d.toDateString();
        if (qualityEl) qualityEl.textContent = msg.dcf77.quality;
      }
    } catch (e) {}
  });
})();
</script>
{{end}}
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
