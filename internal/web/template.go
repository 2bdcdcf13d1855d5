package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/moodfuse/internal/log"
	"github.com/sweeney/moodfuse/internal/logic"
	"github.com/sweeney/moodfuse/internal/status"
)

// recentRows is how many ledger entries the page lists.
const recentRows = 10

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
	"duration": status.FormatDuration,
	"recent": func(entries []logic.MoodEntry) []logic.MoodEntry {
		// newest first
		n := len(entries)
		if n > recentRows {
			n = recentRows
		}
		out := make([]logic.MoodEntry, 0, n)
		for i := len(entries) - 1; i >= len(entries)-n; i-- {
			out = append(out, entries[i])
		}
		return out
	},
	"clock": func(t time.Time) string {
		return t.UTC().Format("15:04:05")
	},
	"avg": func(f float64) string {
		return fmt.Sprintf("%.1f", f)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Moodfuse</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.very-positive, .positive { color: green; font-weight: bold; }
.neutral { color: #888; }
.negative { color: orange; font-weight: bold; }
.crisis-none { color: #888; }
.crisis-mild { color: orange; }
.crisis-moderate, .crisis-severe { color: red; font-weight: bold; }
.active, .connected { color: green; }
.idle { color: #888; }
.disabled, .disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Moodfuse{{if .Config.WSBroker}}<span id="live-dot" class="live-dot pending" title="connecting"></span>{{end}}</h1>

<h2>Session</h2>
<table>
<tr><th>User</th><td>{{.Config.UserName}}</td></tr>
<tr><th>Session</th><td>{{.SessionID}}</td></tr>
<tr><th>Duration</th><td>{{duration .Uptime}}</td></tr>
<tr><th>Trend</th><td id="trend" class="{{.Session.Trend}}">{{.Session.Trend}}</td></tr>
<tr><th>Crisis</th><td id="crisis" class="crisis-{{.Session.Crisis.Level}}">{{.Session.Crisis.Level}}</td></tr>
<tr><th>Nudge</th><td>{{if .Session.NudgePending}}pending{{else}}none{{end}}</td></tr>
</table>

<h2>Buddy</h2>
<table>
<tr><th>State</th><td id="pet-state">{{.Session.Pet.State.Visual}}</td></tr>
<tr><th>Mood</th><td id="pet-title">{{.Session.Pet.Title}}</td></tr>
<tr><th>Happiness</th><td id="pet-happiness">{{.Session.Pet.Stats.Happiness}}</td></tr>
<tr><th>Hunger</th><td id="pet-hunger">{{.Session.Pet.Stats.Hunger}}</td></tr>
<tr><th>Energy</th><td id="pet-energy">{{.Session.Pet.Stats.Energy}}</td></tr>
<tr><th>Health</th><td id="pet-health">{{.Session.Pet.Stats.Health}}</td></tr>
</table>

<h2>Mood Ledger</h2>
<table>
<tr><th>Entries</th><td>{{.Session.Ledger.Count}}</td></tr>
<tr><th>Average</th><td>{{avg .Session.Ledger.Average}}</td></tr>
{{range recent .Session.Recent}}<tr><th>{{clock .Timestamp}} {{.Source}}</th><td>{{.Emoji}} {{.Mood}} ({{.Value}})</td></tr>
{{end}}</table>

<h2>Modalities</h2>
<table>
{{range $m, $s := .Modalities}}<tr><th>{{$m}}</th><td class="{{$s.State}}">{{$s.State}}{{if $s.Reason}} ({{$s.Reason}}){{end}}{{if $s.Buffered}}, {{$s.Buffered}} buffered{{end}}</td></tr>
{{end}}<tr><th>Buttons</th><td>{{if .Config.GPIOChip}}{{if .ButtonsBaselined}}ready{{else}}settling{{end}}{{else}}not fitted{{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}{{if .MQTTBuffered}} ({{.MQTTBuffered}} buffered){{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Backend</th><td>{{if .Config.BackendURL}}{{.Config.BackendURL}}{{else}}disabled{{end}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Button entries</th><td>{{.Session.Counts.ButtonEntries}}</td></tr>
<tr><th>Voice entries</th><td>{{.Session.Counts.VoiceEntries}}</td></tr>
<tr><th>Video entries</th><td>{{.Session.Counts.VideoEntries}}</td></tr>
<tr><th>Crisis detections</th><td>{{.Session.Counts.CrisisDetections}}</td></tr>
<tr><th>Nudges</th><td>{{.Session.Counts.NudgesSent}}</td></tr>
<tr><th>Pet actions</th><td>{{.Session.Counts.PetActions}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Decay</th><td>{{.Config.DecayMs}}ms</td></tr>
<tr><th>Nudge delay</th><td>{{.Config.NudgeMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
{{if .Config.WSBroker}}
<script src="https://unpkg.com/mqtt@5/dist/mqtt.min.js"></script>
<script>
(function() {
  var broker = "{{.Config.WSBroker}}";
  var topic = "{{.Config.EventsTopic}}";
  var dot = document.getElementById("live-dot");

  function setText(id, text, cls) {
    var el = document.getElementById(id);
    if (!el) return;
    el.textContent = text;
    if (cls !== undefined) el.className = cls;
  }

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
      var m = msg.mood;
      if (!m) return;
      if (m.trend) setText("trend", m.trend, m.trend);
      if (m.crisis) setText("crisis", m.crisis.level, "crisis-" + m.crisis.level);
      if (m.pet) {
        setText("pet-state", m.pet.visual);
        setText("pet-title", m.pet.title);
        setText("pet-happiness", m.pet.stats.happiness);
        setText("pet-hunger", m.pet.stats.hunger);
        setText("pet-energy", m.pet.stats.energy);
        setText("pet-health", m.pet.stats.health);
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
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Warn("render status page", "error", err)
	}
}
