package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/sump-sentry/internal/status"
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
	"stateOrUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Sump Sentry</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.tripped { color: red; font-weight: bold; }
.idle { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Sump Sentry</h1>

<h2>Sensors</h2>
<table>
<tr><th>Sensor</th><th>State</th><th>Trips</th></tr>
{{range .Sensors}}<tr>
<td>{{.Name}}</td>
<td class="{{if eq (stateOrUnknown .State) "TRIPPED"}}tripped{{else if eq (stateOrUnknown .State) "IDLE"}}idle{{else}}unknown{{end}}">{{stateOrUnknown .State}}</td>
<td>{{.Trips}}</td>
</tr>{{end}}
</table>

<h2>Diagnostics</h2>
<table>
<tr><th>Link</th><td>{{if .LinkKnown}}{{.LinkStatus}}{{else}}UNKNOWN{{end}}</td></tr>
<tr><th>Link code</th><td>{{.LinkCode}}</td></tr>
<tr><th>Blinking</th><td>{{if eq .DiagCode 0}}heartbeat{{else}}code {{.DiagCode}}{{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Feed client</th><td>{{if .FeedClient}}{{.FeedClient}}{{else}}none{{end}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Alarm tick</th><td>{{.Config.AlarmTickUs}}µs</td></tr>
<tr><th>Blink tick</th><td>{{.Config.BlinkTickMs}}ms</td></tr>
<tr><th>Link poll</th><td>{{.Config.LinkPollMs}}ms</td></tr>
<tr><th>Poller</th><td>{{if .Config.PollerOn}}enabled{{else}}disabled{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
<tr><th>Feed</th><td>{{if .Config.FeedAddr}}{{.Config.FeedAddr}}{{else}}disabled{{end}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but the template needs a Duration
	// field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
