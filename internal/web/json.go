package web

import (
	"encoding/json"

	"github.com/sweeney/sump-sentry/internal/status"
)

// StatusJSON is the JSON representation of the daemon status.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner wraps the shared snapshot form with daemon config.
type StatusInner struct {
	status.SnapshotJSON
	Config ConfigJSON `json:"config"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	AlarmTickUs int64  `json:"alarm_tick_us"`
	BlinkTickMs int64  `json:"blink_tick_ms"`
	LinkPollMs  int64  `json:"link_poll_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	FeedAddr    string `json:"feed_addr"`
	PollerOn    bool   `json:"poller_enabled"`
}

func formatJSON(snap status.Snapshot) []byte {
	sj := StatusJSON{
		Status: StatusInner{
			SnapshotJSON: status.SnapshotToJSON(snap),
			Config: ConfigJSON{
				AlarmTickUs: snap.Config.AlarmTickUs,
				BlinkTickMs: snap.Config.BlinkTickMs,
				LinkPollMs:  snap.Config.LinkPollMs,
				Broker:      snap.Config.Broker,
				HTTPAddr:    snap.Config.HTTPAddr,
				FeedAddr:    snap.Config.FeedAddr,
				PollerOn:    snap.Config.PollerOn,
			},
		},
	}

	data, _ := json.MarshalIndent(sj, "", "  ")
	return data
}
