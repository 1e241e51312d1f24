package status

import (
	"encoding/json"
	"time"
)

// StatusEvent is the payload for system events that carry a full
// status snapshot (STARTUP, SHUTDOWN, KEEPALIVE).
type StatusEvent struct {
	System StatusEventInner `json:"system"`
}

// StatusEventInner contains the event fields plus the snapshot.
type StatusEventInner struct {
	Timestamp string       `json:"timestamp"`
	Event     string       `json:"event"`
	Reason    string       `json:"reason,omitempty"`
	Status    SnapshotJSON `json:"status"`
}

// SnapshotJSON is the JSON form of a Snapshot shared by system events
// and the web endpoint.
type SnapshotJSON struct {
	Sensors       []SensorJSON `json:"sensors"`
	Link          LinkJSON     `json:"link"`
	MQTTConnected bool         `json:"mqtt_connected"`
	FeedClient    string       `json:"feed_client,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
}

// SensorJSON is the JSON form of one sensor's state.
type SensorJSON struct {
	Name  string `json:"name"`
	State string `json:"state"`
	Trips int    `json:"trips"`
}

// LinkJSON is the JSON form of the link condition.
type LinkJSON struct {
	Status   string `json:"status"`
	Code     int    `json:"code"`
	DiagCode int    `json:"diag_code"`
}

// SnapshotToJSON converts a Snapshot into its JSON form.
func SnapshotToJSON(snap Snapshot) SnapshotJSON {
	sensors := make([]SensorJSON, 0, len(snap.Sensors))
	for _, s := range snap.Sensors {
		state := s.State
		if state == "" {
			state = "UNKNOWN"
		}
		sensors = append(sensors, SensorJSON{Name: s.Name, State: state, Trips: s.Trips})
	}

	linkStatus := snap.LinkStatus
	if !snap.LinkKnown {
		linkStatus = "UNKNOWN"
	}

	return SnapshotJSON{
		Sensors:       sensors,
		Link:          LinkJSON{Status: linkStatus, Code: snap.LinkCode, DiagCode: snap.DiagCode},
		MQTTConnected: snap.MQTTConnected,
		FeedClient:    snap.FeedClient,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
	}
}

// FormatStatusEvent builds the JSON payload for a system event carrying
// the full snapshot.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	payload := StatusEvent{
		System: StatusEventInner{
			Timestamp: snap.Now.UTC().Format(time.RFC3339),
			Event:     event,
			Reason:    reason,
			Status:    SnapshotToJSON(snap),
		},
	}
	data, _ := json.Marshal(payload)
	return data
}
