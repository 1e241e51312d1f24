// Package status provides a thread-safe status tracker for the
// sump-sentry daemon. It is read by the HTTP handlers and folded into
// system event payloads; nothing in the alarm or blink paths depends
// on it.
package status

import (
	"sync"
	"time"
)

// SensorStatus is one sensor's reported state.
type SensorStatus struct {
	Name  string
	State string // IDLE or TRIPPED
	Trips int
}

// Config contains daemon configuration for display.
type Config struct {
	AlarmTickUs int64
	BlinkTickMs int64
	LinkPollMs  int64
	Broker      string
	HTTPAddr    string
	FeedAddr    string
	PollerOn    bool
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Sensors       []SensorStatus
	LinkStatus    string
	LinkCode      int  // code classified from the current link status
	DiagCode      int  // last code actually loaded by the transmitter
	LinkKnown     bool // false until the first successful link poll
	MQTTConnected bool
	FeedClient    string // remote address, empty when none
	StartTime     time.Time
	Now           time.Time
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

// UpdateSensors replaces the sensor states. Called on every report
// tick.
func (t *Tracker) UpdateSensors(sensors []SensorStatus) {
	t.mu.Lock()
	t.snap.Sensors = sensors
	t.mu.Unlock()
}

// SetLink records the link status, its classified code, and the
// transmitter's last loaded code.
func (t *Tracker) SetLink(status string, linkCode, diagCode int) {
	t.mu.Lock()
	t.snap.LinkStatus = status
	t.snap.LinkCode = linkCode
	t.snap.DiagCode = diagCode
	t.snap.LinkKnown = true
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetFeedClient records the connected feed client (empty for none).
func (t *Tracker) SetFeedClient(addr string) {
	t.mu.Lock()
	t.snap.FeedClient = addr
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	sensors := make([]SensorStatus, len(s.Sensors))
	copy(sensors, s.Sensors)
	s.Sensors = sensors
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
