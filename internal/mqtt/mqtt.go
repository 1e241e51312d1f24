// Package mqtt publishes sump events to the house broker, with
// abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/sump-sentry/internal/events"
)

// TopicEvents is the MQTT topic for sensor events.
const TopicEvents = "home/sump/sensor/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "home/sump/sensor/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// PublishSensor sends a sensor transition to the broker.
	// Returns error if publishing fails (must not crash the process).
	PublishSensor(msg events.Message) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event
// (e.g., STARTUP, SHUTDOWN, KEEPALIVE).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "KEEPALIVE"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload is the sensor event message structure.
type Payload struct {
	Sump SumpPayload `json:"sump"`
}

// SumpPayload contains the sensor event details.
type SumpPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Sensor    string `json:"sensor"`
	State     string `json:"state"`
}

// FormatSensorPayload creates the JSON payload for a sensor event.
func FormatSensorPayload(msg events.Message) ([]byte, error) {
	event, state := "CLEARED", "OFF"
	if msg.Tripped {
		event, state = "TRIPPED", "ON"
	}
	payload := Payload{
		Sump: SumpPayload{
			Timestamp: msg.Time.UTC().Format(time.RFC3339),
			Event:     event,
			Sensor:    msg.Name,
			State:     state,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload is the message structure for simple system events that
// don't carry a full status snapshot.
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
// If event.RawPayload is set, it is returned directly (used for full
// status snapshots).
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
