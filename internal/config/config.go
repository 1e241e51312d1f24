// Package config loads and validates the daemon's YAML configuration.
// Everything has a default matching the reference board, so the daemon
// also runs with no file at all.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/sump-sentry/internal/gpio"
)

// Config is the root of the YAML document.
type Config struct {
	Sensors    []SensorConfig   `yaml:"sensors"`
	Alarm      AlarmConfig      `yaml:"alarm"`
	Diagnostic DiagnosticConfig `yaml:"diagnostic"`
	Link       LinkConfig       `yaml:"link"`
	Poller     PollerConfig     `yaml:"poller"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	Feed       FeedConfig       `yaml:"feed"`
	HTTP       HTTPConfig       `yaml:"http"`
}

// SensorConfig describes one monitored sump switch and its alarm LED.
type SensorConfig struct {
	Name     string `yaml:"name"`
	InputPin int    `yaml:"input_pin"`
	AlarmPin int    `yaml:"alarm_pin"`

	// ActiveLow selects switch polarity; nil defaults to true (pull-up
	// wiring, closed switch pulls the line low).
	ActiveLow *bool `yaml:"active_low"`
}

// IsActiveLow resolves the polarity default.
func (s SensorConfig) IsActiveLow() bool {
	return s.ActiveLow == nil || *s.ActiveLow
}

// AlarmConfig tunes the alarm sampling loops.
type AlarmConfig struct {
	TickUs int `yaml:"tick_us"` // sampling period, microseconds
}

// DiagnosticConfig describes the shared blink LED.
type DiagnosticConfig struct {
	Pin    int `yaml:"pin"`
	TickMs int `yaml:"tick_ms"` // transmitter tick, milliseconds
}

// LinkConfig tunes the link watcher. LedPin 0 disables the link LED.
type LinkConfig struct {
	LedPin     int    `yaml:"led_pin"`
	PollMs     int    `yaml:"poll_ms"`
	StatusFile string `yaml:"status_file"`
}

// PollerConfig wires the debounced poller. Disabled by default; when
// enabled it samples the named sensor's input.
type PollerConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Sensor       string `yaml:"sensor"`
	IndicatorPin int    `yaml:"indicator_pin"` // 0 disables the indicator
	SampleMs     int    `yaml:"sample_ms"`
}

// MQTTConfig configures event publishing. An empty broker disables
// MQTT entirely.
type MQTTConfig struct {
	Broker  string `yaml:"broker"`
	Backlog int    `yaml:"backlog"`
}

// FeedConfig configures the TCP event feed. An empty address disables
// it.
type FeedConfig struct {
	Addr string `yaml:"addr"`
}

// HTTPConfig configures the status page. An empty address disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the reference board configuration: two sump sensors,
// diagnostic and link LEDs on their usual pins, every surface enabled
// except the poller.
func Default() Config {
	cfg := Config{
		Sensors: []SensorConfig{
			{Name: "sump1", InputPin: gpio.DefaultPinSump1, AlarmPin: gpio.DefaultPinAlarm1},
			{Name: "sump2", InputPin: gpio.DefaultPinSump2, AlarmPin: gpio.DefaultPinAlarm2},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads and validates the YAML file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Alarm.TickUs == 0 {
		c.Alarm.TickUs = 1000
	}
	if c.Diagnostic.Pin == 0 {
		c.Diagnostic.Pin = gpio.DefaultPinDiagnostic
	}
	if c.Diagnostic.TickMs == 0 {
		c.Diagnostic.TickMs = 10
	}
	if c.Link.LedPin == 0 {
		c.Link.LedPin = gpio.DefaultPinLink
	}
	if c.Link.PollMs == 0 {
		c.Link.PollMs = 250
	}
	if c.Poller.SampleMs == 0 {
		c.Poller.SampleMs = 50
	}
	if c.Poller.Enabled && c.Poller.Sensor == "" && len(c.Sensors) > 0 {
		c.Poller.Sensor = c.Sensors[0].Name
	}
	if c.MQTT.Broker == "" {
		c.MQTT.Broker = "tcp://192.168.1.200:1883"
	}
	if c.MQTT.Backlog == 0 {
		c.MQTT.Backlog = 64
	}
	if c.Feed.Addr == "" {
		c.Feed.Addr = ":10000"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":80"
	}
}
