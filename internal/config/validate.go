package config

import "fmt"

// Validate checks the resolved configuration for contradictions that
// would otherwise surface as confusing GPIO request failures at
// startup.
func (c Config) Validate() error {
	if len(c.Sensors) == 0 {
		return fmt.Errorf("config: no sensors defined")
	}

	names := make(map[string]bool)
	pins := make(map[int]string)
	claim := func(pin int, what string) error {
		if pin < 0 || pin > 27 {
			return fmt.Errorf("config: %s pin %d out of range 0-27", what, pin)
		}
		if prev, ok := pins[pin]; ok {
			return fmt.Errorf("config: %s pin %d already used by %s", what, pin, prev)
		}
		pins[pin] = what
		return nil
	}

	for i, s := range c.Sensors {
		if s.Name == "" {
			return fmt.Errorf("config: sensor %d has no name", i)
		}
		if names[s.Name] {
			return fmt.Errorf("config: duplicate sensor name %q", s.Name)
		}
		names[s.Name] = true
		if err := claim(s.InputPin, s.Name+" input"); err != nil {
			return err
		}
		if err := claim(s.AlarmPin, s.Name+" alarm"); err != nil {
			return err
		}
	}

	if err := claim(c.Diagnostic.Pin, "diagnostic"); err != nil {
		return err
	}
	if c.Link.LedPin > 0 {
		if err := claim(c.Link.LedPin, "link"); err != nil {
			return err
		}
	}

	if c.Alarm.TickUs < 100 {
		return fmt.Errorf("config: alarm tick_us %d too fast, minimum 100", c.Alarm.TickUs)
	}
	if c.Diagnostic.TickMs < 1 {
		return fmt.Errorf("config: diagnostic tick_ms must be at least 1")
	}
	if c.Link.PollMs < 10 {
		return fmt.Errorf("config: link poll_ms %d too fast, minimum 10", c.Link.PollMs)
	}

	if c.Poller.Enabled {
		if !names[c.Poller.Sensor] {
			return fmt.Errorf("config: poller sensor %q not defined", c.Poller.Sensor)
		}
		if c.Poller.IndicatorPin > 0 {
			if err := claim(c.Poller.IndicatorPin, "poller indicator"); err != nil {
				return err
			}
		}
		if c.Poller.SampleMs < 10 {
			return fmt.Errorf("config: poller sample_ms %d too fast, minimum 10", c.Poller.SampleMs)
		}
	}

	return nil
}
