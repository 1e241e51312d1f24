// Package poller samples a sump input at a slow software rate, debounces
// it by re-checking after a short settle delay, and emits change and
// keep-alive notifications. It layers human/software-consumable state
// changes above the raw alarm path, which deliberately has no debounce
// of its own.
//
// The poller is an extension point: the daemon only starts it when
// poller.enabled is set in the config, and nothing in the default wiring
// depends on its output.
package poller

import (
	"context"
	"log"
	"time"

	"github.com/sweeney/sump-sentry/internal/events"
	"github.com/sweeney/sump-sentry/internal/gpio"
)

// Notifier consumes debounced poller output.
type Notifier interface {
	// SensorChanged reports a confirmed transition of the sampled
	// input.
	SensorChanged(at time.Time, name string, tripped bool)

	// KeepAlive reports that the input has been quiet for the
	// keep-alive window.
	KeepAlive(at time.Time)
}

const (
	// DefaultSampleInterval is the 20 Hz sampling cadence.
	DefaultSampleInterval = 50 * time.Millisecond

	// DefaultConfirmDelay lets relay contacts settle between the
	// first and confirming read, and keeps the sampling indicator lit
	// long enough to see.
	DefaultConfirmDelay = 5 * time.Millisecond

	// DefaultKeepAliveWindow is the quiet period after which a
	// keep-alive is emitted.
	DefaultKeepAliveWindow = 5 * time.Second
)

// Poller owns one sampled input and an optional sampling-indicator
// output. The indicator blips on every sample and stays lit while the
// input reads tripped.
type Poller struct {
	name      string
	in        gpio.Input
	indicator gpio.Output // may be nil
	notifier  Notifier
	activeLow bool

	confirmDelay time.Duration
	keepAlive    time.Duration
	sleep        func(time.Duration)

	confirmed bool
	lastState bool
	deadline  time.Time
}

// New creates a Poller with default delays.
func New(name string, in gpio.Input, indicator gpio.Output, notifier Notifier, activeLow bool) *Poller {
	return &Poller{
		name:         name,
		in:           in,
		indicator:    indicator,
		notifier:     notifier,
		activeLow:    activeLow,
		confirmDelay: DefaultConfirmDelay,
		keepAlive:    DefaultKeepAliveWindow,
		sleep:        time.Sleep,
	}
}

// Sample performs one sampling pass at the given time. Exported with an
// explicit clock so tests drive it directly.
func (p *Poller) Sample(now time.Time) error {
	p.setIndicator(true)

	v, err := p.in.Value()
	if err != nil {
		p.setIndicator(false)
		return err
	}
	tripped := v != p.activeLow

	p.sleep(p.confirmDelay)
	if !tripped {
		p.setIndicator(false)
	}

	// A change is only accepted if a re-read after the settle delay
	// agrees with it. A bouncing contact fails the re-read and gets
	// picked up on a later pass once stable.
	if !p.confirmed || tripped != p.lastState {
		v2, err := p.in.Value()
		if err != nil {
			return err
		}
		if (v2 != p.activeLow) == tripped {
			p.confirmed = true
			p.lastState = tripped
			p.deadline = now.Add(p.keepAlive)
			p.notifier.SensorChanged(now, p.name, tripped)
		}
		// Change pass, confirmed or not: no keep-alive check.
		return nil
	}

	if !now.Before(p.deadline) {
		p.deadline = p.deadline.Add(p.keepAlive)
		p.notifier.KeepAlive(now)
	}
	return nil
}

func (p *Poller) setIndicator(level bool) {
	if p.indicator == nil {
		return
	}
	if err := p.indicator.Set(level); err != nil {
		log.Printf("poller %s: set indicator: %v", p.name, err)
	}
}

// Run samples until the context is cancelled.
func (p *Poller) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.setIndicator(false)
			return
		case now := <-ticker.C:
			if err := p.Sample(now); err != nil {
				log.Printf("poller %s: %v", p.name, err)
			}
		}
	}
}

// BusNotifier forwards poller output onto the event bus, making the
// poller the producer of human-visible sensor traffic for the feed and
// MQTT surfaces.
type BusNotifier struct {
	Broker *events.Broker
	Sensor int
}

// SensorChanged publishes a sensor change message.
func (b *BusNotifier) SensorChanged(at time.Time, name string, tripped bool) {
	b.Broker.Publish(events.Message{
		Kind:    events.KindSensorChange,
		Time:    at,
		Sensor:  b.Sensor,
		Name:    name,
		Tripped: tripped,
	})
}

// KeepAlive publishes a keep-alive message.
func (b *BusNotifier) KeepAlive(at time.Time) {
	b.Broker.Publish(events.Message{Kind: events.KindKeepAlive, Time: at})
}
