// Command sump-sentry monitors sump pump float switches on GPIO,
// drives per-sensor alarm outputs, blinks diagnostic codes on a shared
// LED and reports state over MQTT, a TCP feed and HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/sump-sentry/internal/alarm"
	"github.com/sweeney/sump-sentry/internal/blink"
	"github.com/sweeney/sump-sentry/internal/config"
	"github.com/sweeney/sump-sentry/internal/events"
	"github.com/sweeney/sump-sentry/internal/feed"
	"github.com/sweeney/sump-sentry/internal/gpio"
	"github.com/sweeney/sump-sentry/internal/mqtt"
	"github.com/sweeney/sump-sentry/internal/netwatch"
	"github.com/sweeney/sump-sentry/internal/poller"
	"github.com/sweeney/sump-sentry/internal/status"
	"github.com/sweeney/sump-sentry/internal/web"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (built-in defaults when empty)")
	broker := flag.String("broker", "", `MQTT broker address (overrides config, "off" disables)`)
	httpAddr := flag.String("http", "", `HTTP status address (overrides config, "off" disables)`)
	feedAddr := flag.String("feed", "", `TCP feed address (overrides config, "off" disables)`)
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "System heartbeat interval (0 to disable)")
	printState := flag.Bool("print-state", false, "Print current sensor state and exit")

	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("fatal: %v", err)
		}
	}
	applyOverride(&cfg.MQTT.Broker, *broker)
	applyOverride(&cfg.HTTP.Addr, *httpAddr)
	applyOverride(&cfg.Feed.Addr, *feedAddr)

	if err := run(cfg, *heartbeat, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// applyOverride replaces *dst with the flag value when set. "off" maps
// to empty, which disables the surface.
func applyOverride(dst *string, v string) {
	switch v {
	case "":
	case "off":
		*dst = ""
	default:
		*dst = v
	}
}

func run(cfg config.Config, heartbeat time.Duration, printState bool) error {
	// Initialize GPIO
	chip, err := gpio.NewChip()
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer chip.Close()

	inputs := make([]gpio.Input, len(cfg.Sensors))
	for i, s := range cfg.Sensors {
		in, err := chip.RequestInput(s.InputPin)
		if err != nil {
			return fmt.Errorf("request %s input (pin %d): %w", s.Name, s.InputPin, err)
		}
		defer in.Close()
		inputs[i] = in
	}

	// Print state mode
	if printState {
		for i, s := range cfg.Sensors {
			level, err := inputs[i].Value()
			if err != nil {
				return fmt.Errorf("read %s: %w", s.Name, err)
			}
			state := alarm.StateIdle
			if level != s.IsActiveLow() {
				state = alarm.StateTripped
			}
			fmt.Printf("%s: %s\n", s.Name, state)
		}
		return nil
	}

	monitors := make([]*alarm.Monitor, len(cfg.Sensors))
	for i, s := range cfg.Sensors {
		out, err := chip.RequestOutput(s.AlarmPin)
		if err != nil {
			return fmt.Errorf("request %s alarm (pin %d): %w", s.Name, s.AlarmPin, err)
		}
		defer out.Close()
		monitors[i] = alarm.NewMonitor(s.Name, inputs[i], out, s.IsActiveLow())
	}

	diagOut, err := chip.RequestOutput(cfg.Diagnostic.Pin)
	if err != nil {
		return fmt.Errorf("request diagnostic led (pin %d): %w", cfg.Diagnostic.Pin, err)
	}
	defer diagOut.Close()

	var linkLED gpio.Output
	if cfg.Link.LedPin > 0 {
		linkLED, err = chip.RequestOutput(cfg.Link.LedPin)
		if err != nil {
			return fmt.Errorf("request link led (pin %d): %w", cfg.Link.LedPin, err)
		}
		defer linkLED.Close()
	}

	bus := events.NewBroker()
	channel := blink.NewChannel()
	tx := blink.NewTransmitter(channel, blink.DefaultTiming)

	statusFile := cfg.Link.StatusFile
	if statusFile == "" {
		statusFile = netwatch.DefaultStatusFile
	}
	watcher := netwatch.NewWatcher(netwatch.NewFileSource(statusFile), channel, linkLED, bus)

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		AlarmTickUs: int64(cfg.Alarm.TickUs),
		BlinkTickMs: int64(cfg.Diagnostic.TickMs),
		LinkPollMs:  int64(cfg.Link.PollMs),
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
		FeedAddr:    cfg.Feed.Addr,
		PollerOn:    cfg.Poller.Enabled,
	})

	// Initialize MQTT
	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if cfg.MQTT.Broker != "" {
		real, err := mqtt.NewRealPublisher(cfg.MQTT.Broker)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		buffered := mqtt.NewBuffered(real, cfg.MQTT.Backlog)
		defer buffered.Close()
		publisher = buffered
		mqttStatus = buffered
	}

	// Publish startup event with full status snapshot
	if publisher != nil {
		snap := tracker.Snapshot()
		startupEvent := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := publisher.PublishSystem(startupEvent); err != nil {
			log.Printf("failed to publish startup event: %v", err)
		} else {
			log.Printf("published startup event")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	// Start TCP feed
	if cfg.Feed.Addr != "" {
		fd := feed.New(cfg.Feed.Addr, bus, time.Now())
		go func() {
			if err := fd.Run(ctx); err != nil {
				log.Printf("feed server error: %v", err)
			}
		}()
		log.Printf("feed listening on %s", cfg.Feed.Addr)
	}

	for _, m := range monitors {
		go m.Run(ctx, time.Duration(cfg.Alarm.TickUs)*time.Microsecond)
	}
	go tx.Run(ctx, diagOut, time.Duration(cfg.Diagnostic.TickMs)*time.Millisecond)
	go watcher.Run(ctx, time.Duration(cfg.Link.PollMs)*time.Millisecond)

	// The debounced poller shares the monitor's input line and feeds the
	// bus instead of an alarm output. Off by default.
	pollerSensor := -1
	if cfg.Poller.Enabled {
		for i, s := range cfg.Sensors {
			if s.Name == cfg.Poller.Sensor {
				pollerSensor = i
			}
		}
		var indicator gpio.Output
		if cfg.Poller.IndicatorPin > 0 {
			indicator, err = chip.RequestOutput(cfg.Poller.IndicatorPin)
			if err != nil {
				return fmt.Errorf("request poller indicator (pin %d): %w", cfg.Poller.IndicatorPin, err)
			}
			defer indicator.Close()
		}
		s := cfg.Sensors[pollerSensor]
		notifier := &poller.BusNotifier{Broker: bus, Sensor: pollerSensor}
		p := poller.New(s.Name, inputs[pollerSensor], indicator, notifier, s.IsActiveLow())
		go p.Run(ctx, time.Duration(cfg.Poller.SampleMs)*time.Millisecond)
		log.Printf("poller enabled on %s", s.Name)
	}

	sub := bus.Subscribe(16)
	defer sub.Close()

	log.Printf("started: sensors=%d broker=%s feed=%s http=%s",
		len(cfg.Sensors), orOff(cfg.MQTT.Broker), orOff(cfg.Feed.Addr), orOff(cfg.HTTP.Addr))

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(publisher, mqttStatus, tracker, bus, monitors, pollerSensor,
		watcher, tx, sub, heartbeat, time.Now, ticker.C, sigCh)
}

func orOff(s string) string {
	if s == "" {
		return "off"
	}
	return s
}

// runLoop is the supervisory loop: it mirrors monitor state onto the
// event bus, keeps the status tracker fresh, forwards bus traffic to
// MQTT and handles shutdown. The alarm, blink, link and poller loops
// run independently; nothing here sits between a sensor and its alarm
// output.
func runLoop(publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker,
	bus *events.Broker, monitors []*alarm.Monitor, pollerSensor int,
	watcher *netwatch.Watcher, tx *blink.Transmitter, sub *events.Subscription,
	heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {

	prev := make([]alarm.State, len(monitors))
	for i, m := range monitors {
		prev[i] = m.State()
	}

	var nextHeartbeat time.Time
	if heartbeat > 0 {
		nextHeartbeat = now().Add(heartbeat)
	}

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if publisher != nil {
				refreshTracker(tracker, monitors, watcher, tx, mqttStatus)
				snap := tracker.Snapshot()
				event := mqtt.SystemEvent{
					Timestamp:  now(),
					Event:      "SHUTDOWN",
					Reason:     signalName,
					Retained:   true,
					RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", signalName),
				}
				if err := publisher.PublishSystem(event); err != nil {
					log.Printf("failed to publish shutdown event: %v", err)
				} else {
					log.Printf("published shutdown event")
				}
			}
			return nil

		case msg := <-sub.C:
			switch msg.Kind {
			case events.KindSensorChange:
				log.Printf("sensor %s: tripped=%v", msg.Name, msg.Tripped)
				if publisher != nil {
					if err := publisher.PublishSensor(msg); err != nil {
						log.Printf("publish error: %v", err)
						// Don't crash on publish failure
					}
				}
			case events.KindLinkChange:
				log.Printf("link code %d", msg.Code)
			case events.KindClientConnected:
				log.Printf("feed client connected: %s", msg.Addr)
				tracker.SetFeedClient(msg.Addr)
			case events.KindClientDisconnected:
				log.Printf("feed client disconnected: %s", msg.Addr)
				tracker.SetFeedClient("")
			}

		case <-tick:
			t := now()
			for i, m := range monitors {
				st := m.State()
				if st == prev[i] {
					continue
				}
				prev[i] = st
				if i == pollerSensor {
					// The poller already reports this sensor, debounced.
					continue
				}
				bus.Publish(events.Message{
					Kind:    events.KindSensorChange,
					Time:    t,
					Sensor:  i,
					Name:    m.Name(),
					Tripped: st == alarm.StateTripped,
				})
			}

			refreshTracker(tracker, monitors, watcher, tx, mqttStatus)

			if heartbeat > 0 && !t.Before(nextHeartbeat) {
				nextHeartbeat = t.Add(heartbeat)
				if publisher != nil {
					snap := tracker.Snapshot()
					hbEvent := mqtt.SystemEvent{
						Timestamp:  t,
						Event:      "HEARTBEAT",
						RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
					}
					if err := publisher.PublishSystem(hbEvent); err != nil {
						log.Printf("heartbeat publish error: %v", err)
					}
				}
			}
		}
	}
}

func refreshTracker(tracker *status.Tracker, monitors []*alarm.Monitor,
	watcher *netwatch.Watcher, tx *blink.Transmitter, mqttStatus mqtt.ConnectionStatus) {

	sensors := make([]status.SensorStatus, len(monitors))
	for i, m := range monitors {
		sensors[i] = status.SensorStatus{
			Name:  m.Name(),
			State: string(m.State()),
			Trips: m.Trips(),
		}
	}
	tracker.UpdateSensors(sensors)

	if st, code, ok := watcher.Last(); ok {
		tracker.SetLink(st.String(), code, tx.LastCode())
	}
	if mqttStatus != nil {
		tracker.SetMQTTConnected(mqttStatus.IsConnected())
	}
}
