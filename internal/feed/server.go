package feed

import (
	"context"
	"log"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/sweeney/sump-sentry/internal/events"
)

// DefaultAddr is the feed's listen address.
const DefaultAddr = ":10000"

// DefaultKeepAlive is how often an idle connection gets a keep-alive
// frame. The pumps only cycle during rain events, so without this a
// healthy connection could sit silent for days.
const DefaultKeepAlive = 5 * time.Second

const writeTimeout = 10 * time.Second

type sensorState struct {
	tripped bool
	stamp   uint64
}

// Server accepts one TCP client at a time and streams event frames to
// it. Clients only receive; anything a client writes drops the
// connection. While no client is attached the server keeps consuming
// bus messages so a fresh client gets the last known sensor states
// immediately.
type Server struct {
	addr      string
	broker    *events.Broker
	start     time.Time
	keepAlive time.Duration

	mu     sync.Mutex
	states map[int]sensorState
	code   int // active diagnostic code
}

// New creates a Server. start anchors the microsecond uptime stamps.
func New(addr string, broker *events.Broker, start time.Time) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	return &Server{
		addr:      addr,
		broker:    broker,
		start:     start,
		keepAlive: DefaultKeepAlive,
		states:    make(map[int]sensorState),
	}
}

// Run listens on the configured address until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.RunListener(ctx, ln)
}

// RunListener serves on an existing listener. Useful for tests.
func (s *Server) RunListener(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	// Track sensor state continuously, client or not.
	stateSub := s.broker.Subscribe(32)
	defer stateSub.Close()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-stateSub.C:
				s.track(msg)
			}
		}
	}()

	log.Printf("feed: listening on %s", ln.Addr())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		addr := conn.RemoteAddr().String()
		log.Printf("feed: client connected: %s", addr)
		s.broker.Publish(events.Message{
			Kind: events.KindClientConnected,
			Time: time.Now(),
			Addr: addr,
		})

		s.serve(ctx, conn)
		conn.Close()

		log.Printf("feed: client disconnected: %s", addr)
		s.broker.Publish(events.Message{
			Kind: events.KindClientDisconnected,
			Time: time.Now(),
		})
	}
}

func (s *Server) track(msg events.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch msg.Kind {
	case events.KindSensorChange:
		s.states[msg.Sensor] = sensorState{
			tripped: msg.Tripped,
			stamp:   s.stamp(msg.Time),
		}
	case events.KindLinkChange:
		s.code = msg.Code
	}
}

// stamp converts a wall time into microseconds since daemon start.
func (s *Server) stamp(at time.Time) uint64 {
	if at.IsZero() {
		at = time.Now()
	}
	d := at.Sub(s.start)
	if d < 0 {
		return 0
	}
	return uint64(d.Microseconds())
}

// serve streams frames to one client until it misbehaves, disconnects
// or the context is cancelled.
func (s *Server) serve(ctx context.Context, conn net.Conn) {
	sub := s.broker.Subscribe(32)
	defer sub.Close()

	if !s.sendInitial(conn) {
		return
	}

	// The client never legitimately sends data: a read (or a read
	// error) means a broken or misbehaving peer either way.
	peerGone := make(chan struct{})
	go func() {
		buf := make([]byte, FrameSize)
		conn.Read(buf)
		close(peerGone)
	}()

	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-peerGone:
			return
		case <-ticker.C:
			if !s.send(conn, Frame{Stamp: s.stamp(time.Now()), Type: TypeKeepAlive}) {
				return
			}
		case msg := <-sub.C:
			frame, ok := s.frameFor(msg)
			if !ok {
				continue
			}
			if !s.send(conn, frame) {
				return
			}
		}
	}
}

// sendInitial reports the controller's current stamp and the last known
// state of every sensor, lowest index first.
func (s *Server) sendInitial(conn net.Conn) bool {
	if !s.send(conn, Frame{Stamp: s.stamp(time.Now()), Type: TypeKeepAlive}) {
		return false
	}

	s.mu.Lock()
	indices := make([]int, 0, len(s.states))
	for idx := range s.states {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	frames := make([]Frame, 0, len(indices))
	for _, idx := range indices {
		st := s.states[idx]
		tc, err := SensorType(idx, st.tripped)
		if err != nil {
			continue
		}
		frames = append(frames, Frame{Stamp: st.stamp, Type: tc})
	}
	s.mu.Unlock()

	for _, f := range frames {
		if !s.send(conn, f) {
			return false
		}
	}
	return true
}

func (s *Server) frameFor(msg events.Message) (Frame, bool) {
	switch msg.Kind {
	case events.KindSensorChange:
		tc, err := SensorType(msg.Sensor, msg.Tripped)
		if err != nil {
			log.Printf("feed: %v", err)
			return Frame{}, false
		}
		return Frame{Stamp: s.stamp(msg.Time), Type: tc}, true
	case events.KindLinkChange:
		return Frame{
			Stamp: s.stamp(msg.Time),
			Type:  TypeError,
			Code:  byte(msg.Code),
		}, true
	case events.KindKeepAlive:
		return Frame{Stamp: s.stamp(msg.Time), Type: TypeKeepAlive}, true
	default:
		return Frame{}, false
	}
}

func (s *Server) send(conn net.Conn, f Frame) bool {
	buf := f.Marshal()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := conn.Write(buf[:]); err != nil {
		log.Printf("feed: write: %v", err)
		return false
	}
	return true
}
