// Package feed streams sump events to a single TCP client using a
// fixed-size binary frame. The intended consumer is the household
// control system; anyone else should get the data from there, not from
// this port.
//
// Each frame is 16 bytes, big-endian:
//
//	+----+----+----+----+----+----+----+----+
//	|       microsecond uptime stamp        |
//	+----+----+----+----+----+----+----+----+
//	| 00 | 00 | 00 | 00 | 00 | 00 | EC | TC |
//	+----+----+----+----+----+----+----+----+
//
// The stamp counts from daemon start, not time-of-day. EC carries the
// active diagnostic code and is zero except for error-condition frames.
package feed

import (
	"encoding/binary"
	"fmt"
)

// FrameSize is the fixed length of every feed frame.
const FrameSize = 16

// Type codes (TC byte). Sensor codes extend pairwise: sensor n clear is
// TypeSensorBase+2n, trip is TypeSensorBase+2n+1.
const (
	TypeKeepAlive  byte = 0x00
	TypeError      byte = 0x01
	TypeSensorBase byte = 0x02
)

// MaxSensors is the number of sensors the pairwise type-code scheme can
// express in one byte.
const MaxSensors = (0xFF - int(TypeSensorBase)) / 2

// Frame is one decoded feed message.
type Frame struct {
	Stamp uint64 // microseconds since daemon start
	Type  byte
	Code  byte // diagnostic code, TypeError only
}

// SensorType returns the type code for a sensor transition.
func SensorType(sensor int, tripped bool) (byte, error) {
	if sensor < 0 || sensor >= MaxSensors {
		return 0, fmt.Errorf("feed: sensor index %d out of range", sensor)
	}
	tc := TypeSensorBase + byte(2*sensor)
	if tripped {
		tc++
	}
	return tc, nil
}

// Marshal encodes the frame into its 16-byte wire form.
func (f Frame) Marshal() [FrameSize]byte {
	var buf [FrameSize]byte
	binary.BigEndian.PutUint64(buf[0:8], f.Stamp)
	buf[14] = f.Code
	buf[15] = f.Type
	return buf
}

// Unmarshal decodes a 16-byte wire frame.
func Unmarshal(buf []byte) (Frame, error) {
	if len(buf) != FrameSize {
		return Frame{}, fmt.Errorf("feed: frame length %d, want %d", len(buf), FrameSize)
	}
	return Frame{
		Stamp: binary.BigEndian.Uint64(buf[0:8]),
		Code:  buf[14],
		Type:  buf[15],
	}, nil
}
