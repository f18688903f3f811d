package protocol

import (
	"errors"
	"fmt"
)

// Frame format carried over the serial or TCP link:
//
//	[0]    0xAA sync
//	[1]    length of everything after the sync byte, checksum excluded
//	[2]    appliance type
//	[3]    kind
//	[4]    form
//	[5]    protocol version
//	[6..]  body
//	[last] additive checksum over bytes [1..last)
const (
	syncByte   = 0xAA
	headerSize = 6 // sync..version
	minFrame   = headerSize + 1

	// MaxFrame bounds the length byte; anything larger is garbage.
	MaxFrame = 256
)

var ErrBadFrame = errors.New("bad frame")

// Marshal serializes a message into a link frame.
func Marshal(m *Message) ([]byte, error) {
	var body []byte
	if codec, ok := lookupLayout(m); ok {
		var err error
		body, err = codec.encode(m)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
	} else if m.Len() > 0 {
		return nil, fmt.Errorf("no body layout for type 0x%02X kind 0x%02X form 0x%02X",
			m.DeviceType, m.Kind, m.Form)
	}

	frame := make([]byte, 0, minFrame+len(body))
	frame = append(frame, syncByte, byte(len(body)+headerSize-1),
		m.DeviceType, byte(m.Kind), byte(m.Form), m.Version)
	frame = append(frame, body...)
	frame = append(frame, checksum(frame[1:]))
	return frame, nil
}

// Unmarshal parses a complete link frame into a message. Bodies without a
// registered layout yield a message with no fields rather than an error; the
// frame envelope itself must be intact.
func Unmarshal(frame []byte) (*Message, error) {
	if len(frame) < minFrame {
		return nil, fmt.Errorf("%w: %d bytes", ErrBadFrame, len(frame))
	}
	if frame[0] != syncByte {
		return nil, fmt.Errorf("%w: missing sync byte", ErrBadFrame)
	}
	if int(frame[1]) != len(frame)-2 {
		return nil, fmt.Errorf("%w: length %d does not match frame size %d",
			ErrBadFrame, frame[1], len(frame))
	}
	if got, want := frame[len(frame)-1], checksum(frame[1:len(frame)-1]); got != want {
		return nil, fmt.Errorf("%w: checksum 0x%02X, want 0x%02X", ErrBadFrame, got, want)
	}

	m := NewFormMessage(frame[2], Kind(frame[3]), Form(frame[4]), frame[5])
	body := frame[headerSize : len(frame)-1]
	if codec, ok := lookupLayout(m); ok {
		if err := codec.decode(body, m); err != nil {
			return nil, fmt.Errorf("decode body: %w", err)
		}
	}
	return m, nil
}

// checksum is the additive complement over the given bytes.
func checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return ^sum + 1
}

// Splitter reassembles complete frames from a byte stream. Bytes before a
// sync byte are discarded.
type Splitter struct {
	buf []byte
}

// Feed appends received bytes and returns any complete frames.
func (s *Splitter) Feed(data []byte) [][]byte {
	s.buf = append(s.buf, data...)
	var frames [][]byte
	for {
		// Skip to the next sync byte.
		start := 0
		for start < len(s.buf) && s.buf[start] != syncByte {
			start++
		}
		s.buf = s.buf[start:]
		if len(s.buf) < 2 {
			return frames
		}
		total := int(s.buf[1]) + 2
		if total < minFrame || total > MaxFrame {
			// Corrupt length; resync after this sync byte.
			s.buf = s.buf[1:]
			continue
		}
		if len(s.buf) < total {
			return frames
		}
		frame := make([]byte, total)
		copy(frame, s.buf[:total])
		s.buf = s.buf[total:]
		frames = append(frames, frame)
	}
}
