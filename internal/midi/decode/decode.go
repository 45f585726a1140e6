// Package decode turns raw inbound MIDI bytes into validated events. Input clients call it
// before anything reaches the allocator.
package decode

import (
	"errors"
	"fmt"
	"time"

	"github.com/leandrodaf/puretones/sdk/contracts"
	"go.uber.org/multierr"
)

// ErrMalformedEvent is returned for truncated messages and out-of-range data bytes.
var ErrMalformedEvent = errors.New("malformed MIDI event")

// dataLength is the number of data bytes following a channel status byte.
var dataLength = map[byte]int{
	0x80: 2, 0x90: 2, 0xA0: 2, 0xB0: 2, 0xC0: 1, 0xD0: 1, 0xE0: 2,
}

// systemLength is the number of data bytes following a system common or real-time status
// byte. System exclusive (0xF0) runs to its 0xF7 terminator instead.
var systemLength = map[byte]int{
	0xF1: 1, 0xF2: 2, 0xF3: 1,
	0xF4: 0, 0xF5: 0, 0xF6: 0, 0xF7: 0,
	0xF8: 0, 0xF9: 0, 0xFA: 0, 0xFB: 0, 0xFC: 0, 0xFD: 0, 0xFE: 0, 0xFF: 0,
}

// messageLength returns the length in bytes of the message starting with status, given the
// bytes that follow it. Sysex without a terminator takes everything.
func messageLength(status byte, rest []byte) int {
	if status == 0xF0 {
		for i, b := range rest {
			if b == 0xF7 {
				return i + 2
			}
		}
		return len(rest) + 1
	}
	if n, ok := systemLength[status]; ok {
		return n + 1
	}
	return dataLength[status&0xF0] + 1
}

// Event decodes the first MIDI message in raw; trailing bytes are ignored (see Events). The channel nibble of note messages is ignored:
// the keyboard is treated as a single source. Messages other than note-on/off are returned as
// EventOther carrying a copy of the raw bytes.
func Event(raw []byte, timestamp uint64) (contracts.Event, error) {
	if len(raw) == 0 {
		return contracts.Event{}, fmt.Errorf("%w: empty message", ErrMalformedEvent)
	}
	status := raw[0]
	if status < 0x80 {
		return contracts.Event{}, fmt.Errorf("%w: missing status byte 0x%X", ErrMalformedEvent, status)
	}

	command := status & 0xF0
	n := messageLength(status, raw[1:])
	if len(raw) < n {
		return contracts.Event{}, fmt.Errorf("%w: status 0x%X needs %d data bytes, got %d", ErrMalformedEvent, status, n-1, len(raw)-1)
	}
	raw = raw[:n]
	if status != 0xF0 {
		for _, b := range raw[1:] {
			if b > 0x7F {
				return contracts.Event{}, fmt.Errorf("%w: data byte 0x%X out of range", ErrMalformedEvent, b)
			}
		}
	}

	ev := contracts.Event{Timestamp: timestamp}
	switch {
	case command == byte(contracts.NoteOn) && raw[2] > 0:
		ev.Kind = contracts.EventNoteOn
		ev.Pitch = raw[1]
		ev.Velocity = raw[2]
	case command == byte(contracts.NoteOn), command == byte(contracts.NoteOff):
		ev.Kind = contracts.EventNoteOff
		ev.Pitch = raw[1]
	default:
		ev.Kind = contracts.EventOther
		ev.Raw = append([]byte(nil), raw...)
	}
	return ev, nil
}

// Events decodes every message in a packet. CoreMIDI packs simultaneous messages, such as
// the notes of a chord, into one packet, and channel messages may use running status. A
// malformed message is skipped up to the next status byte; its error is returned alongside
// the events that did decode.
func Events(raw []byte, timestamp uint64) ([]contracts.Event, error) {
	var (
		events  []contracts.Event
		errs    error
		running byte
	)
	for i := 0; i < len(raw); {
		status, msg, implied := raw[i], raw[i:], false
		if status < 0x80 {
			if running == 0 {
				next := nextStatus(raw, i)
				errs = multierr.Append(errs, fmt.Errorf("%w: %d data bytes without status", ErrMalformedEvent, next-i))
				i = next
				continue
			}
			status, implied = running, true
			msg = append([]byte{running}, raw[i:]...)
		}

		n := messageLength(status, msg[1:])
		ev, err := Event(msg, timestamp)
		if err != nil {
			errs = multierr.Append(errs, err)
			i = nextStatus(raw, i+1)
			continue
		}
		events = append(events, ev)

		if status < 0xF0 {
			running = status
		} else if status < 0xF8 {
			running = 0
		}
		if implied {
			n--
		}
		i += n
	}
	return events, errs
}

// nextStatus returns the index of the first status byte at or after i.
func nextStatus(raw []byte, i int) int {
	for i < len(raw) && raw[i] < 0x80 {
		i++
	}
	return i
}

// Now returns the timestamp input clients stamp events with.
func Now() uint64 {
	return uint64(time.Now().UTC().UnixNano())
}

// Packed decodes a message packed into the low three bytes of a word, as delivered by the
// Windows multimedia API.
func Packed(word uintptr, timestamp uint64) (contracts.Event, error) {
	raw := []byte{byte(word & 0xFF), byte((word >> 8) & 0xFF), byte((word >> 16) & 0xFF)}
	if raw[0] != 0xF0 {
		raw = raw[:messageLength(raw[0], raw[1:])]
	}
	return Event(raw, timestamp)
}
