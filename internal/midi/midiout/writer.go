// Package midiout is the send path of the instrument: it queues outbound messages, encodes
// them with gomidi and hands them to the output port from a single goroutine.
package midiout

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/leandrodaf/puretones/sdk/contracts"
	gomidi "gitlab.com/gomidi/midi/v2"
)

// Error definitions for the send path.
var (
	ErrQueueFull      = errors.New("outbound queue full")
	ErrWriterClosed   = errors.New("writer closed")
	ErrInvalidChannel = errors.New("channel out of range")
	ErrUnknownMessage = errors.New("unknown message kind")
)

// DefaultBendRange is the pitch-bend range most synthesizers ship with, in semitones.
const DefaultBendRange = 2.0

// Config controls a Writer.
type Config struct {
	BendRange float64          // Semitones at full deflection.
	Buffer    int              // Queue capacity.
	Logger    contracts.Logger // Receives transmission failures.
	OnError   func(err error)  // Optional observer for transmission failures.
}

// Writer implements contracts.Sink. Send never blocks; delivery happens on a background
// goroutine and failures are reported, never retried.
type Writer struct {
	send      func(gomidi.Message) error
	bendRange float64
	logger    contracts.Logger
	onError   func(error)

	mu     sync.RWMutex
	closed bool
	queue  chan contracts.Message
	done   chan struct{}
}

// NewWriter starts a writer that transmits through send.
func NewWriter(send func(gomidi.Message) error, cfg Config) *Writer {
	if cfg.BendRange <= 0 {
		cfg.BendRange = DefaultBendRange
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 128
	}
	w := &Writer{
		send:      send,
		bendRange: cfg.BendRange,
		logger:    cfg.Logger,
		onError:   cfg.OnError,
		queue:     make(chan contracts.Message, cfg.Buffer),
		done:      make(chan struct{}),
	}
	go w.run()
	return w
}

// Send enqueues msg for transmission.
func (w *Writer) Send(msg contracts.Message) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		w.report(msg, ErrWriterClosed)
		return
	}
	select {
	case w.queue <- msg:
	default:
		w.report(msg, ErrQueueFull)
	}
}

// Close stops accepting messages and waits for the queue to drain.
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.queue)
	w.mu.Unlock()

	<-w.done
	return nil
}

func (w *Writer) run() {
	defer close(w.done)
	for msg := range w.queue {
		out, err := Encode(msg, w.bendRange)
		if err == nil {
			err = w.send(out)
		}
		if err != nil {
			w.report(msg, err)
		}
	}
}

func (w *Writer) report(msg contracts.Message, err error) {
	err = fmt.Errorf("transmit %s on channel %d: %w", kindName(msg.Kind), msg.Channel, err)
	if w.logger != nil {
		if errors.Is(err, ErrQueueFull) {
			w.logger.Warn("Outbound message dropped", w.logger.Field().Error("error", err))
		} else {
			w.logger.Error("Failed to transmit MIDI message", w.logger.Field().Error("error", err))
		}
	}
	if w.onError != nil {
		w.onError(err)
	}
}

// Encode builds the wire message for msg.
func Encode(msg contracts.Message, bendRange float64) (gomidi.Message, error) {
	if msg.Kind != contracts.MessageRaw && msg.Channel > 15 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChannel, msg.Channel)
	}
	switch msg.Kind {
	case contracts.MessageNoteOn:
		return gomidi.NoteOn(msg.Channel, msg.Pitch, msg.Velocity), nil
	case contracts.MessageNoteOff:
		return gomidi.NoteOff(msg.Channel, msg.Pitch), nil
	case contracts.MessagePitchBend:
		return gomidi.Pitchbend(msg.Channel, BendToWire(msg.Bend, bendRange)), nil
	case contracts.MessageRaw:
		return gomidi.Message(msg.Raw), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownMessage, msg.Kind)
}

// BendToWire converts a bend in semitones to the signed 14-bit range gomidi expects,
// clamping offsets beyond the synth's bend range.
func BendToWire(bend, bendRange float64) int16 {
	if bendRange <= 0 {
		bendRange = DefaultBendRange
	}
	v := math.Round(bend / bendRange * 8192)
	if v > 8191 {
		v = 8191
	}
	if v < -8192 {
		v = -8192
	}
	return int16(v)
}

func kindName(k contracts.MessageKind) string {
	switch k {
	case contracts.MessageNoteOn:
		return "note-on"
	case contracts.MessageNoteOff:
		return "note-off"
	case contracts.MessagePitchBend:
		return "pitch-bend"
	case contracts.MessageRaw:
		return "raw"
	}
	return "unknown"
}
