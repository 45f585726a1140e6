//go:build cgo

package midirtmidi

import (
	"testing"

	"github.com/leandrodaf/puretones/internal/logger"
	"github.com/leandrodaf/puretones/sdk/contracts"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDeliver(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	m := &ClientMid{
		logger:          logger.NewZapLoggerFromCore(core),
		midiEventFilter: &contracts.MIDIEventFilter{Commands: []contracts.MIDICommand{contracts.NoteOn, contracts.NoteOff}},
	}
	events := make(chan contracts.Event, 1)

	m.deliver(events, []byte{0x91, 60, 100})
	m.deliver(events, []byte{0xB0, 1, 2})   // filtered
	m.deliver(events, []byte{0x90, 200, 1}) // malformed
	m.deliver(events, []byte{0x80, 60, 0})  // buffer full

	if len(events) != 1 {
		t.Fatalf("queued %d events, want 1", len(events))
	}
	ev := <-events
	if ev.Kind != contracts.EventNoteOn || ev.Pitch != 60 || ev.Velocity != 100 {
		t.Errorf("event = %+v", ev)
	}
	if n := logs.FilterMessage("Dropping MIDI input").Len(); n != 1 {
		t.Errorf("malformed warnings = %d, want 1", n)
	}
	if n := logs.FilterMessage("MIDI event channel is full; event discarded").Len(); n != 1 {
		t.Errorf("full warnings = %d, want 1", n)
	}
}
