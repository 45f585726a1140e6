//go:build darwin
// +build darwin

package mididarwin

import (
	"testing"

	"github.com/leandrodaf/puretones/internal/logger"
	"github.com/leandrodaf/puretones/sdk/contracts"
	"github.com/youpy/go-coremidi"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestClient(filter *contracts.MIDIEventFilter) (*ClientMid, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &ClientMid{logger: logger.NewZapLoggerFromCore(core), midiEventFilter: filter}, logs
}

func TestHandleMIDIMessageDeliversWholePacket(t *testing.T) {
	m, _ := newTestClient(nil)
	events := make(chan contracts.Event, 8)
	m.StartCapture(events)

	m.handleMIDIMessage(coremidi.Source{}, coremidi.Packet{Data: []byte{0x90, 0x3C, 0x64, 0x90, 0x40, 0x64, 0x80, 0x43, 0x00}})

	want := []struct {
		kind  contracts.EventKind
		pitch uint8
	}{
		{contracts.EventNoteOn, 60},
		{contracts.EventNoteOn, 64},
		{contracts.EventNoteOff, 67},
	}
	if len(events) != len(want) {
		t.Fatalf("delivered %d events, want %d", len(events), len(want))
	}
	for i, w := range want {
		ev := <-events
		if ev.Kind != w.kind || ev.Pitch != w.pitch {
			t.Errorf("event %d = %+v, want %+v", i, ev, w)
		}
	}
}

func TestHandleMIDIMessageFiltersEachMessage(t *testing.T) {
	m, _ := newTestClient(&contracts.MIDIEventFilter{Commands: []contracts.MIDICommand{contracts.NoteOn, contracts.NoteOff}})
	events := make(chan contracts.Event, 8)
	m.StartCapture(events)

	m.handleMIDIMessage(coremidi.Source{}, coremidi.Packet{Data: []byte{0xFE, 0x90, 60, 100, 0xB0, 64, 127}})

	if len(events) != 1 {
		t.Fatalf("delivered %d events, want 1", len(events))
	}
	if ev := <-events; ev.Kind != contracts.EventNoteOn || ev.Pitch != 60 {
		t.Errorf("got %+v", ev)
	}
}

func TestHandleMIDIMessageAfterStop(t *testing.T) {
	m, logs := newTestClient(nil)
	events := make(chan contracts.Event, 1)
	m.StartCapture(events)
	if err := m.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	m.handleMIDIMessage(coremidi.Source{}, coremidi.Packet{Data: []byte{0x90, 60, 100}})
	if len(events) != 0 {
		t.Error("event delivered after Stop")
	}
	if n := logs.FilterMessage("Event buffer full; dropping MIDI event").Len(); n != 0 {
		t.Errorf("%d drop warnings after Stop", n)
	}
}

func TestHandleMIDIMessageFullBuffer(t *testing.T) {
	m, logs := newTestClient(nil)
	events := make(chan contracts.Event, 1)
	m.StartCapture(events)

	m.handleMIDIMessage(coremidi.Source{}, coremidi.Packet{Data: []byte{0x90, 60, 100, 0x90, 62, 100}})
	if len(events) != 1 {
		t.Fatalf("buffered %d events, want 1", len(events))
	}
	if n := logs.FilterMessage("Event buffer full; dropping MIDI event").Len(); n != 1 {
		t.Errorf("drop warnings = %d, want 1", n)
	}
}
