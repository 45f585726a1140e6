package bend

import (
	"math"
	"testing"
	"time"

	"github.com/leandrodaf/puretones/internal/allocator"
	"github.com/leandrodaf/puretones/sdk/contracts"
)

type recordingSink struct {
	msgs []contracts.Message
}

func (r *recordingSink) Send(msg contracts.Message) {
	r.msgs = append(r.msgs, msg)
}

// fixedStrategy returns bends[i] for the i-th held pitch.
type fixedStrategy []float64

func (f fixedStrategy) CalculateBends(pitches []uint8) []float64 {
	out := make([]float64, len(pitches))
	copy(out, f)
	return out
}

type byPitch map[uint8]float64

func (b byPitch) CalculateBends(pitches []uint8) []float64 {
	out := make([]float64, len(pitches))
	for i, p := range pitches {
		out[i] = b[p]
	}
	return out
}

type shortStrategy struct{}

func (shortStrategy) CalculateBends(pitches []uint8) []float64 {
	return []float64{1}
}

func held(t *testing.T, pitches ...uint8) (*allocator.Allocator, []*allocator.Note) {
	t.Helper()
	a := allocator.New(allocator.MaxChannels, &recordingSink{})
	for _, p := range pitches {
		a.NoteOn(p, 100)
	}
	return a, a.Notes()
}

const eps = 1e-12

func TestFrameCount(t *testing.T) {
	tests := []struct {
		ramp, tick time.Duration
		want       int
	}{
		{100 * time.Millisecond, 20 * time.Millisecond, 5},
		{110 * time.Millisecond, 20 * time.Millisecond, 6},
		{20 * time.Millisecond, 20 * time.Millisecond, 1},
		{0, 20 * time.Millisecond, 1},
		{time.Millisecond, 20 * time.Millisecond, 1},
	}
	for _, tt := range tests {
		s := New(tt.ramp, tt.tick, &recordingSink{})
		if got := s.FrameCount(); got != tt.want {
			t.Errorf("FrameCount(%v/%v) = %d, want %d", tt.ramp, tt.tick, got, tt.want)
		}
	}
}

func TestRampIsLinearAndExact(t *testing.T) {
	sink := &recordingSink{}
	s := New(100*time.Millisecond, 20*time.Millisecond, sink)
	_, notes := held(t, 60, 64)
	notes[1].Bend = 0.5

	plan := s.Recompute(notes, fixedStrategy{0.3, -0.137})
	if plan.Frames != 5 {
		t.Fatalf("Frames = %d, want 5", plan.Frames)
	}

	ticks := 0
	for s.Tick() {
		ticks++
		for _, e := range plan.Entries {
			want := e.Start + (e.Target-e.Start)*float64(ticks)/5
			if math.Abs(e.Note.Bend-want) > eps {
				t.Errorf("tick %d pitch %d bend = %v, want %v", ticks, e.Note.Pitch, e.Note.Bend, want)
			}
		}
		if ticks > 10 {
			t.Fatal("ramp did not finish")
		}
	}
	if ticks != 5 {
		t.Errorf("ticks = %d, want 5", ticks)
	}
	if notes[0].Bend != 0.3 || notes[1].Bend != -0.137 {
		t.Errorf("final bends = %v, %v; want exact targets", notes[0].Bend, notes[1].Bend)
	}
	if s.Active() {
		t.Error("scheduler still active after final frame")
	}
	if len(sink.msgs) != 10 {
		t.Fatalf("emitted %d messages, want 10", len(sink.msgs))
	}
	last := sink.msgs[len(sink.msgs)-1]
	if last.Kind != contracts.MessagePitchBend || last.Channel != notes[1].Channel || last.Bend != -0.137 {
		t.Errorf("last message = %+v", last)
	}
}

func TestProgressIsMonotonic(t *testing.T) {
	s := New(200*time.Millisecond, 20*time.Millisecond, &recordingSink{})
	_, notes := held(t, 60)
	s.Recompute(notes, fixedStrategy{-1})

	prev := notes[0].Bend
	for s.Tick() {
		if notes[0].Bend > prev {
			t.Fatalf("bend moved away from target: %v -> %v", prev, notes[0].Bend)
		}
		prev = notes[0].Bend
	}
	if prev != -1 {
		t.Errorf("final bend = %v, want -1", prev)
	}
}

func TestSupersedeStartsFromCurrentValue(t *testing.T) {
	s := New(100*time.Millisecond, 20*time.Millisecond, &recordingSink{})
	_, notes := held(t, 60)

	s.Recompute(notes, fixedStrategy{1})
	s.Tick()
	s.Tick()
	mid := notes[0].Bend
	if math.Abs(mid-0.4) > eps {
		t.Fatalf("mid-ramp bend = %v, want 0.4", mid)
	}

	plan := s.Recompute(notes, fixedStrategy{-1})
	if plan.Entries[0].Start != mid {
		t.Errorf("new start = %v, want mid-ramp %v", plan.Entries[0].Start, mid)
	}
	if plan.Frame != 0 {
		t.Errorf("new plan frame = %d, want 0", plan.Frame)
	}

	s.Tick()
	want := mid + (-1-mid)/5
	if math.Abs(notes[0].Bend-want) > eps {
		t.Errorf("first frame after supersede = %v, want %v", notes[0].Bend, want)
	}
}

func TestReleasedNoteDroppedFromTick(t *testing.T) {
	sink := &recordingSink{}
	s := New(60*time.Millisecond, 20*time.Millisecond, sink)
	a, notes := held(t, 60, 64)
	s.Recompute(notes, fixedStrategy{0.1, 0.2})
	s.Tick()

	a.NoteOff(60)
	sink.msgs = nil
	s.Tick()
	if len(sink.msgs) != 1 {
		t.Fatalf("emitted %d messages, want 1", len(sink.msgs))
	}
	if sink.msgs[0].Channel != 1 {
		t.Errorf("bent channel %d, want 1", sink.msgs[0].Channel)
	}
}

func TestNoStrategyYieldsZeroTargets(t *testing.T) {
	s := New(40*time.Millisecond, 20*time.Millisecond, &recordingSink{})
	_, notes := held(t, 61, 66, 70)
	for _, n := range notes {
		n.Bend = 0.25
	}
	plan := s.Recompute(notes, nil)
	for _, e := range plan.Entries {
		if e.Target != 0 {
			t.Errorf("pitch %d target = %v, want 0", e.Note.Pitch, e.Target)
		}
	}
	for s.Tick() {
	}
	for _, n := range notes {
		if n.Bend != 0 {
			t.Errorf("pitch %d bend = %v, want 0", n.Pitch, n.Bend)
		}
	}
}

func TestTargetsFallback(t *testing.T) {
	_, notes := held(t, 60, 62)
	for _, tt := range []struct {
		name     string
		strategy contracts.TuningStrategy
	}{
		{"wrong length", shortStrategy{}},
		{"nan", fixedStrategy{math.NaN(), 0}},
		{"inf", fixedStrategy{0, math.Inf(1)}},
	} {
		got := Targets(notes, tt.strategy)
		if len(got) != 2 || got[0] != 0 || got[1] != 0 {
			t.Errorf("%s: Targets = %v, want zeros", tt.name, got)
		}
	}

	got := Targets(notes, byPitch{62: 0.04})
	if got[0] != 0 || got[1] != 0.04 {
		t.Errorf("Targets = %v, want [0 0.04]", got)
	}
}

func TestTickIdle(t *testing.T) {
	sink := &recordingSink{}
	s := New(100*time.Millisecond, 20*time.Millisecond, sink)
	if s.Tick() {
		t.Error("Tick reported work with no plan")
	}
	_, notes := held(t, 60)
	s.Recompute(notes, nil)
	s.Reset()
	if s.Tick() || len(sink.msgs) != 0 {
		t.Error("Tick emitted after Reset")
	}
}
