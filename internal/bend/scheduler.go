// Package bend ramps each held note's pitch-bend toward the offset its tuning asks for.
package bend

import (
	"math"
	"time"

	"github.com/leandrodaf/puretones/internal/allocator"
	"github.com/leandrodaf/puretones/sdk/contracts"
)

// Entry is one note's path inside a plan.
type Entry struct {
	Note   *allocator.Note
	Start  float64
	Target float64
}

// Plan is an in-flight ramp. Frame counts the ticks already emitted.
type Plan struct {
	Entries []Entry
	Frames  int
	Frame   int
}

// Value returns the interpolated bend of e at frame (1-based). Frame Frames and later yield
// exactly the target.
func (p *Plan) Value(e Entry, frame int) float64 {
	if frame >= p.Frames {
		return e.Target
	}
	if frame <= 0 {
		return e.Start
	}
	return e.Start + (e.Target-e.Start)*float64(frame)/float64(p.Frames)
}

// Done reports whether every frame has been emitted.
func (p *Plan) Done() bool {
	return p.Frame >= p.Frames
}

// Scheduler owns the in-flight plan. It is not safe for concurrent use.
type Scheduler struct {
	ramp time.Duration
	tick time.Duration
	plan *Plan
	sink contracts.Sink
}

// New creates a scheduler that spreads each ramp over ramp/tick frames.
func New(ramp, tick time.Duration, sink contracts.Sink) *Scheduler {
	return &Scheduler{ramp: ramp, tick: tick, sink: sink}
}

// FrameCount is ceil(ramp/tick), at least one frame.
func (s *Scheduler) FrameCount() int {
	if s.tick <= 0 {
		return 1
	}
	frames := int((s.ramp + s.tick - 1) / s.tick)
	if frames < 1 {
		return 1
	}
	return frames
}

// TickInterval returns the scheduler period.
func (s *Scheduler) TickInterval() time.Duration {
	return s.tick
}

// Recompute replaces the in-flight plan with a ramp from each note's current bend to the
// strategy's target. A superseded plan is dropped; notes keep whatever value they last reached.
func (s *Scheduler) Recompute(notes []*allocator.Note, strategy contracts.TuningStrategy) *Plan {
	targets := Targets(notes, strategy)
	plan := &Plan{
		Entries: make([]Entry, len(notes)),
		Frames:  s.FrameCount(),
	}
	for i, n := range notes {
		plan.Entries[i] = Entry{Note: n, Start: n.Bend, Target: targets[i]}
	}
	s.plan = plan
	return plan
}

// Tick emits one frame of pitch-bend for every note still held. It returns false when no
// ramp is in flight.
func (s *Scheduler) Tick() bool {
	p := s.plan
	if p == nil {
		return false
	}
	p.Frame++
	for _, e := range p.Entries {
		if e.Note.Released() {
			continue
		}
		v := p.Value(e, p.Frame)
		e.Note.Bend = v
		s.sink.Send(contracts.Message{Kind: contracts.MessagePitchBend, Channel: e.Note.Channel, Bend: v})
	}
	if p.Done() {
		s.plan = nil
	}
	return true
}

// Active reports whether a ramp is in flight.
func (s *Scheduler) Active() bool {
	return s.plan != nil
}

// Plan returns the in-flight plan or nil.
func (s *Scheduler) Plan() *Plan {
	return s.plan
}

// Reset drops the in-flight plan.
func (s *Scheduler) Reset() {
	s.plan = nil
}

// Targets asks strategy for one offset per note. A missing strategy, or one that answers with
// the wrong length or non-finite values, yields zero bend for every note.
func Targets(notes []*allocator.Note, strategy contracts.TuningStrategy) []float64 {
	zeros := make([]float64, len(notes))
	if strategy == nil || len(notes) == 0 {
		return zeros
	}
	pitches := make([]uint8, len(notes))
	for i, n := range notes {
		pitches[i] = n.Pitch
	}
	bends := strategy.CalculateBends(pitches)
	if len(bends) != len(notes) {
		return zeros
	}
	for _, b := range bends {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return zeros
		}
	}
	return bends
}
