// Package engine ties the channel allocator, the bend scheduler and the active tuning
// strategy together. All four operations (note-on, note-off, recompute, tick) run under one
// mutex so that eviction, reassignment and ramp state are always observed atomically.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/leandrodaf/puretones/internal/allocator"
	"github.com/leandrodaf/puretones/internal/bend"
	"github.com/leandrodaf/puretones/internal/tuning"
	"github.com/leandrodaf/puretones/sdk/contracts"
)

// Defaults for Config fields left at zero.
const (
	DefaultTickInterval = 20 * time.Millisecond
	DefaultRampDuration = 100 * time.Millisecond
)

// Config configures an Engine.
type Config struct {
	NumChannels  int
	RampDuration time.Duration
	TickInterval time.Duration
	Strategy     contracts.TuningStrategy
}

// NoteState is a snapshot of one held note.
type NoteState struct {
	Pitch   uint8
	Channel uint8
	Bend    float64
}

// Engine is safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	alloc    *allocator.Allocator
	sched    *bend.Scheduler
	strategy contracts.TuningStrategy
	sink     contracts.Sink
	logger   contracts.Logger
}

// New creates an engine that emits into sink.
func New(cfg Config, sink contracts.Sink, logger contracts.Logger) *Engine {
	if cfg.NumChannels <= 0 {
		cfg.NumChannels = allocator.MaxChannels
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.RampDuration < 0 {
		cfg.RampDuration = DefaultRampDuration
	}
	if cfg.Strategy == nil {
		cfg.Strategy = tuning.None{}
	}
	return &Engine{
		alloc:    allocator.New(cfg.NumChannels, sink),
		sched:    bend.New(cfg.RampDuration, cfg.TickInterval, sink),
		strategy: cfg.Strategy,
		sink:     sink,
		logger:   logger,
	}
}

// HandleEvent applies one inbound event.
func (e *Engine) HandleEvent(ev contracts.Event) {
	switch ev.Kind {
	case contracts.EventNoteOn:
		e.NoteOn(ev.Pitch, ev.Velocity)
	case contracts.EventNoteOff:
		e.NoteOff(ev.Pitch)
	default:
		if len(ev.Raw) > 0 {
			e.sink.Send(contracts.Message{Kind: contracts.MessageRaw, Raw: ev.Raw})
		}
	}
}

// NoteOn assigns a channel to pitch and retargets every held note.
func (e *Engine) NoteOn(pitch, velocity uint8) allocator.Assignment {
	e.mu.Lock()
	defer e.mu.Unlock()

	res := e.alloc.NoteOn(pitch, velocity)
	if res.Evicted != nil {
		e.logger.Info("Channel pool exhausted; evicted oldest note",
			e.logger.Field().Uint8("evictedPitch", res.Evicted.Pitch),
			e.logger.Field().Uint8("channel", res.Channel),
			e.logger.Field().Uint8("pitch", pitch))
	}
	e.logger.Debug("Note on",
		e.logger.Field().Uint8("pitch", pitch),
		e.logger.Field().Uint8("channel", res.Channel))
	e.sched.Recompute(e.alloc.Notes(), e.strategy)
	return res
}

// NoteOff releases the earliest held note with pitch. Unknown pitches are ignored.
func (e *Engine) NoteOff(pitch uint8) (uint8, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch, ok := e.alloc.NoteOff(pitch)
	if !ok {
		e.logger.Debug("Ignoring note off for pitch not held", e.logger.Field().Uint8("pitch", pitch))
		return 0, false
	}
	e.sched.Recompute(e.alloc.Notes(), e.strategy)
	return ch, true
}

// SetStrategy swaps the tuning strategy and ramps every held note from where it is now.
func (e *Engine) SetStrategy(s contracts.TuningStrategy) {
	if s == nil {
		s = tuning.None{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.strategy = s
	e.sched.Recompute(e.alloc.Notes(), e.strategy)
}

// Tick advances the in-flight ramp by one frame. It reports whether a frame was emitted.
func (e *Engine) Tick() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sched.Tick()
}

// Ramping reports whether a ramp is in flight.
func (e *Engine) Ramping() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sched.Active()
}

// ReleaseAll silences every held note, recentres bent channels and drops the in-flight ramp.
func (e *Engine) ReleaseAll() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	released := e.alloc.ReleaseAll()
	e.sched.Reset()
	return len(released)
}

// Notes returns the held notes in arrival order.
func (e *Engine) Notes() []NoteState {
	e.mu.Lock()
	defer e.mu.Unlock()

	notes := e.alloc.Notes()
	out := make([]NoteState, len(notes))
	for i, n := range notes {
		out[i] = NoteState{Pitch: n.Pitch, Channel: n.Channel, Bend: n.Bend}
	}
	return out
}

// Run applies events and ticks from a single goroutine until ctx is done or events is
// closed, then releases every held note.
func (e *Engine) Run(ctx context.Context, events <-chan contracts.Event) error {
	ticker := time.NewTicker(e.sched.TickInterval())
	defer ticker.Stop()
	defer func() {
		if n := e.ReleaseAll(); n > 0 {
			e.logger.Info("Released held notes", e.logger.Field().Int("count", n))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			e.HandleEvent(ev)
		case <-ticker.C:
			e.Tick()
		}
	}
}
