// Package allocator assigns each held key its own output channel so that it can be bent
// independently of every other held key.
package allocator

import (
	"github.com/leandrodaf/puretones/sdk/contracts"
)

// MaxChannels is the number of channels a MIDI port can address.
const MaxChannels = 16

// Note is one currently held key. Bend is owned by the bend scheduler.
type Note struct {
	Pitch    uint8
	Velocity uint8
	Channel  uint8
	Bend     float64

	released bool
}

// Released reports whether the note has left the active set.
func (n *Note) Released() bool {
	return n.released
}

// Assignment is the result of a note-on.
type Assignment struct {
	Channel uint8
	Evicted *Note // nil unless the pool was full
}

// Allocator owns the ordered active-note set and the channel pool.
// It is not safe for concurrent use; callers serialize access.
type Allocator struct {
	numChannels int
	notes       []*Note // arrival order, oldest first
	inUse       [MaxChannels]bool
	wireBend    [MaxChannels]float64 // last bend left on each channel by a released note
	sink        contracts.Sink
}

// New creates an allocator over channels [0, numChannels). numChannels is clamped to 1..16.
func New(numChannels int, sink contracts.Sink) *Allocator {
	if numChannels < 1 {
		numChannels = 1
	}
	if numChannels > MaxChannels {
		numChannels = MaxChannels
	}
	return &Allocator{
		numChannels: numChannels,
		notes:       make([]*Note, 0, numChannels),
		sink:        sink,
	}
}

// NumChannels returns the pool size.
func (a *Allocator) NumChannels() int {
	return a.numChannels
}

// NoteOn assigns the lowest free channel to pitch. When every channel is held the oldest note
// is released first and its channel handed to the new note. The new note starts at the bend
// the channel was left at.
func (a *Allocator) NoteOn(pitch, velocity uint8) Assignment {
	var res Assignment
	if len(a.notes) >= a.numChannels {
		victim := a.notes[0]
		a.release(0)
		res.Evicted = victim
	}

	ch := a.lowestFree()
	n := &Note{Pitch: pitch, Velocity: velocity, Channel: ch, Bend: a.wireBend[ch]}
	a.inUse[ch] = true
	a.notes = append(a.notes, n)
	a.sink.Send(contracts.Message{Kind: contracts.MessageNoteOn, Channel: ch, Pitch: pitch, Velocity: velocity})

	res.Channel = ch
	return res
}

// NoteOff releases the earliest held note with the given pitch. A pitch that is not held is
// ignored and reported with ok == false.
func (a *Allocator) NoteOff(pitch uint8) (channel uint8, ok bool) {
	for i, n := range a.notes {
		if n.Pitch == pitch {
			a.release(i)
			return n.Channel, true
		}
	}
	return 0, false
}

// ReleaseAll sends note-off for every held note, oldest first, and empties the set. Every
// channel left bent is then recentred.
func (a *Allocator) ReleaseAll() []*Note {
	released := a.notes
	for len(a.notes) > 0 {
		a.release(0)
	}
	for ch := 0; ch < a.numChannels; ch++ {
		if a.wireBend[ch] != 0 {
			a.sink.Send(contracts.Message{Kind: contracts.MessagePitchBend, Channel: uint8(ch)})
			a.wireBend[ch] = 0
		}
	}
	return released
}

// Notes returns the live notes in arrival order. The slice must not be modified.
func (a *Allocator) Notes() []*Note {
	return a.notes
}

// Len returns the number of held notes.
func (a *Allocator) Len() int {
	return len(a.notes)
}

func (a *Allocator) release(i int) {
	n := a.notes[i]
	a.sink.Send(contracts.Message{Kind: contracts.MessageNoteOff, Channel: n.Channel, Pitch: n.Pitch})
	a.inUse[n.Channel] = false
	a.wireBend[n.Channel] = n.Bend
	n.released = true
	a.notes = append(a.notes[:i:i], a.notes[i+1:]...)
}

func (a *Allocator) lowestFree() uint8 {
	for ch := 0; ch < a.numChannels; ch++ {
		if !a.inUse[ch] {
			return uint8(ch)
		}
	}
	// Unreachable: NoteOn frees a channel before scanning when the pool is full.
	panic("allocator: no free channel")
}
