package contracts

// TuningStrategy maps the currently held pitches to per-note bend offsets in semitones.
//
// CalculateBends must return a slice with the same length and order as heldPitches, must not
// keep state between calls, and must return all zeros when it cannot resolve its own
// configuration instead of failing the caller.
type TuningStrategy interface {
	CalculateBends(heldPitches []uint8) []float64
}

// TuningConfig selects a tuning strategy by name.
type TuningConfig struct {
	Name      string // One of "none", "equal", "just", "just-chord".
	Root      uint8  // Pitch class (0 = C) the scale is anchored to.
	Divisions int    // Steps per octave for "equal".
	Scale     string // Ratio table for "just" and "just-chord": "5-limit", "7-limit", "pythagorean".
}
