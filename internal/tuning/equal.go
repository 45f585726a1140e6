package tuning

import "math"

// Equal retunes each key to the nearest step of an octave divided into Divisions equal parts,
// with Root (a pitch class) falling on a step.
type Equal struct {
	Root      uint8
	Divisions int
}

func (e Equal) CalculateBends(heldPitches []uint8) []float64 {
	bends := make([]float64, len(heldPitches))
	if e.Divisions <= 0 {
		return bends
	}
	step := 12 / float64(e.Divisions)
	for i, p := range heldPitches {
		rel := float64(int(p) - int(e.Root%12))
		bends[i] = math.Round(rel/step)*step - rel
	}
	return bends
}
