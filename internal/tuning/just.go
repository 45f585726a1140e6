package tuning

import "math"

// Ratio tables indexed by semitones above the root.
var scales = map[string][12]float64{
	"5-limit": {
		1, 16.0 / 15, 9.0 / 8, 6.0 / 5, 5.0 / 4, 4.0 / 3,
		45.0 / 32, 3.0 / 2, 8.0 / 5, 5.0 / 3, 9.0 / 5, 15.0 / 8,
	},
	"7-limit": {
		1, 16.0 / 15, 8.0 / 7, 6.0 / 5, 5.0 / 4, 4.0 / 3,
		7.0 / 5, 3.0 / 2, 8.0 / 5, 5.0 / 3, 7.0 / 4, 15.0 / 8,
	},
	"pythagorean": {
		1, 256.0 / 243, 9.0 / 8, 32.0 / 27, 81.0 / 64, 4.0 / 3,
		729.0 / 512, 3.0 / 2, 128.0 / 81, 27.0 / 16, 16.0 / 9, 243.0 / 128,
	},
}

// DefaultScale is used when no scale is configured.
const DefaultScale = "5-limit"

// Just tunes every key against a fixed key centre.
type Just struct {
	Root  uint8
	Scale string
}

func (j Just) CalculateBends(heldPitches []uint8) []float64 {
	bends := make([]float64, len(heldPitches))
	table, ok := lookupScale(j.Scale)
	if !ok {
		return bends
	}
	for i, p := range heldPitches {
		bends[i] = justOffset(table, pitchClass(int(p), j.Root%12))
	}
	return bends
}

// JustChord tunes every key against the lowest key currently held, so each chord is pure
// relative to its own bass note.
type JustChord struct {
	Scale string
}

func (j JustChord) CalculateBends(heldPitches []uint8) []float64 {
	bends := make([]float64, len(heldPitches))
	table, ok := lookupScale(j.Scale)
	if !ok || len(heldPitches) == 0 {
		return bends
	}
	root := heldPitches[0]
	for _, p := range heldPitches[1:] {
		if p < root {
			root = p
		}
	}
	for i, p := range heldPitches {
		bends[i] = justOffset(table, pitchClass(int(p), root%12))
	}
	return bends
}

// Scales lists the available ratio tables.
func Scales() []string {
	return []string{"5-limit", "7-limit", "pythagorean"}
}

func lookupScale(name string) ([12]float64, bool) {
	if name == "" {
		name = DefaultScale
	}
	table, ok := scales[name]
	return table, ok
}

func justOffset(table [12]float64, semitones int) float64 {
	return 12*math.Log2(table[semitones]) - float64(semitones)
}
