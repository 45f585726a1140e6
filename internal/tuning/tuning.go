// Package tuning holds the tuning strategies the instrument can switch between. Every strategy
// returns bend offsets in semitones relative to the 12-TET pitch of each key.
package tuning

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/leandrodaf/puretones/sdk/contracts"
)

// ErrUnknownTuning is returned when a tuning name is not in the registry.
var ErrUnknownTuning = errors.New("unknown tuning")

// Strategy names.
const (
	NameNone      = "none"
	NameEqual     = "equal"
	NameJust      = "just"
	NameJustChord = "just-chord"
)

var registry = map[string]func(contracts.TuningConfig) contracts.TuningStrategy{
	NameNone: func(contracts.TuningConfig) contracts.TuningStrategy {
		return None{}
	},
	NameEqual: func(cfg contracts.TuningConfig) contracts.TuningStrategy {
		return Equal{Root: cfg.Root, Divisions: cfg.Divisions}
	},
	NameJust: func(cfg contracts.TuningConfig) contracts.TuningStrategy {
		return Just{Root: cfg.Root, Scale: cfg.Scale}
	},
	NameJustChord: func(cfg contracts.TuningConfig) contracts.TuningStrategy {
		return JustChord{Scale: cfg.Scale}
	},
}

// New builds the strategy named by cfg. An empty name selects None.
func New(cfg contracts.TuningConfig) (contracts.TuningStrategy, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Name))
	if name == "" {
		name = NameNone
	}
	build, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownTuning, cfg.Name, strings.Join(Names(), ", "))
	}
	return build(cfg), nil
}

// Names lists the registered strategy names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// None leaves every key at its 12-TET pitch.
type None struct{}

func (None) CalculateBends(heldPitches []uint8) []float64 {
	return make([]float64, len(heldPitches))
}

func pitchClass(pitch int, root uint8) int {
	return ((pitch-int(root))%12 + 12) % 12
}
