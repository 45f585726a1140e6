package puretones

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/leandrodaf/puretones/internal/midi/mididarwin"
	"github.com/leandrodaf/puretones/internal/midi/midirtmidi"
	"github.com/leandrodaf/puretones/internal/midi/midiwindows"
	"github.com/leandrodaf/puretones/sdk/contracts"
)

// ErrUnsupportedOS is returned when no input client exists for the running system.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// clientInitializers maps OS names to input client constructors.
var clientInitializers = map[string]func(*contracts.ClientOptions) (contracts.ClientMIDI, error){
	"darwin":  mididarwin.NewMIDIClient,
	"windows": midiwindows.NewMIDIClient,
	"linux":   midirtmidi.NewMIDIClient,
}

// NewInputClient initializes a MIDI input client based on the current operating system.
// It supports macOS (Darwin), Windows and Linux, and returns opts.InputClient untouched when
// one was supplied with WithInputClient.
//
// opts *contracts.ClientOptions: Configuration options for the input client.
//
// Returns:
//   - contracts.ClientMIDI: An instance of the input client.
//   - error: ErrUnsupportedOS if the operating system is unsupported, or the initializer's error.
func NewInputClient(opts *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	if opts.InputClient != nil {
		return opts.InputClient, nil
	}
	if initializer, exists := clientInitializers[runtime.GOOS]; exists {
		return initializer(opts)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedOS, runtime.GOOS)
}
