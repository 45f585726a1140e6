package contracts

import "time"

// MIDICommand represents the types of MIDI commands for event filtering.
type MIDICommand byte

const (
	// NoteOff is the MIDI command for a Note Off event (0x80).
	NoteOff MIDICommand = 0x80
	// NoteOn is the MIDI command for a Note On event (0x90).
	NoteOn MIDICommand = 0x90
	// PolyAftertouch is the MIDI command for polyphonic key pressure (0xA0).
	PolyAftertouch MIDICommand = 0xA0
	// ControlChange is the MIDI command for a Control Change event (0xB0).
	ControlChange MIDICommand = 0xB0
	// ProgramChange is the MIDI command for a Program Change event (0xC0).
	ProgramChange MIDICommand = 0xC0
	// ChannelPressure is the MIDI command for channel aftertouch (0xD0).
	ChannelPressure MIDICommand = 0xD0
	// PitchBend is the MIDI command for a Pitch Bend event (0xE0).
	PitchBend MIDICommand = 0xE0
)

// MIDIEventFilter allows users to specify which MIDI commands to capture.
type MIDIEventFilter struct {
	Commands []MIDICommand // List of MIDI commands to let through.
}

// Allows reports whether command passes the filter. A nil filter allows everything.
func (f *MIDIEventFilter) Allows(command byte) bool {
	if f == nil {
		return true
	}
	for _, allowed := range f.Commands {
		if command&0xF0 == byte(allowed) {
			return true
		}
	}
	return false
}

// CoreMIDIConfig holds configuration for CoreMIDI.
type CoreMIDIConfig struct {
	ClientName string // Name of the MIDI client.
}

// ClientOptions defines the configuration options for the instrument.
type ClientOptions struct {
	Logger          Logger           // Logger for logging events and errors.
	LogLevel        LogLevel         // Level of logging to use.
	LogFilePath     string           // File path for logging if file logging is enabled.
	MIDIEventFilter *MIDIEventFilter // Optional filter for MIDI events to capture.
	CoreMIDIConfig  *CoreMIDIConfig  // Configuration specific to CoreMIDI.

	NumChannels  int           // Size of the output channel pool (1-16).
	RampDuration time.Duration // Time a bend takes to reach a newly computed target.
	TickInterval time.Duration // Period of the bend scheduler.
	BendRange    float64       // Synth pitch-bend range in semitones (full deflection).
	Tuning       TuningConfig  // Initially selected tuning strategy.
	EventBuffer  int           // Capacity of the inbound and outbound queues.

	OutputPort      string             // Output port name (substring match); empty picks the first port.
	InputClient     ClientMIDI         // Overrides the platform input client.
	Sender          func([]byte) error // Overrides the output port; receives encoded messages.
	OnTransmitError func(error)        // Called when an outbound message cannot be delivered.
}

// Option is a function that modifies ClientOptions.
type Option func(*ClientOptions)

// WithLogger sets the logger for the instrument.
func WithLogger(l Logger) Option {
	return func(opts *ClientOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level.
func WithLogLevel(level LogLevel) Option {
	return func(opts *ClientOptions) {
		opts.LogLevel = level
	}
}

// WithLogFile sends log output to the given file instead of the console.
func WithLogFile(path string) Option {
	return func(opts *ClientOptions) {
		opts.LogFilePath = path
	}
}

// WithMIDIEventFilter sets the MIDI event filter for the input client.
func WithMIDIEventFilter(filter MIDIEventFilter) Option {
	return func(opts *ClientOptions) {
		opts.MIDIEventFilter = &filter
	}
}

// WithCoreMIDIConfig sets the CoreMIDI configuration for the input client.
func WithCoreMIDIConfig(config CoreMIDIConfig) Option {
	return func(opts *ClientOptions) {
		opts.CoreMIDIConfig = &config
	}
}

// WithNumChannels sets the size of the output channel pool.
func WithNumChannels(n int) Option {
	return func(opts *ClientOptions) {
		opts.NumChannels = n
	}
}

// WithRampDuration sets how long a bend ramp lasts.
func WithRampDuration(d time.Duration) Option {
	return func(opts *ClientOptions) {
		opts.RampDuration = d
	}
}

// WithTickInterval sets the bend scheduler period.
func WithTickInterval(d time.Duration) Option {
	return func(opts *ClientOptions) {
		opts.TickInterval = d
	}
}

// WithBendRange sets the synthesizer's pitch-bend range in semitones.
func WithBendRange(semitones float64) Option {
	return func(opts *ClientOptions) {
		opts.BendRange = semitones
	}
}

// WithTuning selects the initial tuning strategy.
func WithTuning(cfg TuningConfig) Option {
	return func(opts *ClientOptions) {
		opts.Tuning = cfg
	}
}

// WithEventBuffer sets the capacity of the inbound and outbound queues.
func WithEventBuffer(n int) Option {
	return func(opts *ClientOptions) {
		opts.EventBuffer = n
	}
}

// WithOutputPort selects the output port by name.
func WithOutputPort(name string) Option {
	return func(opts *ClientOptions) {
		opts.OutputPort = name
	}
}

// WithInputClient replaces the platform input client.
func WithInputClient(c ClientMIDI) Option {
	return func(opts *ClientOptions) {
		opts.InputClient = c
	}
}

// WithSender replaces the output port with a custom transmit function.
func WithSender(send func([]byte) error) Option {
	return func(opts *ClientOptions) {
		opts.Sender = send
	}
}

// WithTransmitErrorHandler registers a callback for outbound transmission failures.
func WithTransmitErrorHandler(fn func(error)) Option {
	return func(opts *ClientOptions) {
		opts.OnTransmitError = fn
	}
}
