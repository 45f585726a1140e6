package puretones

import (
	"errors"
	"fmt"

	"github.com/leandrodaf/puretones/internal/allocator"
	"github.com/leandrodaf/puretones/internal/engine"
	"github.com/leandrodaf/puretones/internal/logger"
	"github.com/leandrodaf/puretones/internal/midi/midiout"
	"github.com/leandrodaf/puretones/internal/tuning"
	"github.com/leandrodaf/puretones/sdk/contracts"
)

// ErrInvalidOptions is returned when an option is outside its accepted range.
var ErrInvalidOptions = errors.New("invalid options")

// defaultEventBuffer sizes the inbound and outbound queues.
const defaultEventBuffer = 128

// applyDefaultOptions sets default values for ClientOptions if not explicitly provided
// and validates the result.
//
// opts ...contracts.Option: A variadic list of option functions that can modify ClientOptions.
//
// Returns:
//   - contracts.ClientOptions: The finalized options with defaults applied.
//   - error: An error if the log file cannot be opened, or ErrInvalidOptions when a value is
//     out of range or the tuning name is unknown.
func applyDefaultOptions(opts ...contracts.Option) (contracts.ClientOptions, error) {
	options := &contracts.ClientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.LogLevel == 0 {
		options.LogLevel = contracts.InfoLevel
	}
	if options.CoreMIDIConfig == nil {
		options.CoreMIDIConfig = &contracts.CoreMIDIConfig{ClientName: "puretones"}
	}
	if options.NumChannels == 0 {
		options.NumChannels = allocator.MaxChannels
	}
	if options.TickInterval == 0 {
		options.TickInterval = engine.DefaultTickInterval
	}
	if options.RampDuration == 0 {
		options.RampDuration = engine.DefaultRampDuration
	}
	if options.BendRange == 0 {
		options.BendRange = midiout.DefaultBendRange
	}
	if options.EventBuffer == 0 {
		options.EventBuffer = defaultEventBuffer
	}

	options.Logger.SetLevel(options.LogLevel)
	if options.LogFilePath != "" {
		if err := options.Logger.SetDestination(contracts.FileLog, options.LogFilePath); err != nil {
			return *options, fmt.Errorf("log file: %w", err)
		}
	}

	return *options, validateOptions(options)
}

func validateOptions(o *contracts.ClientOptions) error {
	switch {
	case o.NumChannels < 1 || o.NumChannels > allocator.MaxChannels:
		return fmt.Errorf("%w: channel count %d not in 1..%d", ErrInvalidOptions, o.NumChannels, allocator.MaxChannels)
	case o.TickInterval < 0:
		return fmt.Errorf("%w: tick interval %s", ErrInvalidOptions, o.TickInterval)
	case o.RampDuration < 0:
		return fmt.Errorf("%w: ramp duration %s", ErrInvalidOptions, o.RampDuration)
	case o.BendRange < 0:
		return fmt.Errorf("%w: bend range %g", ErrInvalidOptions, o.BendRange)
	case o.EventBuffer < 0:
		return fmt.Errorf("%w: event buffer %d", ErrInvalidOptions, o.EventBuffer)
	}
	if _, err := tuning.New(o.Tuning); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	return nil
}
