// Package puretones is the public entry point: it wires a MIDI input client, the retuning
// engine and an output port into a single instrument.
package puretones

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/puretones/internal/engine"
	"github.com/leandrodaf/puretones/internal/midi/midiout"
	"github.com/leandrodaf/puretones/internal/midi/midirtmidi"
	"github.com/leandrodaf/puretones/internal/tuning"
	"github.com/leandrodaf/puretones/sdk/contracts"
	gomidi "gitlab.com/gomidi/midi/v2"
	"go.uber.org/multierr"
)

// Error definitions for the instrument lifecycle.
var (
	ErrAlreadyRunning = errors.New("instrument already running")
	ErrStopped        = errors.New("instrument stopped")
)

// Instrument retunes every key played on the input and replays it on the output.
type Instrument struct {
	logger contracts.Logger
	input  contracts.ClientMIDI
	writer *midiout.Writer
	port   *midirtmidi.Port
	engine *engine.Engine
	buffer int

	mu      sync.Mutex
	running bool
	stopped bool
}

// NewInstrument creates an instrument with the specified options.
// It applies default options, selects the tuning strategy, picks the platform input client
// and opens the output port (or uses the sender set with WithSender).
//
// opts ...contracts.Option: A variadic list of option functions to customize the instrument.
//
// Returns:
//   - *Instrument: The instrument, ready for device selection and Run.
//   - error: ErrInvalidOptions or ErrUnknownTuning for bad configuration, ErrUnsupportedOS
//     when no input client exists, or the error from opening the output port.
func NewInstrument(opts ...contracts.Option) (*Instrument, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}
	log := options.Logger

	strategy, err := tuning.New(options.Tuning)
	if err != nil {
		return nil, err
	}

	input, err := NewInputClient(&options)
	if err != nil {
		return nil, err
	}

	inst := &Instrument{logger: log, input: input, buffer: options.EventBuffer}

	var send func(gomidi.Message) error
	if options.Sender != nil {
		send = func(msg gomidi.Message) error {
			return options.Sender(msg.Bytes())
		}
	} else {
		port, err := midirtmidi.OpenPort(options.OutputPort)
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("open output port: %w", err), input.Stop())
		}
		log.Info("Output port opened", log.Field().String("port", port.Name))
		inst.port = port
		send = port.Send
	}

	inst.writer = midiout.NewWriter(send, midiout.Config{
		BendRange: options.BendRange,
		Buffer:    options.EventBuffer,
		Logger:    log,
		OnError:   options.OnTransmitError,
	})
	inst.engine = engine.New(engine.Config{
		NumChannels:  options.NumChannels,
		RampDuration: options.RampDuration,
		TickInterval: options.TickInterval,
		Strategy:     strategy,
	}, inst.writer, log)

	log.Info("Instrument ready",
		log.Field().Int("channels", options.NumChannels),
		log.Field().Duration("ramp", options.RampDuration),
		log.Field().Duration("tick", options.TickInterval),
		log.Field().String("tuning", options.Tuning.Name))
	return inst, nil
}

// ListDevices lists the MIDI inputs.
func (i *Instrument) ListDevices() ([]contracts.DeviceInfo, error) {
	return i.input.ListDevices()
}

// SelectDevice opens the MIDI input with the given ID.
func (i *Instrument) SelectDevice(deviceID int) error {
	return i.input.SelectDevice(deviceID)
}

// SetTuning switches strategy. Held notes glide from their current bend to the new targets.
func (i *Instrument) SetTuning(cfg contracts.TuningConfig) error {
	strategy, err := tuning.New(cfg)
	if err != nil {
		return err
	}
	i.engine.SetStrategy(strategy)
	i.logger.Info("Tuning changed", i.logger.Field().String("tuning", cfg.Name))
	return nil
}

// Notes returns the held notes in arrival order.
func (i *Instrument) Notes() []engine.NoteState {
	return i.engine.Notes()
}

// Run captures input and drives the engine until ctx is done. Held notes are released
// on return.
//
// Returns:
//   - error: nil when ctx is cancelled, ErrAlreadyRunning or ErrStopped when the instrument
//     cannot run, otherwise the error that ended the engine loop.
func (i *Instrument) Run(ctx context.Context) error {
	i.mu.Lock()
	if i.stopped {
		i.mu.Unlock()
		return ErrStopped
	}
	if i.running {
		i.mu.Unlock()
		return ErrAlreadyRunning
	}
	i.running = true
	i.mu.Unlock()

	defer func() {
		i.mu.Lock()
		i.running = false
		i.mu.Unlock()
	}()

	events := make(chan contracts.Event, i.buffer)
	i.input.StartCapture(events)
	i.logger.Info("Instrument running")

	err := i.engine.Run(ctx, events)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Stop closes the input, flushes pending output and closes the output port. Call it after
// Run has returned so the final note-offs reach the port.
func (i *Instrument) Stop() error {
	i.mu.Lock()
	if i.stopped {
		i.mu.Unlock()
		return nil
	}
	i.stopped = true
	i.mu.Unlock()

	err := multierr.Combine(i.input.Stop(), i.writer.Close())
	if i.port != nil {
		err = multierr.Append(err, i.port.Close())
	}
	if err != nil {
		i.logger.Error("Failed to stop instrument", i.logger.Field().Error("error", err))
		return err
	}
	i.logger.Info("Instrument stopped")
	return nil
}
