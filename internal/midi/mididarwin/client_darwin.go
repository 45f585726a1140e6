//go:build darwin
// +build darwin

package mididarwin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/puretones/internal/midi/decode"
	"github.com/leandrodaf/puretones/sdk/contracts"
	"github.com/youpy/go-coremidi"
)

// Error definitions for MIDI connection and handling issues.
var (
	ErrNoMIDIDevices       = errors.New("no MIDI devices found")
	ErrInvalidMIDIDevice   = errors.New("invalid MIDI device")
	ErrMIDIConnectionError = errors.New("error connecting to MIDI device")
	ErrCreateInputPort     = errors.New("error creating input port")
)

// internalPortConnection is an interface for handling disconnection from a MIDI port.
type internalPortConnection interface {
	Disconnect()
}

// ClientMid captures keyboard input through CoreMIDI.
type ClientMid struct {
	logger          contracts.Logger
	deliverMu       sync.RWMutex               // Guards eventChannel; held shared by the CoreMIDI thread while delivering.
	eventChannel    chan contracts.Event       // nil until capture starts and after Stop.
	client          coremidi.Client            // CoreMIDI client instance.
	inputPort       coremidi.InputPort         // Input port for receiving MIDI packets.
	portConn        internalPortConnection     // Connection to the selected source.
	midiEventFilter *contracts.MIDIEventFilter // Commands let through; nil allows all.
	mu              sync.Mutex
	capturing       bool
	stopOnce        sync.Once
}

// NewMIDIClient initializes a CoreMIDI client.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	client, err := coremidi.NewClient(options.CoreMIDIConfig.ClientName)
	if err != nil {
		return nil, err
	}
	options.Logger.Info("MIDI client successfully created")

	return &ClientMid{
		logger:          options.Logger,
		client:          client,
		midiEventFilter: options.MIDIEventFilter,
	}, nil
}

// ListDevices retrieves the available MIDI sources.
func (m *ClientMid) ListDevices() ([]contracts.DeviceInfo, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI sources: %w", err)
	}
	if len(sources) == 0 {
		m.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, len(sources))
	for i, source := range sources {
		sourceEntity := source.Entity()
		devices[i] = contracts.DeviceInfo{
			ID:           i,
			Name:         source.Name(),
			EntityName:   sourceEntity.Name(),
			Manufacturer: sourceEntity.Manufacturer(),
		}
	}
	return devices, nil
}

// SelectDevice connects to the source at deviceID, dropping any previous connection.
func (m *ClientMid) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sources, err := coremidi.AllSources()
	if err != nil {
		return fmt.Errorf("error retrieving MIDI sources: %w", err)
	}
	if deviceID < 0 || deviceID >= len(sources) {
		m.logger.Error(ErrInvalidMIDIDevice.Error(), m.logger.Field().Int("deviceID", deviceID))
		return ErrInvalidMIDIDevice
	}

	if m.portConn != nil {
		m.portConn.Disconnect()
		m.portConn = nil
	}

	source := sources[deviceID]
	m.logger.Info("MIDI device selected",
		m.logger.Field().Int("deviceID", deviceID),
		m.logger.Field().String("deviceName", source.Name()))

	m.inputPort, err = coremidi.NewInputPort(m.client, "PureTones Input", m.handleMIDIMessage)
	if err != nil {
		m.logger.Error(ErrCreateInputPort.Error())
		return fmt.Errorf("%w: %v", ErrCreateInputPort, err)
	}

	m.portConn, err = m.inputPort.Connect(source)
	if err != nil {
		m.logger.Error(ErrMIDIConnectionError.Error())
		return fmt.Errorf("%w: %v", ErrMIDIConnectionError, err)
	}

	m.logger.Info("MIDI device successfully connected")
	return nil
}

// handleMIDIMessage runs on the CoreMIDI thread. A packet may carry several messages; each
// one is validated and handed off without blocking.
func (m *ClientMid) handleMIDIMessage(source coremidi.Source, packet coremidi.Packet) {
	m.deliverMu.RLock()
	defer m.deliverMu.RUnlock()

	if m.eventChannel == nil || len(packet.Data) == 0 {
		return
	}

	events, err := decode.Events(packet.Data, decode.Now())
	if err != nil {
		m.logger.Warn("Dropping MIDI input",
			m.logger.Field().String("source", source.Name()),
			m.logger.Field().Error("error", err))
	}
	for _, event := range events {
		if !m.midiEventFilter.Allows(statusOf(event)) {
			continue
		}
		select {
		case m.eventChannel <- event:
		default:
			m.logger.Warn("Event buffer full; dropping MIDI event")
		}
	}
}

// statusOf returns the command byte the event filter matches against.
func statusOf(event contracts.Event) byte {
	switch event.Kind {
	case contracts.EventNoteOn:
		return byte(contracts.NoteOn)
	case contracts.EventNoteOff:
		return byte(contracts.NoteOff)
	}
	return event.Raw[0]
}

// StartCapture begins delivering events to eventChannel.
func (m *ClientMid) StartCapture(eventChannel chan contracts.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if eventChannel == nil {
		m.logger.Error("StartCapture called with nil eventChannel")
		return
	}
	if m.capturing {
		m.logger.Warn("Capture already started")
		return
	}

	m.logger.Info("Starting MIDI event capture")
	m.deliverMu.Lock()
	m.eventChannel = eventChannel
	m.deliverMu.Unlock()
	m.capturing = true
}

// Stop disconnects from the source. Once it returns no further events are delivered. Only the
// first call has an effect.
func (m *ClientMid) Stop() error {
	m.stopOnce.Do(func() {
		m.logger.Info("Stopping MIDI capture")
		m.mu.Lock()
		defer m.mu.Unlock()

		if m.portConn != nil {
			m.portConn.Disconnect()
			m.portConn = nil
		}
		if m.capturing {
			m.capturing = false
			m.deliverMu.Lock()
			m.eventChannel = nil
			m.deliverMu.Unlock()
			m.logger.Info("MIDI capture stopped")
		}
	})
	return nil
}
