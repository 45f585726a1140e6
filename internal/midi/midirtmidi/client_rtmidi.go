//go:build cgo

package midirtmidi

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/leandrodaf/puretones/internal/midi/decode"
	"github.com/leandrodaf/puretones/sdk/contracts"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"go.uber.org/multierr"
)

// Error definitions for rtmidi ports.
var (
	ErrNoMIDIDevices     = errors.New("no MIDI devices found")
	ErrInvalidMIDIDevice = errors.New("invalid MIDI device")
	ErrNoOutputPorts     = errors.New("no MIDI output ports found")
)

// ClientMid captures MIDI input through the rtmidi driver.
type ClientMid struct {
	logger          contracts.Logger
	drv             *rtmididrv.Driver
	midiEventFilter *contracts.MIDIEventFilter

	mu           sync.Mutex
	inPort       drivers.In
	stopListen   func()
	eventChannel chan contracts.Event
}

// NewMIDIClient opens the rtmidi driver for input.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	options.Logger.Info("MIDI client created for rtmidi")
	return &ClientMid{
		logger:          options.Logger,
		drv:             drv,
		midiEventFilter: options.MIDIEventFilter,
	}, nil
}

// ListDevices lists the available MIDI input ports.
func (m *ClientMid) ListDevices() ([]contracts.DeviceInfo, error) {
	ins, err := m.drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI inputs: %w", err)
	}
	if len(ins) == 0 {
		m.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}
	devices := make([]contracts.DeviceInfo, len(ins))
	for i, in := range ins {
		devices[i] = contracts.DeviceInfo{ID: i, Name: in.String(), EntityName: in.String()}
	}
	return devices, nil
}

// SelectDevice opens the input port at deviceID, closing any previous one.
func (m *ClientMid) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ins, err := m.drv.Ins()
	if err != nil {
		return fmt.Errorf("error retrieving MIDI inputs: %w", err)
	}
	if deviceID < 0 || deviceID >= len(ins) {
		m.logger.Error(ErrInvalidMIDIDevice.Error(), m.logger.Field().Int("deviceID", deviceID))
		return ErrInvalidMIDIDevice
	}

	if err := m.closePort(); err != nil {
		m.logger.Warn("Failed to close previous MIDI input", m.logger.Field().Error("error", err))
	}

	in := ins[deviceID]
	if err := in.Open(); err != nil {
		return fmt.Errorf("open %q: %w", in.String(), err)
	}
	m.inPort = in
	m.logger.Info("MIDI device selected",
		m.logger.Field().Int("deviceID", deviceID),
		m.logger.Field().String("deviceName", in.String()))

	if m.eventChannel != nil {
		return m.listen()
	}
	return nil
}

// StartCapture starts delivering events from the selected port to eventChannel.
func (m *ClientMid) StartCapture(eventChannel chan contracts.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if eventChannel == nil {
		m.logger.Error("StartCapture called with nil eventChannel")
		return
	}
	if m.eventChannel != nil {
		m.logger.Warn("Capture already started")
		return
	}
	m.eventChannel = eventChannel
	if m.inPort == nil {
		m.logger.Warn("No MIDI device selected; capture starts on selection")
		return
	}
	if err := m.listen(); err != nil {
		m.logger.Error("Failed to start MIDI capture", m.logger.Field().Error("error", err))
	}
}

func (m *ClientMid) listen() error {
	events := m.eventChannel
	name := m.inPort.String()
	stop, err := gomidi.ListenTo(m.inPort, func(msg gomidi.Message, _ int32) {
		m.deliver(events, msg.Bytes())
	}, gomidi.HandleError(func(err error) {
		m.logger.Warn("MIDI listener error",
			m.logger.Field().String("device", name),
			m.logger.Field().Error("error", err))
	}))
	if err != nil {
		return fmt.Errorf("listen %q: %w", name, err)
	}
	m.stopListen = stop
	m.logger.Info("MIDI capture started", m.logger.Field().String("device", name))
	return nil
}

func (m *ClientMid) deliver(events chan contracts.Event, raw []byte) {
	if len(raw) == 0 || !m.midiEventFilter.Allows(raw[0]) {
		return
	}
	ev, err := decode.Event(raw, decode.Now())
	if err != nil {
		m.logger.Warn("Dropping MIDI input", m.logger.Field().Error("error", err))
		return
	}
	select {
	case events <- ev:
	default:
		m.logger.Warn("MIDI event channel is full; event discarded")
	}
}

// Stop ends capture and releases the port and the driver.
func (m *ClientMid) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.closePort()
	m.eventChannel = nil
	err = multierr.Append(err, m.drv.Close())
	m.logger.Info("MIDI capture stopped")
	return err
}

func (m *ClientMid) closePort() error {
	if m.stopListen != nil {
		m.stopListen()
		m.stopListen = nil
	}
	if m.inPort == nil {
		return nil
	}
	err := m.inPort.Close()
	m.inPort = nil
	return err
}

// Port is an open output port.
type Port struct {
	Name string
	Send func(gomidi.Message) error

	out drivers.Out
	drv *rtmididrv.Driver
}

// OpenPort opens the first output port whose name contains name (case-insensitive), or the
// first port when name is empty.
func OpenPort(name string) (*Port, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	outs, err := drv.Outs()
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("error listing MIDI outputs: %w", err), drv.Close())
	}

	var out drivers.Out
	for _, o := range outs {
		if name == "" || strings.Contains(strings.ToLower(o.String()), strings.ToLower(name)) {
			out = o
			break
		}
	}
	if out == nil {
		return nil, multierr.Append(fmt.Errorf("%w: %q", ErrNoOutputPorts, name), drv.Close())
	}

	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("open output %q: %w", out.String(), err), drv.Close())
	}
	return &Port{Name: out.String(), Send: send, out: out, drv: drv}, nil
}

// OutputNames lists the available output ports.
func OutputNames() ([]string, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	defer drv.Close()
	outs, err := drv.Outs()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(outs))
	for i, o := range outs {
		names[i] = o.String()
	}
	return names, nil
}

// Close closes the port and its driver.
func (p *Port) Close() error {
	return multierr.Combine(p.out.Close(), p.drv.Close())
}
