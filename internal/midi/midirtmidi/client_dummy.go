//go:build !cgo

package midirtmidi

import (
	"errors"
	"fmt"

	"github.com/leandrodaf/puretones/sdk/contracts"
	gomidi "gitlab.com/gomidi/midi/v2"
)

// ErrNoDriver is returned when the binary was built without cgo, which rtmidi requires.
var ErrNoDriver = errors.New("rtmidi driver unavailable: built without cgo")

type dummyMIDIClient struct {
	logger contracts.Logger
}

// NewMIDIClient returns a client that only reports the missing driver.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	options.Logger.Info("Using dummy MIDI client: rtmidi needs cgo")
	return &dummyMIDIClient{logger: options.Logger}, nil
}

func (m *dummyMIDIClient) ListDevices() ([]contracts.DeviceInfo, error) {
	m.logger.Warn("ListDevices called on dummy MIDI client")
	return nil, ErrNoDriver
}

func (m *dummyMIDIClient) SelectDevice(deviceID int) error {
	m.logger.Warn("SelectDevice called on dummy MIDI client")
	return fmt.Errorf("select device %d: %w", deviceID, ErrNoDriver)
}

func (m *dummyMIDIClient) StartCapture(eventChannel chan contracts.Event) {
	m.logger.Warn("StartCapture called on dummy MIDI client")
}

func (m *dummyMIDIClient) Stop() error {
	return nil
}

// Port is an open output port.
type Port struct {
	Name string
	Send func(gomidi.Message) error
}

// OpenPort always fails without cgo.
func OpenPort(name string) (*Port, error) {
	return nil, ErrNoDriver
}

// OutputNames always fails without cgo.
func OutputNames() ([]string, error) {
	return nil, ErrNoDriver
}

// Close is a no-op.
func (p *Port) Close() error {
	return nil
}
