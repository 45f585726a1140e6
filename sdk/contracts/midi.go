package contracts

// EventKind identifies an inbound event delivered by a MIDI input client.
type EventKind uint8

const (
	// EventOther is any message the core does not interpret; it is passed through untouched.
	EventOther EventKind = iota
	// EventNoteOn is a key press with a non-zero velocity.
	EventNoteOn
	// EventNoteOff is a key release (including note-on with velocity 0).
	EventNoteOff
)

// Event is an inbound MIDI event, already validated at the adapter boundary.
type Event struct {
	Timestamp uint64    // Timestamp indicates the time the event occurred (Unix nanoseconds).
	Kind      EventKind // Kind tells how the core should treat the event.
	Pitch     uint8     // Pitch is the MIDI note number (0-127) for note events.
	Velocity  uint8     // Velocity is the key velocity (0-127) for note-on events.
	Raw       []byte    // Raw holds the original bytes; only meaningful for EventOther.
}

// MessageKind identifies an outbound message.
type MessageKind uint8

const (
	MessageNoteOn MessageKind = iota
	MessageNoteOff
	MessagePitchBend
	MessageRaw
)

// Message is an outbound control message addressed to one output channel.
// Bend is expressed in semitones; the send path converts it to the wire range.
type Message struct {
	Kind     MessageKind
	Channel  uint8
	Pitch    uint8
	Velocity uint8
	Bend     float64
	Raw      []byte
}

// Sink accepts outbound messages. Implementations must not block the caller.
type Sink interface {
	Send(msg Message)
}

// ClientMIDI defines an interface for MIDI input client operations.
type ClientMIDI interface {
	Stop() error                          // Stops the MIDI client and releases resources.
	ListDevices() ([]DeviceInfo, error)   // Lists all available MIDI input devices.
	SelectDevice(deviceID int) error      // Selects a MIDI device by its ID for communication.
	StartCapture(eventChannel chan Event) // Starts capturing MIDI events and sends them to the specified channel.
}
