package log

import "time"

// Event is one protocol log record.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID uniquely identifies the owning session (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Group is the MQTT group the event belongs to.
	Group string `cbor:"5,keyasint,omitempty"`

	// Topic is the MQTT topic involved, if any.
	Topic string `cbor:"6,keyasint,omitempty"`

	// NodeID is the remote node involved, if known.
	NodeID string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Message     *MessageEvent     `cbor:"8,keyasint,omitempty"`
	Discard     *DiscardEvent     `cbor:"9,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"10,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"11,keyasint,omitempty"`
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
	// DirectionNone indicates an event without message flow.
	DirectionNone Direction = 2
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	case DirectionNone:
		return "NONE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a published or received payload.
	CategoryMessage Category = 0
	// CategoryDiscard indicates an inbox message dropped during matching.
	CategoryDiscard Category = 1
	// CategoryState indicates a connect-flow state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryDiscard:
		return "DISCARD"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// MessageEvent captures one payload crossing the wire.
type MessageEvent struct {
	// Kind is the payload shape name ("DESCRIPTOR", "ACTION", "UNKNOWN").
	Kind string `cbor:"1,keyasint"`

	// MessageID correlates command/result pairs (empty for descriptors).
	MessageID string `cbor:"2,keyasint,omitempty"`

	// Command is the action command name, if any.
	Command string `cbor:"3,keyasint,omitempty"`

	// Size is the payload size in bytes.
	Size int `cbor:"4,keyasint"`
}

// DiscardEvent captures an inbox message dropped during matching.
type DiscardEvent struct {
	// Reason states why the message was dropped.
	Reason string `cbor:"1,keyasint"`

	// MessageID is the discarded message's ID, if it had one.
	MessageID string `cbor:"2,keyasint,omitempty"`
}

// StateChangeEvent captures connect-flow lifecycle transitions.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`
}
