package connect

import (
	"fmt"
	"time"

	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/log"
)

// State is one step of the interactive connect flow.
type State int

const (
	StateIdle State = iota
	StateDiscovering
	StateNoDevices
	StateDevicesFound
	StateDeviceSelected
	StateNoTransport
	StateTransportSelected
	StateSessionOpen
	StateSessionClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateDiscovering:
		return "Discovering"
	case StateNoDevices:
		return "NoDevices"
	case StateDevicesFound:
		return "DevicesFound"
	case StateDeviceSelected:
		return "DeviceSelected"
	case StateNoTransport:
		return "NoTransport"
	case StateTransportSelected:
		return "TransportSelected"
	case StateSessionOpen:
		return "SessionOpen"
	case StateSessionClosed:
		return "SessionClosed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// legalTransitions lists each state's permitted successors. NoDevices,
// NoTransport, and SessionClosed are terminal.
var legalTransitions = map[State][]State{
	StateIdle:              {StateDiscovering},
	StateDiscovering:       {StateNoDevices, StateDevicesFound},
	StateDevicesFound:      {StateDeviceSelected},
	StateDeviceSelected:    {StateNoTransport, StateTransportSelected},
	StateTransportSelected: {StateSessionOpen},
	StateSessionOpen:       {StateSessionClosed},
}

// Machine tracks connect-flow progress and logs every transition.
type Machine struct {
	state  State
	logger log.Logger
}

// NewMachine starts a machine in Idle.
func NewMachine(logger log.Logger) *Machine {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &Machine{state: StateIdle, logger: logger}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Advance moves to the next state, rejecting transitions the flow does
// not define.
func (m *Machine) Advance(next State, reason string) error {
	for _, allowed := range legalTransitions[m.state] {
		if allowed == next {
			m.logger.Log(log.Event{
				Timestamp: time.Now().UTC(),
				Direction: log.DirectionNone,
				Category:  log.CategoryState,
				StateChange: &log.StateChangeEvent{
					OldState: m.state.String(),
					NewState: next.String(),
					Reason:   reason,
				},
			})
			m.state = next
			return nil
		}
	}
	return fmt.Errorf("illegal transition %s -> %s", m.state, next)
}

// Terminal reports whether the machine can advance no further.
func (m *Machine) Terminal() bool {
	return len(legalTransitions[m.state]) == 0
}
