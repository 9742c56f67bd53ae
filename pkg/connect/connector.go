package connect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/discovery"
	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/identity"
	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/log"
	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/session"
)

// Connector runs the discover-select-open flow end to end.
type Connector struct {
	// Scanner performs the device scan.
	Scanner *discovery.Scanner

	// Chooser resolves blocking choices. Nil makes dual-mode records
	// and multi-device scans fail with ErrNoChooser instead of hanging.
	Chooser Chooser

	// Preference pre-decides the transport for dual-mode records.
	Preference Preference

	// BaudRate for serial connections (default: DefaultBaudRate).
	BaudRate int

	// ActionTimeout for MQTT exchanges (default: DefaultActionTimeout).
	ActionTimeout time.Duration

	// Logger receives state transition events.
	Logger log.Logger
}

// Connection is an open link to one selected device.
type Connection struct {
	// Record is the device the connection targets.
	Record identity.DeviceRecord

	// Kind tells which of Serial or Mqtt is populated.
	Kind TransportKind

	Serial *SerialTransport
	Mqtt   *MqttTransport

	machine *Machine
}

// Connect discovers devices on the session's group, resolves the device
// and transport choices, and opens the selected transport.
//
// Failures keep their taxonomy: ErrBrokerUnreachable happened before
// this call (the session is already open), ErrDiscoveryEmpty means the
// scan found nothing, ErrTransportUnavailable means the chosen device
// cannot be reached the requested way.
func (c *Connector) Connect(ctx context.Context, sess *session.Session) (*Connection, error) {
	machine := NewMachine(c.Logger)

	if err := machine.Advance(StateDiscovering, "scan requested"); err != nil {
		return nil, err
	}
	result, err := c.Scanner.Discover(ctx, sess)
	if err != nil {
		if errors.Is(err, discovery.ErrDiscoveryEmpty) || errors.Is(err, discovery.ErrAppUnsupported) {
			_ = machine.Advance(StateNoDevices, err.Error())
		}
		return nil, err
	}
	if err := machine.Advance(StateDevicesFound, fmt.Sprintf("%d devices", len(result.Records))); err != nil {
		return nil, err
	}

	record, err := ChooseDevice(result.Records, c.Chooser)
	if err != nil {
		return nil, err
	}
	if err := machine.Advance(StateDeviceSelected, record.SerialNumber); err != nil {
		return nil, err
	}

	kind, err := SelectTransport(record, c.Preference, c.Chooser)
	if err != nil {
		if errors.Is(err, ErrTransportUnavailable) {
			_ = machine.Advance(StateNoTransport, err.Error())
		}
		return nil, err
	}
	if err := machine.Advance(StateTransportSelected, kind.String()); err != nil {
		return nil, err
	}

	conn := &Connection{Record: record, Kind: kind, machine: machine}
	switch kind {
	case TransportSerial:
		serial, err := OpenSerial(record.ComPort, c.BaudRate)
		if err != nil {
			return nil, err
		}
		conn.Serial = serial
	case TransportMQTT:
		conn.Mqtt = NewMqttTransport(sess, record.NodeID, c.ActionTimeout)
	}

	if err := machine.Advance(StateSessionOpen, ""); err != nil {
		if conn.Serial != nil {
			conn.Serial.Close()
		}
		return nil, err
	}
	return conn, nil
}

// Close shuts the connection's transport down. The underlying MQTT
// session belongs to the caller and stays open.
func (conn *Connection) Close() error {
	var err error
	if conn.Serial != nil {
		err = conn.Serial.Close()
	}
	if conn.machine != nil && conn.machine.State() == StateSessionOpen {
		_ = conn.machine.Advance(StateSessionClosed, "")
	}
	return err
}
