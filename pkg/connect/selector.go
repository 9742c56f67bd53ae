package connect

import (
	"fmt"
	"sort"

	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/discovery"
	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/identity"
)

// TransportKind identifies the medium a connection uses.
type TransportKind int

const (
	TransportNone TransportKind = iota
	TransportSerial
	TransportMQTT
)

func (k TransportKind) String() string {
	switch k {
	case TransportSerial:
		return "serial"
	case TransportMQTT:
		return "mqtt"
	default:
		return "none"
	}
}

// Preference is the caller's transport preference for dual-mode devices.
type Preference int

const (
	// PreferAuto defers dual-mode records to the interactive chooser.
	PreferAuto Preference = iota
	PreferSerial
	PreferMQTT
)

// Chooser obtains one index-based selection from the operator. An empty
// answer selects index 0.
type Chooser interface {
	Choose(prompt string, options []string) (int, error)
}

// FirstChoice is a non-interactive Chooser that always takes the
// default option. Used by scripted runs that must never block.
type FirstChoice struct{}

func (FirstChoice) Choose(prompt string, options []string) (int, error) { return 0, nil }

// SelectTransport decides which transport to use for a device record.
//
// A single populated transport is selected automatically. An explicit
// preference is honored only when that transport's fields are populated;
// otherwise the result is ErrTransportUnavailable rather than a silent
// fallback to the other medium. A dual-mode record with no preference
// blocks on the chooser.
func SelectTransport(record identity.DeviceRecord, preference Preference, chooser Chooser) (TransportKind, error) {
	hasSerial := record.HasSerialTransport()
	hasNetwork := record.HasNetworkTransport()

	switch preference {
	case PreferSerial:
		if !hasSerial {
			return TransportNone, fmt.Errorf("%w: %s has no serial port", ErrTransportUnavailable, record.SerialNumber)
		}
		return TransportSerial, nil
	case PreferMQTT:
		if !hasNetwork {
			return TransportNone, fmt.Errorf("%w: %s has no MQTT node", ErrTransportUnavailable, record.SerialNumber)
		}
		return TransportMQTT, nil
	}

	switch {
	case hasSerial && !hasNetwork:
		return TransportSerial, nil
	case hasNetwork && !hasSerial:
		return TransportMQTT, nil
	case !hasSerial && !hasNetwork:
		return TransportNone, fmt.Errorf("%w: %s", ErrTransportUnavailable, record.SerialNumber)
	}

	if chooser == nil {
		return TransportNone, ErrNoChooser
	}
	options := []string{
		fmt.Sprintf("serial  %s", record.ComPort),
		fmt.Sprintf("mqtt    %s", record.NodeID),
	}
	index, err := chooser.Choose("Select a transport", options)
	if err != nil {
		return TransportNone, err
	}
	if index == 1 {
		return TransportMQTT, nil
	}
	return TransportSerial, nil
}

// ChooseDevice picks one record from a scan result. Candidates are
// sorted by serial number so the listing is deterministic; the lowest
// serial is the default. A single candidate is returned without
// prompting.
func ChooseDevice(records map[string]identity.DeviceRecord, chooser Chooser) (identity.DeviceRecord, error) {
	serials := make([]string, 0, len(records))
	for serial := range records {
		serials = append(serials, serial)
	}
	sort.Strings(serials)

	switch len(serials) {
	case 0:
		return identity.DeviceRecord{}, discovery.ErrDiscoveryEmpty
	case 1:
		return records[serials[0]], nil
	}

	if chooser == nil {
		return identity.DeviceRecord{}, ErrNoChooser
	}
	options := make([]string, len(serials))
	for i, serial := range serials {
		record := records[serial]
		options[i] = fmt.Sprintf("%s  %s", serial, record.DeviceDescription)
	}
	index, err := chooser.Choose("Select a device", options)
	if err != nil {
		return identity.DeviceRecord{}, err
	}
	if index < 0 || index >= len(serials) {
		return identity.DeviceRecord{}, fmt.Errorf("selection %d out of range", index)
	}
	return records[serials[index]], nil
}
