package identity

// DeviceRecord is the canonical unit of device identity, assembled from
// up to three raw sources. A record with neither ComPort nor NodeID is
// meaningless and is never emitted by Correlate.
type DeviceRecord struct {
	// SerialNumber is the unique identity key, lower-cased hex.
	SerialNumber string

	// ComPort and ComHardwareID are present only if USB-visible.
	ComPort       string
	ComHardwareID string

	// DriveLabel and DriveRoot are present only if the device is
	// USB-visible and mounted as storage.
	DriveLabel string
	DriveRoot  string

	// DeviceDescription is the human-readable name, corrected via the
	// static alias table.
	DeviceDescription string

	// IPAddress and NodeID are present only if MQTT-visible.
	IPAddress string
	NodeID    string

	PythonRuntimeTag string
	SensorAppVersion string
	MQTTGroupID      string
}

// HasSerialTransport reports whether the record can be reached over USB.
func (r DeviceRecord) HasSerialTransport() bool {
	return r.ComPort != ""
}

// HasNetworkTransport reports whether the record can be reached over MQTT.
func (r DeviceRecord) HasNetworkTransport() bool {
	return r.NodeID != ""
}

// IsDualMode reports whether both transports are available.
func (r DeviceRecord) IsDualMode() bool {
	return r.HasSerialTransport() && r.HasNetworkTransport()
}

// NodeAnnouncement is the MQTT-sourced view of a device, extracted from
// a descriptor broadcast response.
type NodeAnnouncement struct {
	// SerialNumber is the node's hardware serial, lower-cased hex.
	SerialNumber string

	// NodeID is the node's MQTT identity.
	NodeID string

	// IPAddress is the node's WiFi address.
	IPAddress string

	// HardwareName is the node's self-reported hardware description.
	HardwareName string

	// SensorAppVersion is the version of the running application.
	// It reflects live software and wins over disk marker contents.
	SensorAppVersion string

	// AppName identifies the running application (from the notice).
	AppName string

	// GroupID is the group the announcement was observed in.
	GroupID string
}
