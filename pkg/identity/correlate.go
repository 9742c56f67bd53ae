package identity

import (
	"strings"

	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/probe"
)

// MarkerFunc probes a mounted volume for the boot and installed-runtime
// markers and returns the descriptive fields they carry. Absent markers
// yield empty strings.
type MarkerFunc func(driveRoot string) (runtimeTag, appVersion, groupID string)

// Correlator merges raw source views into device records.
type Correlator struct {
	// ReadMarkers probes a mounted volume's file system. Nil disables
	// marker probing (all marker-derived fields stay empty).
	ReadMarkers MarkerFunc
}

// NewCorrelator creates a correlator that reads marker files from the
// mounted volume.
func NewCorrelator() *Correlator {
	return &Correlator{ReadMarkers: probe.ReadMarkers}
}

// Correlate merges the three raw source views into a mapping from
// canonical serial number to device record.
//
// Volumes pair with serial ports by exact case-insensitive serial match.
// MQTT announcements overlay matching USB records (live ip, node ID, and
// app version win over static disk contents) and produce MQTT-only
// records where no USB view exists. Serial-port entries without a
// matching volume are not emitted: without storage attributes there is
// no way to confirm the port belongs to a sensor node.
func (c *Correlator) Correlate(
	serialPorts map[string]probe.SerialPortDetails,
	diskVolumes map[string]probe.VolumeDetails,
	mqttNodes map[string]NodeAnnouncement,
) map[string]DeviceRecord {
	records := make(map[string]DeviceRecord)

	// Step 1: pair every volume with its serial port by serial number.
	for _, volume := range diskVolumes {
		serial := normalizeSerial(volume.SerialNumber)
		if serial == "" {
			continue
		}

		port, found := findPortBySerial(serialPorts, serial)
		if !found {
			continue
		}

		record := DeviceRecord{
			SerialNumber:      serial,
			ComPort:           port.ComPort,
			ComHardwareID:     port.ComID,
			DriveLabel:        volume.DriveLabel,
			DriveRoot:         volume.DriveRoot,
			DeviceDescription: CorrectDescription(volume.DeviceDescription),
		}
		if c.ReadMarkers != nil {
			record.PythonRuntimeTag, record.SensorAppVersion, record.MQTTGroupID = c.ReadMarkers(volume.DriveRoot)
		}
		records[serial] = record
	}

	// Steps 2 and 3: overlay dual-mode devices, emit MQTT-only devices.
	for rawSerial, node := range mqttNodes {
		serial := normalizeSerial(rawSerial)
		if serial == "" {
			continue
		}

		if existing, dualMode := records[serial]; dualMode {
			existing.NodeID = node.NodeID
			existing.IPAddress = node.IPAddress
			if node.SensorAppVersion != "" {
				existing.SensorAppVersion = node.SensorAppVersion
			}
			if node.GroupID != "" {
				existing.MQTTGroupID = node.GroupID
			}
			records[serial] = existing
			continue
		}

		records[serial] = DeviceRecord{
			SerialNumber:      serial,
			NodeID:            node.NodeID,
			IPAddress:         node.IPAddress,
			DeviceDescription: CorrectDescription(node.HardwareName),
			SensorAppVersion:  node.SensorAppVersion,
			MQTTGroupID:       node.GroupID,
		}
	}

	return records
}

// findPortBySerial searches serial ports for an exact case-insensitive
// serial number match.
func findPortBySerial(ports map[string]probe.SerialPortDetails, serial string) (probe.SerialPortDetails, bool) {
	for _, port := range ports {
		if normalizeSerial(port.SerialNumber) == serial {
			return port, true
		}
	}
	return probe.SerialPortDetails{}, false
}

// normalizeSerial canonicalizes a serial number for matching.
func normalizeSerial(serial string) string {
	return strings.ToLower(strings.TrimSpace(serial))
}
