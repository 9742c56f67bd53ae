package probe

import (
	"os"
	"path/filepath"
	"strings"
)

// Marker file names on a mounted node volume.
const (
	// BootMarkerName is written by the board runtime at boot.
	// Line 1 is the runtime version banner, line 2 the board ID, and an
	// optional "UID:" line carries the hardware serial number.
	BootMarkerName = "boot_out.txt"

	// RuntimeMarkerName is written by the bundle installer.
	// Key=value lines describe the installed runtime and application.
	RuntimeMarkerName = "qtpy_runtime.cfg"
)

// Runtime marker keys.
const (
	markerKeyRuntime = "python_runtime"
	markerKeyVersion = "app_version"
	markerKeyGroup   = "mqtt_group"
)

// BootMarker holds the parsed boot marker file contents.
type BootMarker struct {
	// RuntimeVersion is the first line of the boot marker.
	RuntimeVersion string

	// BoardID is the board identifier from the second line.
	BoardID string

	// UID is the hardware serial number, lower-cased hex.
	UID string
}

// RuntimeMarker holds the parsed installed-runtime marker contents.
type RuntimeMarker struct {
	// PythonRuntimeTag names the installed runtime.
	PythonRuntimeTag string

	// SensorAppVersion is the installed application version.
	SensorAppVersion string

	// MQTTGroupID is the group the node is configured to join.
	MQTTGroupID string
}

// ReadBootMarker reads the boot marker from a mounted volume.
// A missing or unreadable file is not an error: ok is false and the
// marker is zero.
func ReadBootMarker(driveRoot string) (marker BootMarker, ok bool) {
	data, err := os.ReadFile(filepath.Join(driveRoot, BootMarkerName))
	if err != nil {
		return BootMarker{}, false
	}

	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if len(lines) > 0 {
		marker.RuntimeVersion = strings.TrimSpace(lines[0])
	}
	if len(lines) > 1 {
		marker.BoardID = strings.TrimSpace(strings.TrimPrefix(lines[1], "Board ID:"))
	}
	for _, line := range lines[2:] {
		if uid, found := strings.CutPrefix(strings.TrimSpace(line), "UID:"); found {
			marker.UID = strings.ToLower(strings.TrimSpace(uid))
		}
	}
	return marker, true
}

// ReadRuntimeMarker reads the installed-runtime marker from a mounted
// volume. A missing file degrades to empty fields, never an error.
func ReadRuntimeMarker(driveRoot string) (marker RuntimeMarker, ok bool) {
	data, err := os.ReadFile(filepath.Join(driveRoot, RuntimeMarkerName))
	if err != nil {
		return RuntimeMarker{}, false
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case markerKeyRuntime:
			marker.PythonRuntimeTag = value
		case markerKeyVersion:
			marker.SensorAppVersion = value
		case markerKeyGroup:
			marker.MQTTGroupID = value
		}
	}
	return marker, true
}

// ReadMarkers reads both marker files and flattens them to the
// descriptive fields a device record carries. Absent markers yield
// empty strings.
func ReadMarkers(driveRoot string) (runtimeTag, appVersion, groupID string) {
	if boot, ok := ReadBootMarker(driveRoot); ok {
		runtimeTag = boot.RuntimeVersion
	}
	if runtime, ok := ReadRuntimeMarker(driveRoot); ok {
		if runtime.PythonRuntimeTag != "" {
			runtimeTag = runtime.PythonRuntimeTag
		}
		appVersion = runtime.SensorAppVersion
		groupID = runtime.MQTTGroupID
	}
	return runtimeTag, appVersion, groupID
}
