package probe

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMarker(t *testing.T, root, name, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(root, name), []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestReadBootMarker(t *testing.T) {
	root := t.TempDir()
	writeMarker(t, root, BootMarkerName,
		"Adafruit CircuitPython 9.0.0 on 2024-03-19; Adafruit QT Py ESP32-S3\r\n"+
			"Board ID:adafruit_qtpy_esp32s3\r\n"+
			"UID:11CC11CC11CC\r\n")

	marker, ok := ReadBootMarker(root)
	if !ok {
		t.Fatal("ReadBootMarker ok = false, want true")
	}
	if marker.BoardID != "adafruit_qtpy_esp32s3" {
		t.Errorf("BoardID = %q", marker.BoardID)
	}
	if marker.UID != "11cc11cc11cc" {
		t.Errorf("UID = %q, want lower-cased 11cc11cc11cc", marker.UID)
	}
	if marker.RuntimeVersion == "" {
		t.Error("RuntimeVersion is empty")
	}
}

func TestReadBootMarkerMissingIsNotAnError(t *testing.T) {
	marker, ok := ReadBootMarker(t.TempDir())
	if ok {
		t.Error("ok = true for missing marker")
	}
	if marker != (BootMarker{}) {
		t.Errorf("marker = %+v, want zero value", marker)
	}
}

func TestReadRuntimeMarker(t *testing.T) {
	root := t.TempDir()
	writeMarker(t, root, RuntimeMarkerName,
		"# installed by equip tooling\n"+
			"python_runtime = circuitpython-9.0.0\n"+
			"app_version = 1.2.3\n"+
			"mqtt_group = zone-a\n")

	marker, ok := ReadRuntimeMarker(root)
	if !ok {
		t.Fatal("ReadRuntimeMarker ok = false, want true")
	}
	if marker.PythonRuntimeTag != "circuitpython-9.0.0" {
		t.Errorf("PythonRuntimeTag = %q", marker.PythonRuntimeTag)
	}
	if marker.SensorAppVersion != "1.2.3" {
		t.Errorf("SensorAppVersion = %q", marker.SensorAppVersion)
	}
	if marker.MQTTGroupID != "zone-a" {
		t.Errorf("MQTTGroupID = %q", marker.MQTTGroupID)
	}
}

func TestReadMarkersDegradesGracefully(t *testing.T) {
	// No marker files at all: empty strings, no panic, no error surface.
	runtimeTag, appVersion, groupID := ReadMarkers(t.TempDir())
	if runtimeTag != "" || appVersion != "" || groupID != "" {
		t.Errorf("got (%q, %q, %q), want empty strings", runtimeTag, appVersion, groupID)
	}
}

func TestReadMarkersRuntimeMarkerWins(t *testing.T) {
	root := t.TempDir()
	writeMarker(t, root, BootMarkerName, "banner 8.0.0\nBoard ID:qtpy\nUID:aa\n")
	writeMarker(t, root, RuntimeMarkerName, "python_runtime = circuitpython-9.0.0\n")

	runtimeTag, _, _ := ReadMarkers(root)
	if runtimeTag != "circuitpython-9.0.0" {
		t.Errorf("runtimeTag = %q, want installed marker value", runtimeTag)
	}
}

func TestVolumeLabel(t *testing.T) {
	tests := []struct {
		mountpoint string
		want       string
	}{
		{"/media/user/CIRCUITPY", "CIRCUITPY"},
		{"T:", ""},
		{"/", ""},
	}
	for _, tt := range tests {
		if got := volumeLabel(tt.mountpoint); got != tt.want {
			t.Errorf("volumeLabel(%q) = %q, want %q", tt.mountpoint, got, tt.want)
		}
	}
}
