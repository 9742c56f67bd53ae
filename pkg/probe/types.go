package probe

// SerialPortDetails describes one enumerated USB serial port.
type SerialPortDetails struct {
	// ComPort is the platform port name (e.g. "COM4", "/dev/ttyACM0").
	ComPort string

	// ComID is the hardware identifier string (USB VID:PID).
	ComID string

	// SerialNumber is the USB device serial number, lower-cased hex.
	SerialNumber string
}

// VolumeDetails describes one enumerated disk volume.
type VolumeDetails struct {
	// DriveRoot is the mount point (e.g. "T:", "/media/CIRCUITPY").
	DriveRoot string

	// DriveLabel is the volume label. Derived from the mount point, so
	// it is empty on Windows where volumes mount at bare drive roots
	// that carry no label component.
	DriveLabel string

	// SerialNumber is the device serial number, lower-cased hex.
	SerialNumber string

	// DeviceDescription is the raw human-readable device description.
	DeviceDescription string
}

// SerialPortProber enumerates USB serial ports.
type SerialPortProber interface {
	// SerialPorts returns a mapping from port name to port details.
	SerialPorts() (map[string]SerialPortDetails, error)
}

// VolumeProber enumerates mounted disk volumes.
type VolumeProber interface {
	// DiskVolumes returns a mapping from drive root to volume details.
	DiskVolumes() (map[string]VolumeDetails, error)
}
