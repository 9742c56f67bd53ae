package probe

import (
	"fmt"
	"strings"

	"go.bug.st/serial/enumerator"
)

// USBSerialProber enumerates serial ports using OS USB metadata.
type USBSerialProber struct{}

// NewUSBSerialProber creates a serial port prober.
func NewUSBSerialProber() *USBSerialProber {
	return &USBSerialProber{}
}

// SerialPorts returns every USB serial port that reports a serial number.
// Ports without USB metadata (built-in UARTs, virtual ports) are skipped
// because they cannot be correlated to a device.
func (p *USBSerialProber) SerialPorts() (map[string]SerialPortDetails, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("serial port enumeration failed: %w", err)
	}

	result := make(map[string]SerialPortDetails)
	for _, port := range ports {
		if !port.IsUSB {
			continue
		}
		result[port.Name] = SerialPortDetails{
			ComPort:      port.Name,
			ComID:        fmt.Sprintf("USB VID:PID=%s:%s", port.VID, port.PID),
			SerialNumber: strings.ToLower(port.SerialNumber),
		}
	}
	return result, nil
}

// Compile-time interface satisfaction check.
var _ SerialPortProber = (*USBSerialProber)(nil)
