package connect

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"
)

// DefaultBaudRate matches the CircuitPython console on the QT Py boards.
const DefaultBaudRate = 115200

// SerialTransport is a line-oriented UART connection to a node's
// CircuitPython console.
type SerialTransport struct {
	port   serial.Port
	reader *bufio.Reader
	name   string
}

// OpenSerial validates the port name and opens it. Validation failures
// (ErrMalformedPort, ErrReservedPort) surface before any I/O happens.
func OpenSerial(name string, baud int) (*SerialTransport, error) {
	if err := ValidatePort(name); err != nil {
		return nil, err
	}
	if baud == 0 {
		baud = DefaultBaudRate
	}

	port, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return &SerialTransport{
		port:   port,
		reader: bufio.NewReader(port),
		name:   name,
	}, nil
}

// Name returns the port name.
func (t *SerialTransport) Name() string { return t.name }

// SendLine writes one line, appending CRLF the way the node's console
// expects.
func (t *SerialTransport) SendLine(line string) error {
	if _, err := t.port.Write([]byte(line + "\r\n")); err != nil {
		return fmt.Errorf("write %s: %w", t.name, err)
	}
	return nil
}

// ReadLine reads one line, waiting up to the timeout. The trailing line
// ending is stripped.
func (t *SerialTransport) ReadLine(timeout time.Duration) (string, error) {
	if err := t.port.SetReadTimeout(timeout); err != nil {
		return "", fmt.Errorf("set read timeout %s: %w", t.name, err)
	}
	line, err := t.reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read %s: %w", t.name, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Close releases the port.
func (t *SerialTransport) Close() error {
	return t.port.Close()
}
