package connect

import "errors"

var (
	// ErrTransportUnavailable reports a device record with no usable
	// transport for the requested connection.
	ErrTransportUnavailable = errors.New("no transport available for device")

	// ErrMalformedPort reports a port argument that is not a valid
	// serial port name.
	ErrMalformedPort = errors.New("malformed serial port name")

	// ErrReservedPort reports an attempt to open a port reserved for
	// the host system.
	ErrReservedPort = errors.New("serial port is reserved")

	// ErrNoChooser reports a blocking interactive choice with no
	// chooser wired, such as a dual-mode record in a non-interactive
	// run without an explicit preference.
	ErrNoChooser = errors.New("interactive choice required but no chooser configured")
)
