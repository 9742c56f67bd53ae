package discovery

import "errors"

var (
	// ErrDiscoveryEmpty reports a scan that reached the broker but found
	// no devices on any transport. Distinct from a connection failure.
	ErrDiscoveryEmpty = errors.New("discovery found no devices")

	// ErrAppUnsupported reports that nodes responded but none of them
	// runs the requested application.
	ErrAppUnsupported = errors.New("no discovered node runs the requested application")

	// ErrNoBroker reports that the mDNS browse window closed without any
	// MQTT broker answering.
	ErrNoBroker = errors.New("no MQTT broker found via mDNS")
)
