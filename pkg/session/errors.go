package session

import "errors"

// Session errors.
var (
	// ErrBrokerUnreachable indicates the broker refused or timed out the
	// connection attempt. Distinct from a reachable broker with zero
	// responding nodes.
	ErrBrokerUnreachable = errors.New("mqtt broker is unreachable")

	// ErrActionTimeout indicates a command/result wait exceeded its
	// budget. The exchange is not retried automatically.
	ErrActionTimeout = errors.New("no response received for action")

	// ErrSessionClosed indicates an operation on a closed session.
	ErrSessionClosed = errors.New("session is closed")
)
