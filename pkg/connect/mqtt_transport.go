package connect

import (
	"time"

	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/session"
	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/wire"
)

// DefaultActionTimeout bounds one command/result exchange.
const DefaultActionTimeout = 5 * time.Second

// MqttTransport addresses one node over an already-open session.
// The session stays owned by the caller; closing the transport does not
// close it.
type MqttTransport struct {
	sess    *session.Session
	nodeID  string
	timeout time.Duration
}

// NewMqttTransport wraps a session and a target node ID.
func NewMqttTransport(sess *session.Session, nodeID string, timeout time.Duration) *MqttTransport {
	if timeout == 0 {
		timeout = DefaultActionTimeout
	}
	return &MqttTransport{sess: sess, nodeID: nodeID, timeout: timeout}
}

// NodeID returns the target node's MQTT identity.
func (t *MqttTransport) NodeID() string { return t.nodeID }

// Do sends one command and waits for the node's matching result.
func (t *MqttTransport) Do(command string, parameters map[string]any) (*wire.ActionPayload, error) {
	sent, err := t.sess.SendAction(t.nodeID, command, parameters)
	if err != nil {
		return nil, err
	}
	result, _, err := t.sess.MatchResult(sent, t.timeout)
	return result, err
}

// Identify asks the node to announce itself.
func (t *MqttTransport) Identify() (*wire.ActionPayload, error) {
	return t.Do(wire.CommandIdentify, nil)
}

// Status asks the node for its current readings.
func (t *MqttTransport) Status() (*wire.ActionPayload, error) {
	return t.Do(wire.CommandStatus, nil)
}
