package wire

import (
	"errors"
	"fmt"
	"strings"
)

// Topic namespace constants.
const (
	// TopicPrefix is the root of the topic namespace.
	TopicPrefix = "qtpy"

	// TopicVersion is the protocol version segment.
	TopicVersion = "v1"

	// DescriptorLeaf is the reserved leaf for node self-announcements.
	DescriptorLeaf = "$DESCRIPTOR"
)

// Topic errors.
var (
	ErrInvalidTopic = errors.New("topic does not belong to the qtpy namespace")
)

// BroadcastTopic returns the group-wide broadcast topic.
func BroadcastTopic(group string) string {
	return fmt.Sprintf("%s/%s/%s/broadcast", TopicPrefix, TopicVersion, group)
}

// CommandTopic returns the command topic for a specific node.
func CommandTopic(group, nodeID string) string {
	return fmt.Sprintf("%s/%s/%s/%s/command", TopicPrefix, TopicVersion, group, nodeID)
}

// ResultTopic returns the result topic for a specific node.
func ResultTopic(group, nodeID string) string {
	return fmt.Sprintf("%s/%s/%s/%s/result", TopicPrefix, TopicVersion, group, nodeID)
}

// DescriptorTopic returns the self-announcement topic for a specific node.
func DescriptorTopic(group, nodeID string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", TopicPrefix, TopicVersion, group, nodeID, DescriptorLeaf)
}

// AllDescriptorsTopic returns the wildcard subscription that observes every
// node's self-announcement in a group.
func AllDescriptorsTopic(group string) string {
	return fmt.Sprintf("%s/%s/%s/+/%s", TopicPrefix, TopicVersion, group, DescriptorLeaf)
}

// LogTopic returns the group-wide log topic.
func LogTopic(group string) string {
	return fmt.Sprintf("%s/%s/%s/log", TopicPrefix, TopicVersion, group)
}

// ParseDescriptorTopic extracts the group and node ID from a descriptor
// topic. Returns ErrInvalidTopic for topics outside the namespace.
func ParseDescriptorTopic(topic string) (group, nodeID string, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 5 || parts[0] != TopicPrefix || parts[1] != TopicVersion || parts[4] != DescriptorLeaf {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}
	return parts[2], parts[3], nil
}

// ParseNodeTopic extracts the group, node ID, and leaf ("command", "result",
// or DescriptorLeaf) from a per-node topic.
func ParseNodeTopic(topic string) (group, nodeID, leaf string, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 5 || parts[0] != TopicPrefix || parts[1] != TopicVersion {
		return "", "", "", fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}
	return parts[2], parts[3], parts[4], nil
}
