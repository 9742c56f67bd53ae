package wire

import (
	"errors"
	"time"
)

// Message errors.
var (
	ErrMissingDescriptor = errors.New("payload has no descriptor section")
	ErrMissingAction     = errors.New("payload has no action section")
	ErrMissingSender     = errors.New("payload has no sender section")
)

// Well-known action command names.
const (
	// CommandIdentify asks a node to announce its descriptor.
	CommandIdentify = "identify"

	// CommandStatus asks a node for its memory and temperature status.
	CommandStatus = "status"

	// CommandRestart asks a node to restart its runtime.
	CommandRestart = "restart"
)

// ParameterComplete is the one boolean parameter key allowed on the wire.
// It marks an action result as the final message of an exchange.
const ParameterComplete = "complete"

// NoticeInformation describes the software bundle a sender is running.
type NoticeInformation struct {
	Comment   string `json:"comment"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Timestamp string `json:"timestamp"`
}

// StatusInformation reports a sender's resource usage.
// All values are decimal strings.
type StatusInformation struct {
	UsedMemory     string `json:"used_memory"`
	FreeMemory     string `json:"free_memory"`
	CPUTemperature string `json:"cpu_temperature"`
}

// SenderInformation identifies the session that sent a payload.
// DescriptorTopic doubles as the self-identification token used to
// filter self-originated broadcasts.
type SenderInformation struct {
	DescriptorTopic string            `json:"descriptor_topic"`
	SentAt          string            `json:"sent_at"`
	Status          StatusInformation `json:"status"`
}

// DescriptorInformation identifies a node or controller.
type DescriptorInformation struct {
	NodeID               string            `json:"node_id"`
	SerialNumber         string            `json:"serial_number"`
	HardwareName         string            `json:"hardware_name"`
	SystemName           string            `json:"system_name"`
	PythonImplementation string            `json:"python_implementation"`
	IPAddress            string            `json:"ip_address"`
	Notice               NoticeInformation `json:"notice"`
}

// DescriptorPayload is a self-announcement published to a descriptor topic.
type DescriptorPayload struct {
	Descriptor DescriptorInformation `json:"descriptor"`
	Sender     SenderInformation     `json:"sender"`
}

// Validate checks that the required sections are present.
func (p *DescriptorPayload) Validate() error {
	if p.Descriptor.NodeID == "" {
		return ErrMissingDescriptor
	}
	if p.Sender.DescriptorTopic == "" {
		return ErrMissingSender
	}
	return nil
}

// ActionInformation carries one command or result.
// Parameters values are strings or nested objects of strings, except for
// the ParameterComplete boolean.
type ActionInformation struct {
	Command    string         `json:"command"`
	Parameters map[string]any `json:"parameters"`
	MessageID  string         `json:"message_id"`
}

// Complete reports the value of the ParameterComplete flag.
func (a *ActionInformation) Complete() bool {
	v, ok := a.Parameters[ParameterComplete].(bool)
	return ok && v
}

// SetComplete sets the ParameterComplete flag.
func (a *ActionInformation) SetComplete(done bool) {
	if a.Parameters == nil {
		a.Parameters = make(map[string]any)
	}
	a.Parameters[ParameterComplete] = done
}

// ActionPayload is a command or result published to a command, result,
// or broadcast topic.
type ActionPayload struct {
	Action ActionInformation `json:"action"`
	Sender SenderInformation `json:"sender"`
}

// Validate checks that the required sections are present.
func (p *ActionPayload) Validate() error {
	if p.Action.Command == "" || p.Action.MessageID == "" {
		return ErrMissingAction
	}
	if p.Sender.DescriptorTopic == "" {
		return ErrMissingSender
	}
	return nil
}

// IsFrom reports whether the payload was sent by the session identified
// by descriptorTopic.
func (p *ActionPayload) IsFrom(descriptorTopic string) bool {
	return p.Sender.DescriptorTopic == descriptorTopic
}

// NewSender builds a SenderInformation stamped with the current time.
func NewSender(descriptorTopic string, status StatusInformation) SenderInformation {
	return SenderInformation{
		DescriptorTopic: descriptorTopic,
		SentAt:          time.Now().UTC().Format(time.RFC3339),
		Status:          status,
	}
}
