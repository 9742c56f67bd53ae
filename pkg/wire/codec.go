package wire

import (
	"encoding/json"
	"fmt"
)

// PayloadKind identifies the shape of a decoded payload.
type PayloadKind int

const (
	// KindUnknown is a payload that matches neither wire shape.
	KindUnknown PayloadKind = iota

	// KindDescriptor is a DescriptorPayload.
	KindDescriptor

	// KindAction is an ActionPayload.
	KindAction
)

// String returns the kind name.
func (k PayloadKind) String() string {
	switch k {
	case KindDescriptor:
		return "DESCRIPTOR"
	case KindAction:
		return "ACTION"
	default:
		return "UNKNOWN"
	}
}

// EncodeDescriptor encodes a descriptor payload to UTF-8 JSON.
func EncodeDescriptor(p *DescriptorPayload) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid descriptor payload: %w", err)
	}
	return json.Marshal(p)
}

// DecodeDescriptor decodes JSON bytes into a descriptor payload.
func DecodeDescriptor(data []byte) (*DescriptorPayload, error) {
	var p DescriptorPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode descriptor payload: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid descriptor payload: %w", err)
	}
	return &p, nil
}

// EncodeAction encodes an action payload to UTF-8 JSON.
func EncodeAction(p *ActionPayload) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid action payload: %w", err)
	}
	return json.Marshal(p)
}

// DecodeAction decodes JSON bytes into an action payload.
func DecodeAction(data []byte) (*ActionPayload, error) {
	var p ActionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode action payload: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid action payload: %w", err)
	}
	return &p, nil
}

// Classify inspects JSON bytes and reports which wire shape they carry
// without requiring the caller to attempt both decodes.
func Classify(data []byte) PayloadKind {
	var peek struct {
		Descriptor *json.RawMessage `json:"descriptor"`
		Action     *json.RawMessage `json:"action"`
	}
	if err := json.Unmarshal(data, &peek); err != nil {
		return KindUnknown
	}
	switch {
	case peek.Descriptor != nil:
		return KindDescriptor
	case peek.Action != nil:
		return KindAction
	default:
		return KindUnknown
	}
}
