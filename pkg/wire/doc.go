// Package wire defines the MQTT topic namespace and the JSON payload
// envelopes exchanged between controllers and sensor nodes.
//
// Two payload shapes travel on the wire: DescriptorPayload, a
// self-announcement describing a node or controller, and ActionPayload,
// a command or result in a request/response exchange. Every field on the
// wire is a string or a nested object of strings; the single exception is
// the boolean "complete" entry in action parameters, used as an
// application-level completion flag.
//
// Message IDs are formed as "{command}-{N}" where N is a strictly
// increasing per-command counter scoped to one sending session. The
// sender's descriptor topic doubles as a self-identification token so
// receivers can filter their own broadcasts.
package wire
