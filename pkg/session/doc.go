// Package session owns the single multiplexed MQTT connection a
// controller uses to talk to sensor nodes.
//
// One Session wraps one broker connection, one subscription set, and one
// shared inbox of incoming topic/message pairs. Both broadcast discovery
// scans and point-to-point command/result exchanges drain the same
// inbox, so every consumer follows the requeue discipline: a popped
// message that does not match the consumer's interest is re-enqueued for
// the other listeners, and only self-originated messages are dropped
// (with a logged reason). Anyone adding a new concurrent command type
// must keep this invariant.
//
// Message IDs are unique per session only. Matching therefore always
// checks the sender's descriptor topic in addition to the message ID.
package session
