// Package connect turns a discovered device record into an open
// interactive session.
//
// Selection follows two rules. A record with exactly one populated
// transport connects over it automatically. A dual-mode record either
// honors the caller's explicit preference, or blocks on a human choice
// when no preference was given; silently picking a medium could attach
// the operator to the wrong physical device. When a scan yields several
// devices the same choice pattern applies first, ordered by serial
// number with the lowest as the default.
//
// The interactive flow is a strict state machine:
//
//	Idle → Discovering → {NoDevices, DevicesFound} → DeviceSelected →
//	{NoTransport, TransportSelected} → SessionOpen → SessionClosed
//
// NoDevices and NoTransport are terminal failure states.
package connect
