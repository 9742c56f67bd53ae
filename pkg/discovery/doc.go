// Package discovery finds QT Py sensor nodes across every transport the
// host can see.
//
// A scan runs three probes: USB serial port enumeration, removable disk
// volume enumeration, and an MQTT identify broadcast. The serial and
// volume probes run concurrently. The MQTT probe announces this
// controller's descriptor, subscribes the group's broadcast and
// wildcard-descriptor topics, broadcasts an identify command, and then
// drains the session inbox for the full scan window collecting the
// descriptors that arrive. Probe outputs feed identity.Correlate, which
// merges the per-transport views into unified device records.
//
// The package also locates MQTT brokers via mDNS when none is
// configured.
package discovery
