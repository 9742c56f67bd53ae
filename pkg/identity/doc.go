// Package identity merges the partial, differently keyed views returned
// by the raw source probes into a single device table keyed by canonical
// serial number.
//
// Correlation strictly requires an exact serial number match after
// lower-case normalization; there is no fuzzy matching. A USB-only and
// an MQTT-only view that fail to correlate are treated as two distinct
// devices. Records are rebuilt fresh on every discovery pass and fully
// replace their predecessors; GroupDeviceTable computes the added and
// removed sets a UI needs when applying a new scan.
package identity
