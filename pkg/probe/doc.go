// Package probe queries the raw, independently keyed data sources that
// each expose a partial view of the attached sensor nodes: USB serial
// ports, mounted disk volumes, and the marker files a node leaves on its
// storage volume.
//
// Each probe returns a flat mapping from a locally scoped key (port name,
// drive root) to string-valued details. The probes are order-independent
// and are merged by serial number in package identity. A probe failure is
// fatal to the discovery attempt that issued it; a missing marker file on
// a mounted volume is not an error.
package probe
