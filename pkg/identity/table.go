package identity

import "sync"

// GroupDeviceTable maps group names to the devices last discovered in
// each group. It is the UI-facing derived structure: callers apply each
// new scan result and receive the added and removed serial sets.
// Safe for concurrent use.
type GroupDeviceTable struct {
	mu     sync.RWMutex
	groups map[string]map[string]DeviceRecord
}

// NewGroupDeviceTable creates an empty table.
func NewGroupDeviceTable() *GroupDeviceTable {
	return &GroupDeviceTable{groups: make(map[string]map[string]DeviceRecord)}
}

// Apply replaces a group's devices with a new scan result and returns
// the serial numbers that appeared and disappeared. Records present in
// both scans are refreshed from the new data, never retained from the
// old scan.
func (t *GroupDeviceTable) Apply(group string, discovered map[string]DeviceRecord) (added, removed []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	known := t.groups[group]
	for serial := range discovered {
		if _, ok := known[serial]; !ok {
			added = append(added, serial)
		}
	}
	for serial := range known {
		if _, ok := discovered[serial]; !ok {
			removed = append(removed, serial)
		}
	}

	replacement := make(map[string]DeviceRecord, len(discovered))
	for serial, record := range discovered {
		replacement[serial] = record
	}
	t.groups[group] = replacement
	return added, removed
}

// Records returns a copy of the devices last discovered in a group.
func (t *GroupDeviceTable) Records(group string) map[string]DeviceRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	records := make(map[string]DeviceRecord, len(t.groups[group]))
	for serial, record := range t.groups[group] {
		records[serial] = record
	}
	return records
}

// Groups returns the known group names.
func (t *GroupDeviceTable) Groups() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.groups))
	for name := range t.groups {
		names = append(names, name)
	}
	return names
}
