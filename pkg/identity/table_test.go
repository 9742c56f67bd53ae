package identity

import (
	"sort"
	"testing"
)

func TestGroupDeviceTableDiff(t *testing.T) {
	table := NewGroupDeviceTable()

	table.Apply("zone-a", map[string]DeviceRecord{
		"aa": {SerialNumber: "aa", NodeID: "node-aa-0", SensorAppVersion: "1.0.0"},
		"bb": {SerialNumber: "bb", NodeID: "node-bb-0", SensorAppVersion: "1.0.0"},
	})

	added, removed := table.Apply("zone-a", map[string]DeviceRecord{
		"bb": {SerialNumber: "bb", NodeID: "node-bb-0", SensorAppVersion: "2.0.0"},
		"cc": {SerialNumber: "cc", NodeID: "node-cc-0"},
	})

	sort.Strings(added)
	sort.Strings(removed)
	if len(added) != 1 || added[0] != "cc" {
		t.Errorf("added = %v, want [cc]", added)
	}
	if len(removed) != 1 || removed[0] != "aa" {
		t.Errorf("removed = %v, want [aa]", removed)
	}

	// The surviving record is refreshed from the new scan.
	records := table.Records("zone-a")
	if got := records["bb"].SensorAppVersion; got != "2.0.0" {
		t.Errorf("bb SensorAppVersion = %q, want refreshed 2.0.0", got)
	}
}

func TestGroupDeviceTableGroupsAreIndependent(t *testing.T) {
	table := NewGroupDeviceTable()

	table.Apply("zone-a", map[string]DeviceRecord{"aa": {SerialNumber: "aa", NodeID: "n"}})
	table.Apply("zone-b", map[string]DeviceRecord{"bb": {SerialNumber: "bb", NodeID: "n"}})

	if _, ok := table.Records("zone-a")["bb"]; ok {
		t.Error("zone-b record leaked into zone-a")
	}
	if len(table.Groups()) != 2 {
		t.Errorf("Groups() = %v, want two groups", table.Groups())
	}
}

func TestGroupDeviceTableRecordsReturnsCopy(t *testing.T) {
	table := NewGroupDeviceTable()
	table.Apply("zone-a", map[string]DeviceRecord{"aa": {SerialNumber: "aa", NodeID: "n"}})

	records := table.Records("zone-a")
	delete(records, "aa")

	if _, ok := table.Records("zone-a")["aa"]; !ok {
		t.Error("mutating the returned map changed the table")
	}
}
