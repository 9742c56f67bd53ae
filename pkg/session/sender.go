package session

import (
	"strconv"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/wire"
)

// CurrentStatus samples the local host's memory and temperature for the
// sender section of an outgoing payload. Values are decimal strings per
// the wire convention; unavailable readings stay empty.
func CurrentStatus() wire.StatusInformation {
	var status wire.StatusInformation

	if vm, err := mem.VirtualMemory(); err == nil {
		status.UsedMemory = strconv.FormatUint(vm.Used, 10)
		status.FreeMemory = strconv.FormatUint(vm.Available, 10)
	}
	if temps, err := host.SensorsTemperatures(); err == nil && len(temps) > 0 {
		status.CPUTemperature = strconv.FormatFloat(temps[0].Temperature, 'f', 1, 64)
	}
	return status
}
