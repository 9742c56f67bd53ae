package probe

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
)

// GopsutilVolumeProber enumerates mounted disk volumes via the OS
// partition table. The underlying OS call can block, so discovery runs
// this prober on its own worker goroutine.
type GopsutilVolumeProber struct{}

// NewGopsutilVolumeProber creates a disk volume prober.
func NewGopsutilVolumeProber() *GopsutilVolumeProber {
	return &GopsutilVolumeProber{}
}

// removableFilesystems lists the filesystem types node storage volumes use.
var removableFilesystems = map[string]struct{}{
	"fat":   {},
	"fat32": {},
	"vfat":  {},
	"msdos": {},
	"exfat": {},
	"FAT":   {},
	"FAT32": {},
}

// DiskVolumes returns every mounted volume that carries a boot marker.
// The marker's UID line provides the volume's serial number; volumes
// without one cannot be correlated and are skipped.
func (p *GopsutilVolumeProber) DiskVolumes() (map[string]VolumeDetails, error) {
	partitions, err := disk.Partitions(false)
	if err != nil {
		return nil, fmt.Errorf("disk volume enumeration failed: %w", err)
	}

	result := make(map[string]VolumeDetails)
	for _, part := range partitions {
		if _, ok := removableFilesystems[part.Fstype]; !ok {
			continue
		}
		boot, ok := ReadBootMarker(part.Mountpoint)
		if !ok || boot.UID == "" {
			continue
		}
		result[part.Mountpoint] = VolumeDetails{
			DriveRoot:         part.Mountpoint,
			DriveLabel:        volumeLabel(part.Mountpoint),
			SerialNumber:      boot.UID,
			DeviceDescription: boot.BoardID,
		}
	}
	return result, nil
}

// volumeLabel derives the label from the mount point, which matches
// the filesystem label on systems that mount under /media or /Volumes.
// Windows mounts at the bare drive root and the partition table does
// not expose the label there, so it stays empty; the record still
// correlates through the serial number and the boot marker fields.
func volumeLabel(mountpoint string) string {
	label := filepath.Base(mountpoint)
	if label == "." || label == string(filepath.Separator) || strings.HasSuffix(mountpoint, ":") {
		return ""
	}
	return label
}

// Compile-time interface satisfaction check.
var _ VolumeProber = (*GopsutilVolumeProber)(nil)
