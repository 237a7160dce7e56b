package hwinfo

import (
	"fmt"
	"sort"

	"github.com/ExclusiveAccount/hwident/pkg/smbios"
)

// Snap captures the base snapshot (CPU and firmware identity) through
// DefaultProbe.
func Snap() (*Motherboard, error) { return SnapWith(DefaultProbe) }

// SnapWith captures the base snapshot through p.
func SnapWith(p Probe) (*Motherboard, error) {
	cpu := p.CPU()
	if cpu.TooOld {
		return nil, ErrCPUTooOld
	}
	blob, err := p.SMBIOS()
	if err != nil {
		return nil, fmt.Errorf("capture smbios: %w", err)
	}
	mb := &Motherboard{CPU: cpu, SMBIOS: SMBIOSInfo{Blob: blob}}
	if uuid, ok := smbios.SystemUUID(blob.Data); ok {
		mb.SMBIOS.UUID = uuid
	}
	return mb, nil
}

// SnapEx captures the extended snapshot (base plus drive, adapter and
// artifact inventory) through DefaultProbe.
func SnapEx() (*MotherboardEx, error) { return SnapExWith(DefaultProbe) }

// SnapExWith captures the extended snapshot through p. A failed drive
// enumeration degrades to an empty drive list; the probe reports the cause
// through its logger.
func SnapExWith(p Probe) (*MotherboardEx, error) {
	mb, err := SnapWith(p)
	if err != nil {
		return nil, err
	}
	ex := &MotherboardEx{Motherboard: *mb}
	if drives, err := p.Drives(); err == nil {
		SortDrives(drives)
		ex.Drives = drives
	}
	ex.Adapters, ex.AdaptersAccessDenied = p.Adapters()
	ex.Artifacts = p.Artifacts()
	return ex, nil
}

// SortDrives orders drives ascending by serial, byte-wise, the canonical
// order for fingerprinting.
func SortDrives(drives []PhysicalDriveInfo) {
	sort.Slice(drives, func(i, j int) bool {
		return drives[i].Serial < drives[j].Serial
	})
}
