// Package fingerprint serializes hardware snapshots into a canonical byte
// sequence and collapses it into a 256-bit fingerprint. Two snapshots with
// identical field values always serialize to identical bytes, regardless of
// when or in what order the hardware was enumerated.
package fingerprint

import (
	"encoding/binary"

	"github.com/ExclusiveAccount/hwident/pkg/hashes"
	"github.com/ExclusiveAccount/hwident/pkg/hwinfo"
)

// Hasher collapses a serialized snapshot into a digest. The default is the
// package's own SHA-256 engine.
type Hasher func(data []byte) hashes.Hash256

// Serialize renders the base snapshot in the canonical field order: vendor
// string, version dword, brand index, cache-line size, logical processor
// count, brand string, the three feature words, the SMBIOS calling-method
// flag and version bytes, then the 16 UUID bytes. The APIC id and the raw
// table bytes do not participate.
func Serialize(mb *hwinfo.Motherboard) []byte {
	return appendMotherboard(make([]byte, 0, 128), mb)
}

// SerializeEx renders the extended snapshot: the base serialization
// followed by the drive list in ascending-serial order, each drive
// contributing its bus-type dword, device name and serial. Drives on
// removable buses (USB, Other) are excluded. The input is not mutated;
// sorting happens on a copy.
func SerializeEx(ex *hwinfo.MotherboardEx) []byte {
	buf := appendMotherboard(make([]byte, 0, 256), &ex.Motherboard)

	drives := make([]hwinfo.PhysicalDriveInfo, len(ex.Drives))
	copy(drives, ex.Drives)
	hwinfo.SortDrives(drives)

	for i := range drives {
		d := &drives[i]
		if d.BusType == hwinfo.BusUSB || d.BusType == hwinfo.BusOther {
			continue
		}
		buf = binary.LittleEndian.AppendUint32(buf, uint32(d.BusType))
		buf = append(buf, d.DeviceName...)
		buf = append(buf, d.Serial...)
	}
	return buf
}

func appendMotherboard(buf []byte, mb *hwinfo.Motherboard) []byte {
	cpu := &mb.CPU
	buf = append(buf, cpu.Vendor...)
	buf = binary.LittleEndian.AppendUint32(buf, cpu.Version)
	buf = append(buf, cpu.BrandIndex, byte(cpu.ClflushSize), cpu.LogicalProcessors)
	buf = append(buf, cpu.Brand...)
	buf = binary.LittleEndian.AppendUint32(buf, cpu.ISA.Basic)
	buf = binary.LittleEndian.AppendUint32(buf, cpu.ISA.Modern)
	buf = binary.LittleEndian.AppendUint32(buf, cpu.ISA.ExtendedModern)

	sm := &mb.SMBIOS
	buf = append(buf, boolByte(sm.Used20CallingMethod), sm.Major, sm.Minor, sm.Revision)
	buf = append(buf, sm.UUID[:]...)
	return buf
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// Hash computes the fingerprint of the base snapshot.
func Hash(mb *hwinfo.Motherboard) hashes.Hash256 {
	return HashWith(hashes.Sum256, mb)
}

// HashEx computes the fingerprint of the extended snapshot.
func HashEx(ex *hwinfo.MotherboardEx) hashes.Hash256 {
	return HashExWith(hashes.Sum256, ex)
}

// HashWith computes the base fingerprint through a caller-supplied hasher.
func HashWith(h Hasher, mb *hwinfo.Motherboard) hashes.Hash256 {
	return h(Serialize(mb))
}

// HashExWith computes the extended fingerprint through a caller-supplied
// hasher.
func HashExWith(h Hasher, ex *hwinfo.MotherboardEx) hashes.Hash256 {
	return h(SerializeEx(ex))
}

// Compare reports whether two fingerprints are identical.
func Compare(a, b hashes.Hash256) bool {
	return a.Equal(b)
}
