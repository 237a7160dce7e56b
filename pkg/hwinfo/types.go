// Package hwinfo captures hardware identity snapshots: CPU identification,
// the raw SMBIOS firmware table, and optionally the physical drive and
// network adapter inventory. Snapshots are immutable once captured and feed
// the fingerprint serializer and the VM heuristic engine.
package hwinfo

import (
	"strings"

	"github.com/ExclusiveAccount/hwident/pkg/smbios"
)

// InstructionSet holds the three CPUID feature words captured per snapshot.
type InstructionSet struct {
	Basic          uint32 `json:"basic"`           // Leaf 1 EDX
	Modern         uint32 `json:"modern"`          // Leaf 1 ECX
	ExtendedModern uint32 `json:"extended_modern"` // Leaf 7 EBX
}

// CPUInfo is the processor identity from CPUID. When TooOld is set the
// required leaves were unavailable and every other field except Vendor is
// undefined and must not be used.
type CPUInfo struct {
	Vendor              string         `json:"vendor"`               // Leaf 0 vendor string, up to 12 ASCII chars
	Version             uint32         `json:"version"`              // Raw leaf 1 EAX (stepping/model/family encoding)
	BrandIndex          uint8          `json:"brand_index"`          // Leaf 1 EBX bits 7:0
	ClflushSize         uint16         `json:"clflush_size"`         // Cache line size in bytes (leaf 1 EBX bits 15:8 times 8)
	LogicalProcessors   uint8          `json:"logical_processors"`   // Leaf 1 EBX bits 23:16
	APICID              uint8          `json:"apic_id"`              // Leaf 1 EBX bits 31:24, volatile across boots
	Brand               string         `json:"brand"`                // Extended brand string, up to 48 ASCII chars
	ISA                 InstructionSet `json:"isa"`                  // Feature bitmask words
	HypervisorBit       bool           `json:"hypervisor_bit"`       // Leaf 1 ECX bit 31
	HypervisorSignature string         `json:"hypervisor_signature"` // Leaf 0x40000000 vendor id, "" when absent
	TooOld              bool           `json:"too_old"`              // Required CPUID leaves unavailable
}

// SMBIOSInfo couples the captured firmware table with the system UUID
// derived from its Type 1 structure. An absent Type 1 structure leaves the
// UUID all zero, which is itself a meaningful (suspicious) value.
type SMBIOSInfo struct {
	smbios.Blob

	UUID [smbios.UUIDLength]byte `json:"uuid"`
}

// Manufacturer resolves the system manufacturer string from the captured
// table. Missing or malformed tables yield "".
func (s *SMBIOSInfo) Manufacturer() string {
	return smbios.Manufacturer(s.Data)
}

// BusType identifies the bus a physical drive is attached through. The
// numeric values participate in the extended fingerprint serialization and
// must not be reordered.
type BusType uint32

const (
	BusUnknown BusType = iota
	BusSATA
	BusNVMe
	BusUSB
	BusSAS
	BusSCSI
	BusATA
	BusVirtual
	BusOther
)

var busTypeNames = map[BusType]string{
	BusUnknown: "Unknown",
	BusSATA:    "SATA",
	BusNVMe:    "NVMe",
	BusUSB:     "USB",
	BusSAS:     "SAS",
	BusSCSI:    "SCSI",
	BusATA:     "ATA",
	BusVirtual: "Virtual",
	BusOther:   "Other",
}

func (b BusType) String() string {
	if name, ok := busTypeNames[b]; ok {
		return name
	}
	return "Unknown"
}

// MarshalText renders the bus type by name so JSON reports stay readable.
func (b BusType) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// PhysicalDriveInfo describes one physical storage device.
type PhysicalDriveInfo struct {
	BusType    BusType `json:"bus_type"`    // Bus the drive is attached through
	DeviceName string  `json:"device_name"` // OS device name, e.g. PhysicalDrive0 or sda
	Serial     string  `json:"serial"`      // Serial number, whitespace trimmed, may be empty
	VendorID   string  `json:"vendor_id"`   // Vendor identifier reported by the device
	ProductID  string  `json:"product_id"`  // Product/model identifier reported by the device
}

// NetworkAdapterInfo describes one network interface as seen by the OS.
type NetworkAdapterInfo struct {
	Description string `json:"description"` // Driver or adapter description
	Loopback    bool   `json:"loopback"`    // Software loopback interface
	Tunnel      bool   `json:"tunnel"`      // Tunnel/virtual transport interface
}

// ArtifactReport carries the results of the platform VM artifact probes:
// registry keys and device nodes that guest additions and paravirtual
// drivers leave behind. The zero value means nothing was probed or found.
type ArtifactReport struct {
	WindowsRegistry bool `json:"windows_registry"` // Known guest-addition registry keys present
	LinuxDevices    bool `json:"linux_devices"`    // Known paravirtual device nodes present
}

// Motherboard is the base hardware snapshot: CPU identity plus firmware
// identity. It is immutable once captured.
type Motherboard struct {
	CPU    CPUInfo    `json:"cpu"`
	SMBIOS SMBIOSInfo `json:"smbios"`
}

// MotherboardEx extends the base snapshot with the storage and network
// inventory used by the extended fingerprint and the full heuristic scan.
// Drives are sorted by serial at capture time.
type MotherboardEx struct {
	Motherboard

	Drives               []PhysicalDriveInfo  `json:"drives"`
	Adapters             []NetworkAdapterInfo `json:"adapters"`
	AdaptersAccessDenied bool                 `json:"adapters_access_denied"`
	Artifacts            ArtifactReport       `json:"artifacts"`
}

// trimSpace strips the whitespace firmware and device strings tend to pad
// with: spaces, tabs and line endings on both ends.
func trimSpace(s string) string {
	return strings.Trim(s, " \t\r\n")
}
