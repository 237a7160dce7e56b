package vmdetect

// Flag identifies one VM indicator produced by a detection rule. The
// string values are stable identifiers and appear in reports verbatim.
type Flag string

const (
	CPUHypervisorBit                     Flag = "Cpu_Hypervisor_bit"
	CPUHypervisorSignature               Flag = "Cpu_Hypervisor_signature"
	SMBIOSSuspiciousManufacturer         Flag = "SMBIOS_SuspiciousManufacturer"
	SMBIOSSuspiciousUUID                 Flag = "SMBIOS_SuspiciousUUID"
	SMBIOSUUIDTotallyZeroed              Flag = "SMBIOS_UUIDTotallyZeroed"
	StorageSuspiciousSerial              Flag = "Storage_SuspiciousSerial"
	StorageBusTypeIsVirtual              Flag = "Storage_BusTypeIsVirtual"
	StorageAllDrivesBusesVirtual         Flag = "Storage_AllDrivesBusesVirtual"
	StorageBusTypeUncommon               Flag = "Storage_BusTypeUncommon"
	StorageProductIDKnownVM              Flag = "Storage_ProductIdKnownVM"
	StorageAllDrivesVendorProductKnownVM Flag = "Storage_AllDrivesVendorProductKnownVM"
	PlatformWindowsRegistry              Flag = "Platform_WindowsRegistry"
	PlatformLinuxDevices                 Flag = "Platform_LinuxDevices"
	PlatformVirtualNetworkAdaptersPresent Flag = "Platform_VirtualNetworkAdaptersPresent"
	PlatformOnlyVirtualNetworkAdapters   Flag = "Platform_OnlyVirtualNetworkAdapters"
	PlatformAccessToNetworkDevicesDenied Flag = "Platform_AccessToNetworkDevicesDenied"
	PlatformHyperVIsolation              Flag = "Platform_HyperVIsolation"
)

func (f Flag) String() string { return string(f) }

// Strength is the evidence tier of a single detection.
type Strength int

const (
	Weak Strength = iota
	Medium
	Strong
	Critical
)

var strengthNames = [...]string{"Weak", "Medium", "Strong", "Critical"}

func (s Strength) String() string {
	if s < Weak || s > Critical {
		return "Weak"
	}
	return strengthNames[s]
}

// MarshalText renders the tier by name.
func (s Strength) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Confidence is the aggregated likelihood that the machine is virtual. The
// values form a total order.
type Confidence int

const (
	Unlikely Confidence = iota
	Possible
	Probable
	DefinitelyVM
)

var confidenceNames = [...]string{"Unlikely", "Possible", "Probable", "DefinitelyVM"}

func (c Confidence) String() string {
	if c < Unlikely || c > DefinitelyVM {
		return "Unlikely"
	}
	return confidenceNames[c]
}

// MarshalText renders the confidence by name.
func (c Confidence) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Verdict is the outcome of a heuristic scan: the detections in rule
// evaluation order (per-drive flags repeat per matching drive) and the
// confidence aggregated from them.
type Verdict struct {
	Detections []Flag     `json:"detections"`
	Confidence Confidence `json:"confidence"`
}

// IsVirtual reports whether the confidence reaches Probable.
func (v Verdict) IsVirtual() bool { return v.Confidence >= Probable }
