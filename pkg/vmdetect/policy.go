package vmdetect

// WeightPolicy maps detections onto evidence tiers and aggregates tier
// counts into a confidence level. The engine counts flags per tier and
// delegates both steps here, so alternative policies plug in without
// touching the rules.
type WeightPolicy interface {
	// Strength returns the evidence tier of a single detection.
	Strength(f Flag) Strength
	// Calculate aggregates tier counts into a confidence level. The
	// critical argument is true when any Critical detection is present.
	Calculate(weak, medium, strong int, critical bool) Confidence
}

// DefaultPolicy is the shipped tier mapping and threshold table.
type DefaultPolicy struct{}

var defaultStrengths = map[Flag]Strength{
	PlatformHyperVIsolation:               Weak,
	PlatformVirtualNetworkAdaptersPresent: Weak,

	SMBIOSSuspiciousUUID:                 Medium,
	PlatformOnlyVirtualNetworkAdapters:   Medium,
	StorageBusTypeUncommon:               Medium,
	StorageSuspiciousSerial:              Medium,
	PlatformWindowsRegistry:              Medium,
	PlatformLinuxDevices:                 Medium,
	PlatformAccessToNetworkDevicesDenied: Medium,

	CPUHypervisorBit:             Strong,
	CPUHypervisorSignature:       Strong,
	StorageBusTypeIsVirtual:      Strong,
	StorageProductIDKnownVM:      Strong,
	SMBIOSSuspiciousManufacturer: Strong,

	SMBIOSUUIDTotallyZeroed:              Critical,
	StorageAllDrivesBusesVirtual:         Critical,
	StorageAllDrivesVendorProductKnownVM: Critical,
}

// Strength returns the fixed tier of a flag; unmapped flags rate Weak.
func (DefaultPolicy) Strength(f Flag) Strength {
	if s, ok := defaultStrengths[f]; ok {
		return s
	}
	return Weak
}

// Calculate applies the counting thresholds. Indicator co-occurrence
// matters more than precise scoring, so the table counts flags per tier
// instead of summing weights.
func (DefaultPolicy) Calculate(weak, medium, strong int, critical bool) Confidence {
	switch {
	case critical:
		return DefinitelyVM
	case strong >= 2:
		return DefinitelyVM
	case strong >= 1 || medium >= 3:
		return Probable
	case medium >= 1 || weak >= 2:
		return Possible
	default:
		return Unlikely
	}
}
