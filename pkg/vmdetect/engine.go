// Package vmdetect inspects hardware snapshots for virtual machine
// indicators. Each detection rule independently contributes zero or more
// flags; a weight policy maps flags onto evidence tiers and aggregates the
// tier counts into a confidence verdict. The whole scan is a pure function
// over the already-captured snapshot.
package vmdetect

import "github.com/ExclusiveAccount/hwident/pkg/hwinfo"

// Analyze evaluates the base snapshot plus the adapter inventory with the
// default policy and lookup tables.
func Analyze(mb *hwinfo.Motherboard, adapters []hwinfo.NetworkAdapterInfo, accessDenied bool) Verdict {
	return AnalyzeWith(DefaultPolicy{}, DefaultLists(), mb, adapters, accessDenied)
}

// AnalyzeWith evaluates the base snapshot with a caller-supplied policy and
// lookup tables.
func AnalyzeWith(policy WeightPolicy, lists Lists, mb *hwinfo.Motherboard, adapters []hwinfo.NetworkAdapterInfo, accessDenied bool) Verdict {
	e := engine{policy: policy, lists: &lists}
	e.checkCPU(mb)
	e.checkSMBIOS(mb)
	e.checkAdapters(adapters, accessDenied)
	return e.verdict()
}

// AnalyzeEx evaluates the extended snapshot: the base rules plus the
// storage and platform artifact rules.
func AnalyzeEx(ex *hwinfo.MotherboardEx) Verdict {
	return AnalyzeExWith(DefaultPolicy{}, DefaultLists(), ex)
}

// AnalyzeExWith evaluates the extended snapshot with a caller-supplied
// policy and lookup tables.
func AnalyzeExWith(policy WeightPolicy, lists Lists, ex *hwinfo.MotherboardEx) Verdict {
	e := engine{policy: policy, lists: &lists}
	e.checkCPU(&ex.Motherboard)
	e.checkSMBIOS(&ex.Motherboard)
	e.checkAdapters(ex.Adapters, ex.AdaptersAccessDenied)
	e.checkDrives(ex.Drives)
	e.checkArtifacts(ex.Artifacts)
	return e.verdict()
}

// AssumeVirtual reports whether the base snapshot crosses the Probable
// confidence threshold.
func AssumeVirtual(mb *hwinfo.Motherboard, adapters []hwinfo.NetworkAdapterInfo, accessDenied bool) bool {
	return Analyze(mb, adapters, accessDenied).IsVirtual()
}

// AssumeVirtualEx reports whether the extended snapshot crosses the
// Probable confidence threshold.
func AssumeVirtualEx(ex *hwinfo.MotherboardEx) bool {
	return AnalyzeEx(ex).IsVirtual()
}

type engine struct {
	policy     WeightPolicy
	lists      *Lists
	detections []Flag
}

func (e *engine) add(f Flag) {
	e.detections = append(e.detections, f)
}

func (e *engine) verdict() Verdict {
	weak, medium, strong := 0, 0, 0
	critical := false
	for _, f := range e.detections {
		switch e.policy.Strength(f) {
		case Weak:
			weak++
		case Medium:
			medium++
		case Strong:
			strong++
		case Critical:
			critical = true
		}
	}
	return Verdict{
		Detections: e.detections,
		Confidence: e.policy.Calculate(weak, medium, strong, critical),
	}
}

// isHyperVIsolation recognizes a physical Windows host running
// virtualization-based security: the hypervisor bit and the Microsoft
// signature are present, but the firmware manufacturer is not a known VM
// vendor. Such a host must not collect the strong CPU flags.
func (e *engine) isHyperVIsolation(mb *hwinfo.Motherboard) bool {
	if !mb.CPU.HypervisorBit {
		return false
	}
	if mb.CPU.HypervisorSignature != microsoftHyperVSignature {
		return false
	}
	return !e.lists.manufacturerKnown(mb.SMBIOS.Manufacturer())
}

func (e *engine) checkCPU(mb *hwinfo.Motherboard) {
	if e.isHyperVIsolation(mb) {
		e.add(PlatformHyperVIsolation)
		return
	}
	if mb.CPU.HypervisorBit {
		e.add(CPUHypervisorBit)
	}
	if e.lists.signatureKnown(mb.CPU.HypervisorSignature) {
		e.add(CPUHypervisorSignature)
	}
}

var zeroUUID [16]byte

func (e *engine) checkSMBIOS(mb *hwinfo.Motherboard) {
	if e.lists.manufacturerKnown(mb.SMBIOS.Manufacturer()) {
		e.add(SMBIOSSuspiciousManufacturer)
	}
	if mb.SMBIOS.UUID == zeroUUID {
		e.add(SMBIOSSuspiciousUUID)
		e.add(SMBIOSUUIDTotallyZeroed)
	}
}

func (e *engine) checkAdapters(adapters []hwinfo.NetworkAdapterInfo, accessDenied bool) {
	if accessDenied {
		e.add(PlatformAccessToNetworkDevicesDenied)
		return
	}

	virtual, total := 0, 0
	for i := range adapters {
		a := &adapters[i]
		if e.lists.adapterVirtual(a.Description) {
			virtual++
			total++
		} else if !a.Loopback && !a.Tunnel {
			// Loopback and tunnel interfaces are not physical evidence
			// either way and stay out of the total.
			total++
		}
	}

	if virtual > 0 {
		e.add(PlatformVirtualNetworkAdaptersPresent)
	}
	if virtual == total && total > 0 {
		e.add(PlatformOnlyVirtualNetworkAdapters)
	}
}

func (e *engine) checkDrives(drives []hwinfo.PhysicalDriveInfo) {
	productKnown := 0
	virtualBuses := 0

	for i := range drives {
		d := &drives[i]
		if e.lists.driveProductKnown(d.VendorID, d.ProductID) {
			e.add(StorageProductIDKnownVM)
			productKnown++
		}
		if d.BusType == hwinfo.BusVirtual {
			e.add(StorageBusTypeIsVirtual)
			virtualBuses++
		}
		if suspiciousSerial(d.Serial) {
			e.add(StorageSuspiciousSerial)
		}
		if e.lists.busSuspicious(d.BusType) {
			e.add(StorageBusTypeUncommon)
		}
	}

	if len(drives) > 0 && virtualBuses == len(drives) {
		e.add(StorageAllDrivesBusesVirtual)
	}
	if len(drives) > 0 && productKnown == len(drives) {
		e.add(StorageAllDrivesVendorProductKnownVM)
	}
}

func (e *engine) checkArtifacts(artifacts hwinfo.ArtifactReport) {
	if artifacts.WindowsRegistry {
		e.add(PlatformWindowsRegistry)
	}
	if artifacts.LinuxDevices {
		e.add(PlatformLinuxDevices)
	}
}

// suspiciousSerial reports an empty serial or one where every character
// equals the first. Legitimate repeated-character serials match as well.
func suspiciousSerial(serial string) bool {
	if serial == "" {
		return true
	}
	first := serial[0]
	for i := 1; i < len(serial); i++ {
		if serial[i] != first {
			return false
		}
	}
	return true
}
