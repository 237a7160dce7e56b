package vmdetect

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ExclusiveAccount/hwident/pkg/hwinfo"
	"github.com/ExclusiveAccount/hwident/pkg/smbios"
)

// mbWith builds a base snapshot with the given hypervisor state and a
// firmware table naming manufacturer.
func mbWith(hvBit bool, hvSignature, manufacturer string, uuid [16]byte) *hwinfo.Motherboard {
	formatted := make([]byte, 21)
	formatted[0] = 1
	copy(formatted[4:], uuid[:])

	var table []byte
	table = append(table, smbios.TypeSystemInformation, byte(4+len(formatted)), 0x00, 0x01)
	table = append(table, formatted...)
	table = append(table, manufacturer...)
	table = append(table, 0, 0)

	mb := &hwinfo.Motherboard{
		CPU: hwinfo.CPUInfo{
			Vendor:              "GenuineIntel",
			HypervisorBit:       hvBit,
			HypervisorSignature: hvSignature,
		},
		SMBIOS: hwinfo.SMBIOSInfo{Blob: smbios.Blob{Data: table}},
	}
	mb.SMBIOS.UUID = uuid
	return mb
}

var physicalUUID = [16]byte{0xDE, 0xAD, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14}

func TestAnalyzePhysicalHost(t *testing.T) {
	mb := mbWith(false, "", "Dell Inc.", physicalUUID)
	verdict := Analyze(mb, []hwinfo.NetworkAdapterInfo{{Description: "e1000e"}}, false)

	if len(verdict.Detections) != 0 {
		t.Errorf("detections = %v, want none", verdict.Detections)
	}
	if verdict.Confidence != Unlikely {
		t.Errorf("confidence = %s, want Unlikely", verdict.Confidence)
	}
	if verdict.IsVirtual() {
		t.Error("physical host judged virtual")
	}
}

func TestAnalyzeHypervisorCPU(t *testing.T) {
	mb := mbWith(true, "KVMKVMKVM", "Dell Inc.", physicalUUID)
	verdict := Analyze(mb, nil, false)

	want := []Flag{CPUHypervisorBit, CPUHypervisorSignature}
	if diff := cmp.Diff(want, verdict.Detections); diff != "" {
		t.Errorf("detections mismatch (-want +got):\n%s", diff)
	}
	// Two strong flags cross straight to DefinitelyVM.
	if verdict.Confidence != DefinitelyVM {
		t.Errorf("confidence = %s, want DefinitelyVM", verdict.Confidence)
	}
}

func TestAnalyzeSignatureSubstring(t *testing.T) {
	// The signature rule is a substring match: a padded Xen id still hits.
	mb := mbWith(true, "XenVMMXenVMM", "Dell Inc.", physicalUUID)
	verdict := Analyze(mb, nil, false)

	if !containsFlag(verdict.Detections, CPUHypervisorSignature) {
		t.Errorf("padded Xen signature not detected: %v", verdict.Detections)
	}
}

func TestAnalyzeHyperVIsolation(t *testing.T) {
	// Hypervisor bit plus the Microsoft signature on non-VM firmware is
	// virtualization-based security on a physical host, not a VM.
	mb := mbWith(true, "Microsoft Hv", "Dell Inc.", physicalUUID)
	verdict := Analyze(mb, nil, false)

	want := []Flag{PlatformHyperVIsolation}
	if diff := cmp.Diff(want, verdict.Detections); diff != "" {
		t.Errorf("detections mismatch (-want +got):\n%s", diff)
	}
	if verdict.Confidence != Unlikely {
		t.Errorf("confidence = %s, want Unlikely (single weak flag)", verdict.Confidence)
	}
}

func TestAnalyzeHyperVGuest(t *testing.T) {
	// The same CPU state on Microsoft firmware is a genuine Hyper-V guest
	// and keeps the strong CPU flags.
	mb := mbWith(true, "Microsoft Hv", "Microsoft Corporation", physicalUUID)
	verdict := Analyze(mb, nil, false)

	for _, f := range []Flag{CPUHypervisorBit, CPUHypervisorSignature, SMBIOSSuspiciousManufacturer} {
		if !containsFlag(verdict.Detections, f) {
			t.Errorf("missing %s in %v", f, verdict.Detections)
		}
	}
	if verdict.Confidence != DefinitelyVM {
		t.Errorf("confidence = %s, want DefinitelyVM", verdict.Confidence)
	}
}

func TestAnalyzeZeroedUUID(t *testing.T) {
	mb := mbWith(false, "", "Dell Inc.", [16]byte{})
	verdict := Analyze(mb, nil, false)

	want := []Flag{SMBIOSSuspiciousUUID, SMBIOSUUIDTotallyZeroed}
	if diff := cmp.Diff(want, verdict.Detections); diff != "" {
		t.Errorf("detections mismatch (-want +got):\n%s", diff)
	}
	// The critical flag alone forces the top confidence.
	if verdict.Confidence != DefinitelyVM {
		t.Errorf("confidence = %s, want DefinitelyVM", verdict.Confidence)
	}
}

func TestAnalyzeAdapterRules(t *testing.T) {
	mb := mbWith(false, "", "Dell Inc.", physicalUUID)

	tests := []struct {
		name     string
		adapters []hwinfo.NetworkAdapterInfo
		denied   bool
		want     []Flag
	}{
		{
			name:     "access denied short-circuits",
			adapters: []hwinfo.NetworkAdapterInfo{{Description: "VMware VMXNET3"}},
			denied:   true,
			want:     []Flag{PlatformAccessToNetworkDevicesDenied},
		},
		{
			name: "virtual adapter among physical",
			adapters: []hwinfo.NetworkAdapterInfo{
				{Description: "Intel(R) Ethernet I219-V"},
				{Description: "VirtualBox Host-Only Adapter"},
			},
			want: []Flag{PlatformVirtualNetworkAdaptersPresent},
		},
		{
			name: "only virtual adapters",
			adapters: []hwinfo.NetworkAdapterInfo{
				{Description: "Red Hat VirtIO Ethernet Adapter"},
				{Description: "lo", Loopback: true},
				{Description: "tun0", Tunnel: true},
			},
			want: []Flag{PlatformVirtualNetworkAdaptersPresent, PlatformOnlyVirtualNetworkAdapters},
		},
		{
			name:     "no adapters at all",
			adapters: nil,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := Analyze(mb, tt.adapters, tt.denied)
			if diff := cmp.Diff(tt.want, verdict.Detections); diff != "" {
				t.Errorf("detections mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func exWith(mb *hwinfo.Motherboard, drives []hwinfo.PhysicalDriveInfo) *hwinfo.MotherboardEx {
	return &hwinfo.MotherboardEx{Motherboard: *mb, Drives: drives}
}

func TestAnalyzeExDriveRules(t *testing.T) {
	mb := mbWith(false, "", "Dell Inc.", physicalUUID)

	tests := []struct {
		name   string
		drives []hwinfo.PhysicalDriveInfo
		want   []Flag
	}{
		{
			name: "known VM product",
			drives: []hwinfo.PhysicalDriveInfo{
				{BusType: hwinfo.BusSATA, Serial: "S123", ProductID: "VBOX HARDDISK"},
				{BusType: hwinfo.BusNVMe, Serial: "S456", ProductID: "Samsung SSD 970"},
			},
			want: []Flag{StorageProductIDKnownVM},
		},
		{
			name: "virtual bus on every drive",
			drives: []hwinfo.PhysicalDriveInfo{
				{BusType: hwinfo.BusVirtual, Serial: "A"},
				{BusType: hwinfo.BusVirtual, Serial: "B"},
			},
			want: []Flag{
				StorageBusTypeIsVirtual, StorageSuspiciousSerial,
				StorageBusTypeIsVirtual, StorageSuspiciousSerial,
				StorageAllDrivesBusesVirtual,
			},
		},
		{
			name: "empty and repeated serials",
			drives: []hwinfo.PhysicalDriveInfo{
				{BusType: hwinfo.BusSATA, Serial: ""},
				{BusType: hwinfo.BusSATA, Serial: "000000000000"},
			},
			want: []Flag{StorageSuspiciousSerial, StorageSuspiciousSerial},
		},
		{
			name: "uncommon buses",
			drives: []hwinfo.PhysicalDriveInfo{
				{BusType: hwinfo.BusSAS, Serial: "SN1"},
				{BusType: hwinfo.BusSCSI, Serial: "SN2"},
				{BusType: hwinfo.BusATA, Serial: "SN3"},
			},
			want: []Flag{StorageBusTypeUncommon, StorageBusTypeUncommon, StorageBusTypeUncommon},
		},
		{
			name: "every product known",
			drives: []hwinfo.PhysicalDriveInfo{
				{BusType: hwinfo.BusSATA, Serial: "SN1", ProductID: "QEMU HARDDISK"},
				{BusType: hwinfo.BusSATA, Serial: "SN2", VendorID: "Msft", ProductID: "Virtual Disk"},
			},
			want: []Flag{
				StorageProductIDKnownVM, StorageProductIDKnownVM,
				StorageAllDrivesVendorProductKnownVM,
			},
		},
		{
			name:   "no drives",
			drives: nil,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := AnalyzeEx(exWith(mb, tt.drives))
			if diff := cmp.Diff(tt.want, verdict.Detections); diff != "" {
				t.Errorf("detections mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAnalyzeExArtifacts(t *testing.T) {
	mb := mbWith(false, "", "Dell Inc.", physicalUUID)

	ex := exWith(mb, nil)
	ex.Artifacts = hwinfo.ArtifactReport{WindowsRegistry: true, LinuxDevices: true}
	verdict := AnalyzeEx(ex)

	want := []Flag{PlatformWindowsRegistry, PlatformLinuxDevices}
	if diff := cmp.Diff(want, verdict.Detections); diff != "" {
		t.Errorf("detections mismatch (-want +got):\n%s", diff)
	}
	if verdict.Confidence != Possible {
		t.Errorf("confidence = %s, want Possible (two medium flags)", verdict.Confidence)
	}
}

func TestAnalyzeWithCustomLists(t *testing.T) {
	mb := mbWith(false, "", "Homebrew Computers", physicalUUID)

	lists := Lists{Manufacturers: []string{"Homebrew"}}
	verdict := AnalyzeWith(DefaultPolicy{}, lists, mb, nil, false)

	want := []Flag{SMBIOSSuspiciousManufacturer}
	if diff := cmp.Diff(want, verdict.Detections); diff != "" {
		t.Errorf("custom list not honored (-want +got):\n%s", diff)
	}
}

func TestAnalyzeZeroListsMatchNothing(t *testing.T) {
	mb := mbWith(true, "VBoxVBoxVBox", "innotek GmbH", physicalUUID)
	verdict := AnalyzeWith(DefaultPolicy{}, Lists{}, mb, nil, false)

	// Only the raw hypervisor bit survives without lookup tables.
	want := []Flag{CPUHypervisorBit}
	if diff := cmp.Diff(want, verdict.Detections); diff != "" {
		t.Errorf("detections mismatch (-want +got):\n%s", diff)
	}
}

func TestAssumeVirtual(t *testing.T) {
	vm := mbWith(true, "VMwareVMware", "VMware, Inc.", physicalUUID)
	if !AssumeVirtual(vm, nil, false) {
		t.Error("VMware guest not judged virtual")
	}

	physical := mbWith(false, "", "Dell Inc.", physicalUUID)
	if AssumeVirtual(physical, nil, false) {
		t.Error("physical host judged virtual")
	}

	if !AssumeVirtualEx(exWith(vm, nil)) {
		t.Error("AssumeVirtualEx should agree with AssumeVirtual on the same evidence")
	}
}

func containsFlag(flags []Flag, f Flag) bool {
	for _, have := range flags {
		if have == f {
			return true
		}
	}
	return false
}
