package vmdetect

import (
	"strings"

	"github.com/ExclusiveAccount/hwident/pkg/hwinfo"
)

// microsoftHyperVSignature is the hypervisor vendor id Hyper-V reports,
// shared by real Hyper-V guests and physical hosts running
// virtualization-based security.
const microsoftHyperVSignature = "Microsoft Hv"

// Lists carries the lookup tables the detection rules match against. The
// tables are plain data so tests and callers can substitute their own; the
// zero value matches nothing.
type Lists struct {
	// HypervisorSignatures match as case-sensitive substrings of the
	// captured hypervisor signature.
	HypervisorSignatures []string
	// Manufacturers match as case-sensitive substrings of the SMBIOS
	// manufacturer string.
	Manufacturers []string
	// AdapterNames match as case-insensitive substrings of adapter
	// descriptions.
	AdapterNames []string
	// DriveProducts match as case-insensitive substrings of the combined
	// "vendor product" string of a drive.
	DriveProducts []string
	// SuspiciousBuses are bus types uncommon for consumer machines.
	SuspiciousBuses []hwinfo.BusType
}

// DefaultLists returns the shipped lookup tables.
func DefaultLists() Lists {
	return Lists{
		HypervisorSignatures: []string{
			"KVM",
			"KVMKVMKVM",
			"VMwareVMware",
			"VBoxVBoxVBox",
			"TCGTCGTCG",
			"ACRNACRN",
			"bhyve bhyve",
			"Xen",
			microsoftHyperVSignature,
		},
		Manufacturers: []string{
			"innotek GmbH",
			"Oracle",
			"VMware, Inc.",
			"QEMU",
			"Xen",
			"Microsoft Corporation",
			"Parallels",
		},
		AdapterNames: []string{
			"vmware",
			"vmxnet",
			"vmnet", // VMware
			"virtualbox",
			"vbox", // VirtualBox
			"hyper-v",
			"microsoft hyper-v", // Hyper-V
			"virtio",
			"red hat virtio", // KVM/QEMU
			"xennet",
			"xen",       // Xen
			"parallels", // Parallels
		},
		DriveProducts: []string{
			"VBOX",
			"VMWARE",
			"QEMU",
			"VIRTUAL",
			"XEN",
			"KVM",
			"RED HAT",
			"VIRTIO",
			"MSFT",
			"MICROSOFT VIRTUAL",
		},
		SuspiciousBuses: []hwinfo.BusType{
			hwinfo.BusSAS,
			hwinfo.BusSCSI,
			hwinfo.BusATA,
		},
	}
}

func (l *Lists) signatureKnown(signature string) bool {
	for _, known := range l.HypervisorSignatures {
		if strings.Contains(signature, known) {
			return true
		}
	}
	return false
}

func (l *Lists) manufacturerKnown(manufacturer string) bool {
	for _, known := range l.Manufacturers {
		if strings.Contains(manufacturer, known) {
			return true
		}
	}
	return false
}

func (l *Lists) adapterVirtual(description string) bool {
	desc := strings.ToLower(description)
	for _, known := range l.AdapterNames {
		if strings.Contains(desc, strings.ToLower(known)) {
			return true
		}
	}
	return false
}

func (l *Lists) driveProductKnown(vendorID, productID string) bool {
	model := strings.ToLower(vendorID + " " + productID)
	for _, known := range l.DriveProducts {
		if strings.Contains(model, strings.ToLower(known)) {
			return true
		}
	}
	return false
}

func (l *Lists) busSuspicious(bus hwinfo.BusType) bool {
	for _, known := range l.SuspiciousBuses {
		if bus == known {
			return true
		}
	}
	return false
}
