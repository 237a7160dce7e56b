// Package hwident identifies the machine it runs on: it collapses the CPU
// and firmware identity (optionally plus the storage inventory) into a
// stable SHA-256 fingerprint, and judges with a confidence level whether
// the machine is a virtual machine.
//
// These package-level functions capture through the default system probe.
// For injected probes, custom weight policies or lookup tables, use the
// pkg/hwinfo, pkg/fingerprint and pkg/vmdetect packages directly.
package hwident

import (
	"github.com/ExclusiveAccount/hwident/pkg/fingerprint"
	"github.com/ExclusiveAccount/hwident/pkg/hashes"
	"github.com/ExclusiveAccount/hwident/pkg/hwinfo"
	"github.com/ExclusiveAccount/hwident/pkg/vmdetect"
)

// Snapshot captures the base hardware snapshot: CPU and firmware identity.
func Snapshot() (*hwinfo.Motherboard, error) {
	return hwinfo.Snap()
}

// SnapshotEx captures the extended snapshot, including the drive, adapter
// and artifact inventory.
func SnapshotEx() (*hwinfo.MotherboardEx, error) {
	return hwinfo.SnapEx()
}

// Fingerprint captures the base snapshot and returns its fingerprint.
func Fingerprint() (hashes.Hash256, error) {
	mb, err := hwinfo.Snap()
	if err != nil {
		return hashes.Hash256{}, err
	}
	return fingerprint.Hash(mb), nil
}

// FingerprintEx captures the extended snapshot and returns its fingerprint,
// which also covers the non-removable drives.
func FingerprintEx() (hashes.Hash256, error) {
	ex, err := hwinfo.SnapEx()
	if err != nil {
		return hashes.Hash256{}, err
	}
	return fingerprint.HashEx(ex), nil
}

// Analyze captures the extended snapshot and runs the VM detection
// heuristics over it.
func Analyze() (vmdetect.Verdict, error) {
	ex, err := hwinfo.SnapEx()
	if err != nil {
		return vmdetect.Verdict{}, err
	}
	return vmdetect.AnalyzeEx(ex), nil
}

// IsVirtual reports whether the machine is judged virtual with at least
// Probable confidence.
func IsVirtual() (bool, error) {
	verdict, err := Analyze()
	if err != nil {
		return false, err
	}
	return verdict.IsVirtual(), nil
}
