// Package report renders captured snapshots, fingerprints and heuristic
// verdicts as human-readable text, as a length-prefixed binary record, or as
// a bare digest. These are presentation formats only; the fingerprint input
// bytes come from the fingerprint package, never from here.
package report

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/ExclusiveAccount/hwident/pkg/hashes"
	"github.com/ExclusiveAccount/hwident/pkg/hwinfo"
	"github.com/ExclusiveAccount/hwident/pkg/vmdetect"
)

// WriteText writes a human-readable report of the extended snapshot, its
// fingerprint and the heuristic verdict.
func WriteText(w io.Writer, snap *hwinfo.MotherboardEx, fpr hashes.Hash256, verdict vmdetect.Verdict) error {
	if err := writeTextBase(w, &snap.Motherboard); err != nil {
		return err
	}

	fmt.Fprintf(w, "Physical Drives:\n")
	if len(snap.Drives) == 0 {
		fmt.Fprintf(w, " No drives detected or insufficient permissions\n")
	}
	for i := range snap.Drives {
		d := &snap.Drives[i]
		fmt.Fprintf(w, " Drive %d\n", i)
		fmt.Fprintf(w, "  Device: %s\n", d.DeviceName)
		fmt.Fprintf(w, "  Serial: %s\n", d.Serial)
		fmt.Fprintf(w, "  Vendor/Product: %s %s\n", d.VendorID, d.ProductID)
		fmt.Fprintf(w, "  Bus Type: %s\n", d.BusType)
	}

	fmt.Fprintf(w, "Network Adapters:\n")
	if snap.AdaptersAccessDenied {
		fmt.Fprintf(w, " Enumeration denied by the OS\n")
	} else if len(snap.Adapters) == 0 {
		fmt.Fprintf(w, " No adapters detected\n")
	}
	for i := range snap.Adapters {
		a := &snap.Adapters[i]
		kind := ""
		if a.Loopback {
			kind = " (loopback)"
		} else if a.Tunnel {
			kind = " (tunnel)"
		}
		fmt.Fprintf(w, " %s%s\n", a.Description, kind)
	}

	fmt.Fprintf(w, "VM Detections:\n")
	if len(verdict.Detections) == 0 {
		fmt.Fprintf(w, " None\n")
	}
	policy := vmdetect.DefaultPolicy{}
	for _, f := range verdict.Detections {
		fmt.Fprintf(w, " %s [%s]\n", f, policy.Strength(f))
	}
	fmt.Fprintf(w, "Confidence: %s\n", verdict.Confidence)
	_, err := fmt.Fprintf(w, "Fingerprint: %s\n", fpr)
	return err
}

// WriteTextBase writes the CPU and firmware sections only, for the base
// snapshot without inventory.
func WriteTextBase(w io.Writer, mb *hwinfo.Motherboard, fpr hashes.Hash256) error {
	if err := writeTextBase(w, mb); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Fingerprint: %s\n", fpr)
	return err
}

func writeTextBase(w io.Writer, mb *hwinfo.Motherboard) error {
	fmt.Fprintf(w, "CPU:\n")
	fmt.Fprintf(w, "%s\n", mb.CPU.Brand)
	fmt.Fprintf(w, " Vendor: %s\n", mb.CPU.Vendor)
	fmt.Fprintf(w, " Cores: %d\n", mb.CPU.LogicalProcessors)
	fmt.Fprintf(w, " Hypervisor present: %t\n", mb.CPU.HypervisorBit)
	fmt.Fprintf(w, " Hypervisor signature (if presented): %s\n", mb.CPU.HypervisorSignature)

	fmt.Fprintf(w, "Motherboard:\n")
	fmt.Fprintf(w, " SMBIOS UUID: %s\n", uuid.UUID(mb.SMBIOS.UUID))
	fmt.Fprintf(w, " SMBIOS Ver: %d.%d\n", mb.SMBIOS.Major, mb.SMBIOS.Minor)
	fmt.Fprintf(w, " SMBIOS DMI Ver: %d\n", mb.SMBIOS.Revision)
	_, err := fmt.Fprintf(w, " SMBIOS 2.0 calling convention: %t\n", mb.SMBIOS.Used20CallingMethod)
	return err
}

// WriteBinary writes the extended snapshot as a little-endian binary record:
// every string is a u32 length prefix plus bytes, scalars are fixed width,
// the drive list is a u32 count followed by per-drive entries. This layout
// is presentation only and is explicitly not the hash input.
func WriteBinary(w io.Writer, snap *hwinfo.MotherboardEx) error {
	bw := &binaryWriter{w: w}
	bw.motherboard(&snap.Motherboard)

	bw.u32(uint32(len(snap.Drives)))
	for i := range snap.Drives {
		d := &snap.Drives[i]
		bw.u32(uint32(d.BusType))
		bw.str(d.DeviceName)
		bw.str(d.Serial)
	}
	return bw.err
}

// WriteBinaryBase writes the base snapshot fields without the drive list.
func WriteBinaryBase(w io.Writer, mb *hwinfo.Motherboard) error {
	bw := &binaryWriter{w: w}
	bw.motherboard(mb)
	return bw.err
}

// WriteHash writes the bare fingerprint as lowercase hex plus a newline.
func WriteHash(w io.Writer, fpr hashes.Hash256) error {
	_, err := fmt.Fprintf(w, "%s\n", fpr)
	return err
}

// binaryWriter threads a single error through the field writes so the
// record layout reads linearly.
type binaryWriter struct {
	w   io.Writer
	err error
}

func (b *binaryWriter) raw(p []byte) {
	if b.err == nil {
		_, b.err = b.w.Write(p)
	}
}

func (b *binaryWriter) u32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	b.raw(buf[:])
}

func (b *binaryWriter) str(s string) {
	b.u32(uint32(len(s)))
	b.raw([]byte(s))
}

func (b *binaryWriter) motherboard(mb *hwinfo.Motherboard) {
	cpu := &mb.CPU
	b.str(cpu.Vendor)
	b.u32(cpu.Version)
	b.raw([]byte{boolByte(cpu.HypervisorBit), cpu.BrandIndex})
	var clflush [2]byte
	binary.LittleEndian.PutUint16(clflush[:], cpu.ClflushSize)
	b.raw(clflush[:])
	b.raw([]byte{cpu.LogicalProcessors})
	b.str(cpu.Brand)
	b.str(cpu.HypervisorSignature)
	b.u32(cpu.ISA.Basic)
	b.u32(cpu.ISA.Modern)
	b.u32(cpu.ISA.ExtendedModern)

	sm := &mb.SMBIOS
	b.raw([]byte{boolByte(sm.Used20CallingMethod), sm.Major, sm.Minor, sm.Revision})
	b.raw(sm.UUID[:])
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

// SaveText writes the text report to a file.
func SaveText(path string, snap *hwinfo.MotherboardEx, fpr hashes.Hash256, verdict vmdetect.Verdict) error {
	return saveTo(path, func(w io.Writer) error { return WriteText(w, snap, fpr, verdict) })
}

// SaveBinary writes the binary record to a file.
func SaveBinary(path string, snap *hwinfo.MotherboardEx) error {
	return saveTo(path, func(w io.Writer) error { return WriteBinary(w, snap) })
}

// SaveHash writes the bare digest to a file.
func SaveHash(path string, fpr hashes.Hash256) error {
	return saveTo(path, func(w io.Writer) error { return WriteHash(w, fpr) })
}

func saveTo(path string, write func(io.Writer) error) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create report %s: %w", path, err)
	}
	defer f.Close()

	if err := write(f); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return f.Close()
}
