package hwinfo

import (
	"bytes"
	"encoding/binary"
)

// STORAGE_DEVICE_DESCRIPTOR field offsets, all little-endian. String
// offsets are relative to the descriptor start; 0 means the field is
// absent.
const (
	devDescVendorIDOffset  = 12
	devDescProductIDOffset = 16
	devDescSerialOffset    = 24
	devDescBusTypeOffset   = 28
	devDescMinLen          = 32
)

// parseStorageDescriptor pulls vendor, product, serial and bus type out of
// a STORAGE_DEVICE_DESCRIPTOR buffer as returned by the storage property
// IOCTL.
func parseStorageDescriptor(buf []byte) (PhysicalDriveInfo, bool) {
	if len(buf) < devDescMinLen {
		return PhysicalDriveInfo{}, false
	}
	drive := PhysicalDriveInfo{
		BusType:   windowsBusType(binary.LittleEndian.Uint32(buf[devDescBusTypeOffset:])),
		VendorID:  trimSpace(cstringAt(buf, binary.LittleEndian.Uint32(buf[devDescVendorIDOffset:]))),
		ProductID: trimSpace(cstringAt(buf, binary.LittleEndian.Uint32(buf[devDescProductIDOffset:]))),
		Serial:    trimSpace(cstringAt(buf, binary.LittleEndian.Uint32(buf[devDescSerialOffset:]))),
	}
	return drive, true
}

// windowsBusType maps STORAGE_BUS_TYPE codes onto the portable enum.
func windowsBusType(code uint32) BusType {
	switch code {
	case 1: // BusTypeScsi
		return BusSCSI
	case 2, 3: // BusTypeAtapi, BusTypeAta
		return BusATA
	case 7: // BusTypeUsb
		return BusUSB
	case 10: // BusTypeSas
		return BusSAS
	case 11: // BusTypeSata
		return BusSATA
	case 14, 15: // BusTypeVirtual, BusTypeFileBackedVirtual
		return BusVirtual
	case 17: // BusTypeNvme
		return BusNVMe
	default:
		return BusOther
	}
}

// cstringAt reads a NUL-terminated string starting at off. Offset 0 and
// out-of-range offsets read as "".
func cstringAt(buf []byte, off uint32) string {
	if off == 0 || uint64(off) >= uint64(len(buf)) {
		return ""
	}
	b := buf[off:]
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// nvmeIdentifySerial extracts the controller serial number from an NVMe
// Identify Controller page: bytes 4 through 23, space padded.
func nvmeIdentifySerial(identify []byte) string {
	if len(identify) < 24 {
		return ""
	}
	return trimSpace(string(identify[4:24]))
}

// vpdSerial parses a SCSI VPD page 0x80 (unit serial number) blob: a
// 4-byte header carrying the payload length in its last byte, then the
// serial bytes.
func vpdSerial(page []byte) string {
	if len(page) < 4 {
		return ""
	}
	n := int(page[3])
	if n > len(page)-4 {
		n = len(page) - 4
	}
	return trimSpace(string(page[4 : 4+n]))
}

// subsystemBusType maps a Linux block device subsystem name onto the bus
// enum. The kernel exposes SATA disks through the scsi and ata subsystems.
func subsystemBusType(name string) BusType {
	switch name {
	case "scsi", "ata":
		return BusSATA
	case "usb":
		return BusUSB
	default:
		return BusOther
	}
}
