package hwinfo

import (
	"encoding/binary"
	"fmt"

	"github.com/ExclusiveAccount/hwident/pkg/smbios"
)

// rsmbHeaderLen is the fixed header the Windows firmware table API prepends
// to the raw SMBIOS table: used-2.0-calling-method byte, major, minor, DMI
// revision, then a 32-bit table length.
const rsmbHeaderLen = 8

// parseRawSMBIOS splits a firmware table buffer in the RSMB layout into a
// Blob. An inconsistent length field is clamped to the bytes actually
// present rather than trusted.
func parseRawSMBIOS(buf []byte) (smbios.Blob, error) {
	if len(buf) < rsmbHeaderLen {
		return smbios.Blob{}, fmt.Errorf("firmware table too short: %d bytes", len(buf))
	}
	length := binary.LittleEndian.Uint32(buf[4:])
	if int64(length) > int64(len(buf)-rsmbHeaderLen) {
		length = uint32(len(buf) - rsmbHeaderLen)
	}
	data := make([]byte, length)
	copy(data, buf[rsmbHeaderLen:])
	return smbios.Blob{
		Data:                data,
		Major:               buf[1],
		Minor:               buf[2],
		Revision:            buf[3],
		Used20CallingMethod: buf[0] != 0,
	}, nil
}

// parseEntryPoint extracts the SMBIOS spec version from a firmware entry
// point block: the 64-bit "_SM3_" anchor carries it at offsets 7 and 8, the
// legacy "_SM_" anchor at 6 and 7.
func parseEntryPoint(ep []byte) (major, minor byte, ok bool) {
	switch {
	case len(ep) >= 9 && string(ep[:5]) == "_SM3_":
		return ep[7], ep[8], true
	case len(ep) >= 8 && string(ep[:4]) == "_SM_":
		return ep[6], ep[7], true
	}
	return 0, 0, false
}
