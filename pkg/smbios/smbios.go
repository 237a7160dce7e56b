// Package smbios walks raw SMBIOS firmware tables. Firmware blobs are
// vendor-supplied and frequently malformed, so every multi-byte read is
// bounds-checked: a truncated or inconsistent table yields "not found", never
// an out-of-range access.
package smbios

import "encoding/binary"

// Blob is a captured SMBIOS table with its entry point metadata. It is
// filled once by the platform layer and read-only afterwards.
type Blob struct {
	Data                []byte `json:"-"`
	Major               byte   `json:"major"`
	Minor               byte   `json:"minor"`
	Revision            byte   `json:"dmi_revision"`
	Used20CallingMethod bool   `json:"used_20_calling_method"`
}

// Empty reports whether no table data was captured.
func (b *Blob) Empty() bool { return len(b.Data) == 0 }

const (
	headerLen = 4

	// TypeSystemInformation is the DMTF type of the System Information
	// structure carrying the machine UUID and manufacturer.
	TypeSystemInformation = 1

	// TypeEndOfTable marks the intentional end of the structure table.
	TypeEndOfTable = 127

	// sysInfoMinLength is the minimum formatted length of a System
	// Information structure that carries a UUID (SMBIOS 2.1).
	sysInfoMinLength = 24

	// Offsets below are relative to the structure start, header included.
	sysInfoManufacturerOffset = 4
	sysInfoUUIDOffset         = 8
)

// UUIDLength is the byte length of the system UUID field.
const UUIDLength = 16

// Structure is one record of the table: the common header, the formatted
// bytes that follow it, and the trailing string table.
type Structure struct {
	Type   uint8
	Length uint8
	Handle uint16

	// Formatted holds the formatted area beyond the 4-byte header, so a
	// field at structure offset N lives at Formatted[N-4].
	Formatted []byte

	// Strings holds the string table in order; indices in the formatted
	// area are 1-based with 0 meaning "no string".
	Strings []string
}

// StringAt resolves a 1-based string index from the formatted area. Index 0
// and out-of-range indices resolve to "".
func (s *Structure) StringAt(index uint8) string {
	if index == 0 || int(index) > len(s.Strings) {
		return ""
	}
	return s.Strings[index-1]
}

// WalkFunc receives each structure in table order. Returning false stops the
// walk early.
type WalkFunc func(s Structure) bool

// Walk traverses the structures of a raw table. The walk stops at the
// end-of-table marker, at the end of the buffer, or at the first structure
// whose formatted area does not fit in the remaining bytes. A structure with
// a truncated string table is still delivered, after which the walk stops
// because the next structure offset is unknowable.
func Walk(table []byte, fn WalkFunc) {
	off := 0
	for off+headerLen <= len(table) {
		typ := table[off]
		if typ == TypeEndOfTable {
			return
		}

		length := int(table[off+1])
		if off+length > len(table) {
			return
		}

		s := Structure{
			Type:   typ,
			Length: table[off+1],
			Handle: binary.LittleEndian.Uint16(table[off+2:]),
		}
		if length > headerLen {
			s.Formatted = table[off+headerLen : off+length]
		}

		strs, next, terminated := stringTable(table, off+length)
		s.Strings = strs

		if !fn(s) || !terminated {
			return
		}
		off = next
	}
}

// stringTable parses the NUL-terminated string list that starts at off. The
// list ends at the first adjacent pair of NUL bytes, which is also how the
// walk advances to the next structure: two bytes past that pair. The third
// return is false when the terminator is missing from the remaining buffer.
func stringTable(table []byte, off int) (strs []string, next int, terminated bool) {
	term := -1
	for i := off; i+1 < len(table); i++ {
		if table[i] == 0 && table[i+1] == 0 {
			term = i
			break
		}
	}

	end := len(table)
	next = len(table)
	if term >= 0 {
		end = term + 1 // the first NUL of the pair may close the final string
		next = term + 2
		terminated = true
	}

	for i := off; i < end; {
		j := i
		for j < end && table[j] != 0 {
			j++
		}
		if j == i {
			break // empty string ends the set
		}
		strs = append(strs, string(table[i:j]))
		i = j + 1
	}
	return strs, next, terminated
}

// SystemUUID extracts the 16-byte system UUID from the first System
// Information structure. The second return is false when the table has no
// well-formed Type 1 structure of sufficient length. An all-zero UUID is a
// valid value and is returned as found.
func SystemUUID(table []byte) ([UUIDLength]byte, bool) {
	var uuid [UUIDLength]byte
	found := false

	Walk(table, func(s Structure) bool {
		if s.Type != TypeSystemInformation || int(s.Length) < sysInfoMinLength {
			return true
		}
		copy(uuid[:], s.Formatted[sysInfoUUIDOffset-headerLen:])
		found = true
		return false
	})
	return uuid, found
}

// Manufacturer resolves the system manufacturer string from the first System
// Information structure. A missing structure, a zero string index or a
// truncated string table all yield "".
func Manufacturer(table []byte) string {
	var manufacturer string

	Walk(table, func(s Structure) bool {
		if s.Type != TypeSystemInformation || int(s.Length) <= sysInfoManufacturerOffset {
			return true
		}
		manufacturer = s.StringAt(s.Formatted[sysInfoManufacturerOffset-headerLen])
		return false
	})
	return manufacturer
}
