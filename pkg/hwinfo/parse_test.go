package hwinfo

import (
	"encoding/binary"
	"testing"
)

func TestParseRawSMBIOS(t *testing.T) {
	data := []byte{1, 24, 0x00, 0x01, 0, 0, 0, 0, 0, 0}
	buf := []byte{1, 3, 4, 0x2A}
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(data)))
	buf = append(buf, data...)

	blob, err := parseRawSMBIOS(buf)
	if err != nil {
		t.Fatalf("parseRawSMBIOS: %v", err)
	}
	if !blob.Used20CallingMethod {
		t.Error("Used20CallingMethod = false, want true")
	}
	if blob.Major != 3 || blob.Minor != 4 || blob.Revision != 0x2A {
		t.Errorf("version = %d.%d rev %#x, want 3.4 rev 0x2a", blob.Major, blob.Minor, blob.Revision)
	}
	if len(blob.Data) != len(data) {
		t.Errorf("table length = %d, want %d", len(blob.Data), len(data))
	}
}

func TestParseRawSMBIOSClampsLength(t *testing.T) {
	// Length field claims more bytes than the buffer holds.
	buf := []byte{0, 2, 1, 0}
	buf = binary.LittleEndian.AppendUint32(buf, 1000)
	buf = append(buf, 1, 2, 3)

	blob, err := parseRawSMBIOS(buf)
	if err != nil {
		t.Fatalf("parseRawSMBIOS: %v", err)
	}
	if len(blob.Data) != 3 {
		t.Errorf("table length = %d, want 3 (clamped)", len(blob.Data))
	}
}

func TestParseRawSMBIOSTooShort(t *testing.T) {
	for _, n := range []int{0, 1, 7} {
		if _, err := parseRawSMBIOS(make([]byte, n)); err == nil {
			t.Errorf("parseRawSMBIOS accepted %d-byte buffer", n)
		}
	}
}

func TestParseEntryPoint(t *testing.T) {
	sm := make([]byte, 31)
	copy(sm, "_SM_")
	sm[6], sm[7] = 2, 8

	sm3 := make([]byte, 24)
	copy(sm3, "_SM3_")
	sm3[7], sm3[8] = 3, 4

	cases := []struct {
		name         string
		ep           []byte
		major, minor byte
		ok           bool
	}{
		{"legacy 2.x anchor", sm, 2, 8, true},
		{"3.x anchor", sm3, 3, 4, true},
		{"garbage", []byte("XXXXXXXXXXXX"), 0, 0, false},
		{"short", []byte("_SM_"), 0, 0, false},
		{"empty", nil, 0, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			major, minor, ok := parseEntryPoint(tc.ep)
			if major != tc.major || minor != tc.minor || ok != tc.ok {
				t.Errorf("parseEntryPoint = (%d, %d, %v), want (%d, %d, %v)",
					major, minor, ok, tc.major, tc.minor, tc.ok)
			}
		})
	}
}

// deviceDescriptor builds a synthetic STORAGE_DEVICE_DESCRIPTOR with the
// given strings appended after the fixed header.
func deviceDescriptor(busCode uint32, vendor, product, serial string) []byte {
	buf := make([]byte, devDescMinLen)
	binary.LittleEndian.PutUint32(buf[devDescBusTypeOffset:], busCode)

	place := func(off int, s string) {
		if s == "" {
			return
		}
		binary.LittleEndian.PutUint32(buf[off:], uint32(len(buf)))
		buf = append(buf, s...)
		buf = append(buf, 0)
	}
	place(devDescVendorIDOffset, vendor)
	place(devDescProductIDOffset, product)
	place(devDescSerialOffset, serial)
	return buf
}

func TestParseStorageDescriptor(t *testing.T) {
	buf := deviceDescriptor(11, "ACME    ", "DISK 9000", "  S123X\r\n")
	drive, ok := parseStorageDescriptor(buf)
	if !ok {
		t.Fatal("parseStorageDescriptor rejected a valid descriptor")
	}
	if drive.BusType != BusSATA {
		t.Errorf("bus = %v, want SATA", drive.BusType)
	}
	if drive.VendorID != "ACME" || drive.ProductID != "DISK 9000" || drive.Serial != "S123X" {
		t.Errorf("strings = (%q, %q, %q), want trimmed values", drive.VendorID, drive.ProductID, drive.Serial)
	}
}

func TestParseStorageDescriptorAbsentStrings(t *testing.T) {
	drive, ok := parseStorageDescriptor(deviceDescriptor(17, "", "", ""))
	if !ok {
		t.Fatal("parseStorageDescriptor rejected a valid descriptor")
	}
	if drive.BusType != BusNVMe {
		t.Errorf("bus = %v, want NVMe", drive.BusType)
	}
	if drive.VendorID != "" || drive.ProductID != "" || drive.Serial != "" {
		t.Errorf("strings = (%q, %q, %q), want all empty", drive.VendorID, drive.ProductID, drive.Serial)
	}
}

func TestParseStorageDescriptorShort(t *testing.T) {
	if _, ok := parseStorageDescriptor(make([]byte, devDescMinLen-1)); ok {
		t.Error("parseStorageDescriptor accepted a short buffer")
	}
}

func TestWindowsBusType(t *testing.T) {
	cases := []struct {
		code uint32
		want BusType
	}{
		{1, BusSCSI},
		{2, BusATA},
		{3, BusATA},
		{7, BusUSB},
		{10, BusSAS},
		{11, BusSATA},
		{14, BusVirtual},
		{15, BusVirtual},
		{17, BusNVMe},
		{0, BusOther},
		{99, BusOther},
	}
	for _, tc := range cases {
		if got := windowsBusType(tc.code); got != tc.want {
			t.Errorf("windowsBusType(%d) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestCstringAt(t *testing.T) {
	buf := []byte{0, 0, 0, 'a', 'b', 'c', 0, 'x', 'y'}
	cases := []struct {
		off  uint32
		want string
	}{
		{0, ""},    // zero offset means absent
		{3, "abc"}, // NUL terminated
		{7, "xy"},  // runs to buffer end
		{100, ""},  // out of range
	}
	for _, tc := range cases {
		if got := cstringAt(buf, tc.off); got != tc.want {
			t.Errorf("cstringAt(%d) = %q, want %q", tc.off, got, tc.want)
		}
	}
}

func TestNvmeIdentifySerial(t *testing.T) {
	page := make([]byte, 4096)
	copy(page[4:], "SN0123456789        ")
	if got := nvmeIdentifySerial(page); got != "SN0123456789" {
		t.Errorf("nvmeIdentifySerial = %q, want %q", got, "SN0123456789")
	}
	if got := nvmeIdentifySerial(make([]byte, 10)); got != "" {
		t.Errorf("nvmeIdentifySerial on short page = %q, want empty", got)
	}
}

func TestVpdSerial(t *testing.T) {
	cases := []struct {
		name string
		page []byte
		want string
	}{
		{"well formed", []byte{0, 0x80, 0, 5, 'A', 'B', 'C', '1', '2'}, "ABC12"},
		{"padded", []byte{0, 0x80, 0, 6, ' ', 'S', '9', '9', ' ', ' '}, "S99"},
		{"length overruns", []byte{0, 0x80, 0, 50, 'A', 'B'}, "AB"},
		{"short", []byte{0, 0x80, 0}, ""},
		{"empty", nil, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := vpdSerial(tc.page); got != tc.want {
				t.Errorf("vpdSerial = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSubsystemBusType(t *testing.T) {
	cases := map[string]BusType{
		"scsi": BusSATA,
		"ata":  BusSATA,
		"usb":  BusUSB,
		"mmc":  BusOther,
		"":     BusOther,
	}
	for name, want := range cases {
		if got := subsystemBusType(name); got != want {
			t.Errorf("subsystemBusType(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestBusTypeString(t *testing.T) {
	cases := map[BusType]string{
		BusUnknown:  "Unknown",
		BusSATA:     "SATA",
		BusNVMe:     "NVMe",
		BusUSB:      "USB",
		BusSAS:      "SAS",
		BusSCSI:     "SCSI",
		BusATA:      "ATA",
		BusVirtual:  "Virtual",
		BusOther:    "Other",
		BusType(42): "Unknown",
	}
	for bus, want := range cases {
		if got := bus.String(); got != want {
			t.Errorf("BusType(%d).String() = %q, want %q", uint32(bus), got, want)
		}
	}
}
