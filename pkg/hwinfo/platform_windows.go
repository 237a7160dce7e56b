//go:build windows

package hwinfo

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unsafe"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"

	"github.com/ExclusiveAccount/hwident/pkg/smbios"
)

var (
	kernel32                   = windows.NewLazySystemDLL("kernel32.dll")
	procGetSystemFirmwareTable = kernel32.NewProc("GetSystemFirmwareTable")
)

// firmwareTableProviderRSMB is 'RSMB', the raw SMBIOS provider signature.
const firmwareTableProviderRSMB = 0x52534D42

const ioctlStorageQueryProperty = 0x002D1400

func readSMBIOS(logger *logrus.Logger) (smbios.Blob, error) {
	size, _, _ := procGetSystemFirmwareTable.Call(firmwareTableProviderRSMB, 0, 0, 0)
	if size == 0 {
		return smbios.Blob{}, ErrNoSMBIOS
	}
	buf := make([]byte, size)
	n, _, callErr := procGetSystemFirmwareTable.Call(firmwareTableProviderRSMB, 0, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 {
		return smbios.Blob{}, fmt.Errorf("GetSystemFirmwareTable: %w", callErr)
	}
	if n < uintptr(len(buf)) {
		buf = buf[:n]
	}
	blob, err := parseRawSMBIOS(buf)
	if err != nil {
		return smbios.Blob{}, err
	}
	logger.Debugf("captured SMBIOS %d.%d table, %d bytes", blob.Major, blob.Minor, len(blob.Data))
	return blob, nil
}

func listDrives(logger *logrus.Logger) ([]PhysicalDriveInfo, error) {
	names, err := physicalDriveNames()
	if err != nil {
		logger.Warnf("drive enumeration failed: %v", err)
		return nil, err
	}
	var drives []PhysicalDriveInfo
	for _, name := range names {
		drive, err := queryDrive(name)
		if err != nil {
			logger.Debugf("skipping %s: %v", name, err)
			continue
		}
		drives = append(drives, drive)
		logger.Debugf("found drive %s (%s)", name, drive.BusType)
	}
	return drives, nil
}

// physicalDriveNames lists the PhysicalDriveN entries of the DOS device
// namespace.
func physicalDriveNames() ([]string, error) {
	buf := make([]uint16, 65536)
	n, err := windows.QueryDosDevice(nil, &buf[0], uint32(len(buf)))
	if err != nil {
		return nil, fmt.Errorf("QueryDosDevice: %w", err)
	}
	var names []string
	for _, entry := range splitMultiSz(buf[:n]) {
		if strings.HasPrefix(entry, "PhysicalDrive") {
			names = append(names, entry)
		}
	}
	return names, nil
}

func splitMultiSz(buf []uint16) []string {
	var out []string
	start := 0
	for i, c := range buf {
		if c == 0 {
			if i > start {
				out = append(out, windows.UTF16ToString(buf[start:i]))
			}
			start = i + 1
		}
	}
	return out
}

func queryDrive(name string) (PhysicalDriveInfo, error) {
	path, err := windows.UTF16PtrFromString(`\\.\` + name)
	if err != nil {
		return PhysicalDriveInfo{}, err
	}
	// Access 0 suffices for property queries and does not require the
	// medium to be readable by the caller.
	h, err := windows.CreateFile(path, 0, windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE, nil, windows.OPEN_EXISTING, 0, 0)
	if err != nil {
		return PhysicalDriveInfo{}, fmt.Errorf("open %s: %w", name, err)
	}
	defer windows.CloseHandle(h)

	// STORAGE_PROPERTY_QUERY for StorageDeviceProperty, standard query.
	query := make([]byte, 12)
	out := make([]byte, 1024)
	var ret uint32
	if err := windows.DeviceIoControl(h, ioctlStorageQueryProperty, &query[0], uint32(len(query)), &out[0], uint32(len(out)), &ret, nil); err != nil {
		return PhysicalDriveInfo{}, fmt.Errorf("storage property query on %s: %w", name, err)
	}
	drive, ok := parseStorageDescriptor(out[:ret])
	if !ok {
		return PhysicalDriveInfo{}, fmt.Errorf("short storage descriptor on %s", name)
	}
	drive.DeviceName = name
	if drive.BusType == BusNVMe {
		// The device descriptor often carries no usable serial for NVMe;
		// the Identify Controller page is authoritative.
		if serial := nvmeSerial(h); serial != "" {
			drive.Serial = serial
		}
	}
	return drive, nil
}

// STORAGE_PROTOCOL_SPECIFIC_DATA parameters for the NVMe identify query.
const (
	storageAdapterProtocolSpecificProperty = 49
	protocolTypeNvme                       = 3
	nvmeDataTypeIdentify                   = 1
	nvmeIdentifyCnsController              = 1
	protocolSpecificDataLen                = 40
	nvmeIdentifyDataLen                    = 4096
)

func nvmeSerial(h windows.Handle) string {
	query := make([]byte, 8+protocolSpecificDataLen)
	binary.LittleEndian.PutUint32(query[0:], storageAdapterProtocolSpecificProperty)
	sp := query[8:]
	binary.LittleEndian.PutUint32(sp[0:], protocolTypeNvme)
	binary.LittleEndian.PutUint32(sp[4:], nvmeDataTypeIdentify)
	binary.LittleEndian.PutUint32(sp[8:], nvmeIdentifyCnsController)
	binary.LittleEndian.PutUint32(sp[16:], protocolSpecificDataLen)
	binary.LittleEndian.PutUint32(sp[20:], nvmeIdentifyDataLen)

	out := make([]byte, 8+protocolSpecificDataLen+nvmeIdentifyDataLen)
	var ret uint32
	if err := windows.DeviceIoControl(h, ioctlStorageQueryProperty, &query[0], uint32(len(query)), &out[0], uint32(len(out)), &ret, nil); err != nil {
		return ""
	}
	if ret < 8+protocolSpecificDataLen {
		return ""
	}
	// STORAGE_PROTOCOL_DATA_DESCRIPTOR: 8-byte header, then the specific
	// data block whose ProtocolDataOffset locates the identify page
	// relative to the block start.
	dataOff := 8 + binary.LittleEndian.Uint32(out[8+16:])
	if uint64(dataOff) >= uint64(ret) {
		return ""
	}
	return nvmeIdentifySerial(out[dataOff:ret])
}

const (
	ifTypeSoftwareLoopback = 24
	ifTypeTunnel           = 131
)

func listAdapters(logger *logrus.Logger) ([]NetworkAdapterInfo, bool) {
	size := uint32(16 * 1024)
	for {
		buf := make([]byte, size)
		ai := (*windows.IpAdapterInfo)(unsafe.Pointer(&buf[0]))
		err := windows.GetAdaptersInfo(ai, &size)
		if err == windows.ERROR_BUFFER_OVERFLOW {
			continue
		}
		if err != nil {
			logger.Warnf("adapter enumeration failed: %v", err)
			return nil, true
		}
		var adapters []NetworkAdapterInfo
		for ; ai != nil; ai = ai.Next {
			adapters = append(adapters, NetworkAdapterInfo{
				Description: windows.ByteSliceToString(ai.Description[:]),
				Loopback:    ai.Type == ifTypeSoftwareLoopback,
				Tunnel:      ai.Type == ifTypeTunnel,
			})
		}
		return adapters, false
	}
}

// vmServiceKeys are registry keys guest additions and paravirtual buses
// leave behind.
var vmServiceKeys = []string{
	`SYSTEM\CurrentControlSet\Services\VBoxGuest`,
	`SYSTEM\CurrentControlSet\Services\VBoxSF`,
	`SYSTEM\CurrentControlSet\Services\vmicheartbeat`,
	`SYSTEM\CurrentControlSet\Services\vmhgfs`,
	`SYSTEM\CurrentControlSet\Services\xenevtchn`,
	`HARDWARE\ACPI\DSDT\VBOX__`,
}

func probeArtifacts(logger *logrus.Logger) ArtifactReport {
	var report ArtifactReport
	for _, path := range vmServiceKeys {
		k, err := registry.OpenKey(registry.LOCAL_MACHINE, path, registry.QUERY_VALUE)
		if err != nil {
			continue
		}
		k.Close()
		logger.Debugf("vm artifact registry key present: %s", path)
		report.WindowsRegistry = true
		break
	}
	return report
}
