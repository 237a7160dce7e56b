//go:build linux

package hwinfo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ExclusiveAccount/hwident/pkg/smbios"
)

const (
	dmiTablePath      = "/sys/firmware/dmi/tables/DMI"
	dmiEntryPointPath = "/sys/firmware/dmi/tables/smbios_entry_point"
	sysBlockPath      = "/sys/block"
	sysNetPath        = "/sys/class/net"
)

func readSMBIOS(logger *logrus.Logger) (smbios.Blob, error) {
	data, err := os.ReadFile(dmiTablePath)
	if err != nil {
		return smbios.Blob{}, fmt.Errorf("%w: %v", ErrNoSMBIOS, err)
	}
	blob := smbios.Blob{Data: data}
	if ep, err := os.ReadFile(dmiEntryPointPath); err == nil {
		if major, minor, ok := parseEntryPoint(ep); ok {
			blob.Major, blob.Minor = major, minor
		}
	} else {
		logger.Debugf("smbios entry point unavailable: %v", err)
	}
	logger.Debugf("captured SMBIOS %d.%d table, %d bytes", blob.Major, blob.Minor, len(blob.Data))
	return blob, nil
}

func listDrives(logger *logrus.Logger) ([]PhysicalDriveInfo, error) {
	entries, err := os.ReadDir(sysBlockPath)
	if err != nil {
		logger.Warnf("drive enumeration failed: %v", err)
		return nil, fmt.Errorf("read %s: %w", sysBlockPath, err)
	}
	var drives []PhysicalDriveInfo
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, "loop") || strings.HasPrefix(name, "ram") || strings.HasPrefix(name, "dm-") {
			continue
		}
		dir := filepath.Join(sysBlockPath, name)
		var drive PhysicalDriveInfo
		switch {
		case strings.HasPrefix(name, "nvme"):
			drive.BusType = BusNVMe
			drive.Serial = readSysfs(filepath.Join(dir, "serial"))
			if drive.Serial == "" {
				drive.Serial = readSysfs(filepath.Join(dir, "device", "serial"))
			}
		case strings.HasPrefix(name, "sd"):
			drive.BusType = scsiDiskBusType(dir)
			drive.Serial = scsiDiskSerial(dir)
		default:
			continue
		}
		drive.DeviceName = name
		drive.VendorID = readSysfs(filepath.Join(dir, "device", "vendor"))
		drive.ProductID = readSysfs(filepath.Join(dir, "device", "model"))
		drives = append(drives, drive)
		logger.Debugf("found drive %s (%s)", name, drive.BusType)
	}
	return drives, nil
}

func scsiDiskBusType(dir string) BusType {
	target, err := os.Readlink(filepath.Join(dir, "device", "subsystem"))
	if err != nil {
		return BusOther
	}
	return subsystemBusType(filepath.Base(target))
}

func scsiDiskSerial(dir string) string {
	if serial := readSysfs(filepath.Join(dir, "device", "serial")); serial != "" {
		return serial
	}
	page, err := os.ReadFile(filepath.Join(dir, "device", "vpd_pg80"))
	if err != nil {
		return ""
	}
	return vpdSerial(page)
}

// readSysfs reads a sysfs attribute, trimmed; missing attributes read as
// "".
func readSysfs(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return trimSpace(string(b))
}

// tunnelLinkTypes are the ARPHRD link types of tunnel transports as exposed
// by the sysfs type attribute.
var tunnelLinkTypes = map[string]bool{
	"768": true, // IPIP
	"769": true, // IP6IP6
	"776": true, // SIT
	"778": true, // GRE
}

func listAdapters(logger *logrus.Logger) ([]NetworkAdapterInfo, bool) {
	entries, err := os.ReadDir(sysNetPath)
	if err != nil {
		logger.Warnf("adapter enumeration failed: %v", err)
		return nil, true
	}
	var adapters []NetworkAdapterInfo
	for _, entry := range entries {
		name := entry.Name()
		dir := filepath.Join(sysNetPath, name)
		desc := name
		if target, err := os.Readlink(filepath.Join(dir, "device", "driver")); err == nil {
			desc = filepath.Base(target)
		}
		adapters = append(adapters, NetworkAdapterInfo{
			Description: desc,
			Loopback:    name == "lo",
			Tunnel:      tunnelLinkTypes[readSysfs(filepath.Join(dir, "type"))],
		})
	}
	return adapters, false
}

// vmDeviceNodes are device and proc entries paravirtual drivers create.
var vmDeviceNodes = []string{
	"/dev/vboxguest",
	"/dev/vboxuser",
	"/dev/vmci",
	"/dev/virtio-ports",
	"/proc/xen",
}

func probeArtifacts(logger *logrus.Logger) ArtifactReport {
	var report ArtifactReport
	for _, path := range vmDeviceNodes {
		if _, err := os.Stat(path); err == nil {
			logger.Debugf("vm artifact node present: %s", path)
			report.LinuxDevices = true
			break
		}
	}
	return report
}
