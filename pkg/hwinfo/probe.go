package hwinfo

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/ExclusiveAccount/hwident/pkg/smbios"
)

var (
	// ErrCPUTooOld means the processor does not implement the CPUID
	// leaves the fingerprint depends on.
	ErrCPUTooOld = errors.New("cpu too old for identification")

	// ErrNoSMBIOS means the platform exposes no SMBIOS firmware table.
	ErrNoSMBIOS = errors.New("smbios table unavailable")

	// ErrUnsupportedPlatform means this build has no capture support for
	// the running OS.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// Probe supplies the raw hardware facts a snapshot is assembled from. The
// shipped implementation is SystemProbe; tests substitute fakes.
type Probe interface {
	// CPU returns the processor identity.
	CPU() CPUInfo
	// SMBIOS captures the raw firmware table.
	SMBIOS() (smbios.Blob, error)
	// Drives enumerates physical storage devices.
	Drives() ([]PhysicalDriveInfo, error)
	// Adapters enumerates network interfaces; the second result reports
	// that the OS denied the enumeration.
	Adapters() ([]NetworkAdapterInfo, bool)
	// Artifacts probes for VM guest artifacts on the platform.
	Artifacts() ArtifactReport
}

// DefaultProbe is the probe the package-level snapshot operations capture
// through.
var DefaultProbe Probe = NewSystemProbe(nil)

// SystemProbe captures hardware facts from the running system.
type SystemProbe struct {
	logger *logrus.Logger
}

// NewSystemProbe returns a probe logging through the given logger, or a
// fresh one when nil.
func NewSystemProbe(logger *logrus.Logger) *SystemProbe {
	if logger == nil {
		logger = logrus.New()
	}
	return &SystemProbe{logger: logger}
}

func (p *SystemProbe) CPU() CPUInfo { return captureCPU() }

func (p *SystemProbe) SMBIOS() (smbios.Blob, error) { return readSMBIOS(p.logger) }

func (p *SystemProbe) Drives() ([]PhysicalDriveInfo, error) { return listDrives(p.logger) }

func (p *SystemProbe) Adapters() ([]NetworkAdapterInfo, bool) { return listAdapters(p.logger) }

func (p *SystemProbe) Artifacts() ArtifactReport { return probeArtifacts(p.logger) }
