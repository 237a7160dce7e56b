//go:build !windows && !linux

package hwinfo

import (
	"github.com/sirupsen/logrus"

	"github.com/ExclusiveAccount/hwident/pkg/smbios"
)

func readSMBIOS(*logrus.Logger) (smbios.Blob, error) {
	return smbios.Blob{}, ErrUnsupportedPlatform
}

func listDrives(*logrus.Logger) ([]PhysicalDriveInfo, error) {
	return nil, ErrUnsupportedPlatform
}

func listAdapters(*logrus.Logger) ([]NetworkAdapterInfo, bool) {
	return nil, false
}

func probeArtifacts(*logrus.Logger) ArtifactReport {
	return ArtifactReport{}
}
