//go:build !amd64

package hwinfo

// captureCPU reports an unusable processor identity on architectures
// without the CPUID instruction.
func captureCPU() CPUInfo {
	return CPUInfo{TooOld: true}
}
