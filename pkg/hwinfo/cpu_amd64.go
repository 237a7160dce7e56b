//go:build amd64

package hwinfo

import "strings"

// cpuid executes the CPUID instruction for the given leaf and subleaf.
// Implemented in cpu_amd64.s.
func cpuid(leaf, subleaf uint32) (eax, ebx, ecx, edx uint32)

const (
	leafVendor      = 0
	leafVersion     = 1
	leafExtFeatures = 7
	leafHypervisor  = 0x40000000
	leafExtendedMax = 0x80000000
	leafBrandFirst  = 0x80000002
	leafBrandLast   = 0x80000004
)

// captureCPU reads the processor identity registers. TooOld is set when the
// leaves the fingerprint depends on are not implemented; the vendor string
// is still filled in that case.
func captureCPU() CPUInfo {
	maxLeaf, vb, vd, vc := cpuid(leafVendor, 0)
	info := CPUInfo{Vendor: regString(vb, vd, vc)}

	maxExt, _, _, _ := cpuid(leafExtendedMax, 0)
	if maxLeaf < leafVersion || maxExt < leafBrandLast {
		info.TooOld = true
		return info
	}

	eax, ebx, ecx, edx := cpuid(leafVersion, 0)
	info.Version = eax
	info.BrandIndex = uint8(ebx)
	info.ClflushSize = uint16(ebx>>8&0xFF) * 8
	info.LogicalProcessors = uint8(ebx >> 16)
	info.APICID = uint8(ebx >> 24)
	info.ISA.Basic = edx
	info.ISA.Modern = ecx
	info.HypervisorBit = ecx&(1<<31) != 0

	if maxLeaf >= leafExtFeatures {
		_, ebx7, _, _ := cpuid(leafExtFeatures, 0)
		info.ISA.ExtendedModern = ebx7
	}

	if info.HypervisorBit {
		// The hypervisor vendor leaf only has defined contents when the
		// hypervisor bit is set.
		_, hb, hc, hd := cpuid(leafHypervisor, 0)
		info.HypervisorSignature = strings.TrimRight(regString(hb, hc, hd), "\x00")
	}

	var brand []byte
	for leaf := uint32(leafBrandFirst); leaf <= leafBrandLast; leaf++ {
		a, b, c, d := cpuid(leaf, 0)
		brand = appendRegs(brand, a, b, c, d)
	}
	info.Brand = trimSpace(strings.TrimRight(string(brand), "\x00"))

	return info
}

// appendRegs appends each register as 4 little-endian bytes, the order the
// CPUID string leaves spell ASCII in.
func appendRegs(dst []byte, regs ...uint32) []byte {
	for _, r := range regs {
		dst = append(dst, byte(r), byte(r>>8), byte(r>>16), byte(r>>24))
	}
	return dst
}

func regString(regs ...uint32) string {
	return string(appendRegs(nil, regs...))
}
