package util

import (
	"fmt"
	"runtime"

	"github.com/ja7ad/loadwriter/pkg/types"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// DeltaU64 returns now-prev for monotonic counters, or 0 when the counter
// went backwards (wrapped, reset or prev unset).
func DeltaU64(now, prev uint64) uint64 {
	if now >= prev {
		return now - prev
	}
	return 0
}

// SafeDiv divides n by d, returning 0 when d is (nearly) zero.
func SafeDiv(n, d float64) float64 {
	const eps = 1e-12
	if d > eps || d < -eps {
		return n / d
	}
	return 0
}

// SystemSummary returns host name, kernel, CPU count and total memory for
// the start-up banner. Unknown values are reported as "unknown".
func SystemSummary() (hostname, kernel, cpus, memory string) {
	hostname, kernel, memory = "unknown", "unknown", "unknown"
	cpus = fmt.Sprintf("%d", runtime.NumCPU())

	if info, err := host.Info(); err == nil {
		if info.Hostname != "" {
			hostname = info.Hostname
		}
		if info.KernelVersion != "" {
			kernel = info.KernelVersion
		}
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		memory = types.Bytes(vm.Total).Humanized()
	}
	return hostname, kernel, cpus, memory
}
