//go:build linux

package proc

import "github.com/ja7ad/loadwriter/pkg/system/util"

// CPUPercent derives the CPU usage of the process between two snapshots:
//
//	((Δutime + Δstime) * 100 / clkTck) / Δwall_seconds
//
// Δwall comes from the capture timestamps. A zero or negative wall delta, or
// counters that went backwards, yield 0.
func CPUPercent(t1, t2 *Task, clkTck int) float64 {
	if t1 == nil || t2 == nil || clkTck <= 0 {
		return 0
	}
	dt := t2.At.Sub(t1.At).Seconds()
	if dt <= 0 {
		return 0
	}
	ticks := util.DeltaU64(t2.UTime+t2.STime, t1.UTime+t1.STime)
	return util.SafeDiv(float64(ticks)*100/float64(clkTck), dt)
}

// Elapsed returns the wall time between two snapshots in seconds.
func Elapsed(t1, t2 *Task) float64 {
	if t1 == nil || t2 == nil {
		return 0
	}
	return t2.At.Sub(t1.At).Seconds()
}

// UserDeltaMs returns the user-mode CPU milliseconds spent between snapshots.
func UserDeltaMs(t1, t2 *Task) uint64 {
	return util.DeltaU64(t2.UTimeMs, t1.UTimeMs)
}
