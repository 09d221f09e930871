// Package proc samples a single process's kernel accounting record
// (/proc/<pid>/stat) into Task snapshots.
//
// A Task carries the accumulated user and system CPU ticks, the resident set
// in pages and the process name, converted to milliseconds and bytes with the
// platform clock-tick rate and page size, plus the wall-clock capture time.
// Absolute values are only meaningful when two snapshots of the same process
// are compared:
//
//	t1, _ := s.Sample(pid)
//	time.Sleep(time.Second)
//	t2, _ := s.Sample(pid)
//	busy := (t2.UTimeMs - t1.UTimeMs) + (t2.STimeMs - t1.STimeMs)
//
// Environment overrides CLK_TCK and PAGE_SIZE exist for tests.
package proc
