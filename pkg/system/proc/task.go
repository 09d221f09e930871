//go:build linux

package proc

import (
	"fmt"
	"time"
)

// Task is a point-in-time capture of one process's CPU and memory accounting.
type Task struct {
	PID  int
	Name string

	UTime uint64 // user jiffies
	STime uint64 // system jiffies
	RSS   int64  // resident pages

	RSSBytes uint64
	UTimeMs  uint64
	STimeMs  uint64

	At time.Time
}

// Sampler captures Task snapshots.
type Sampler interface {
	Sample(pid int) (*Task, error)
}

// StatSampler reads /proc/<pid>/stat.
type StatSampler struct {
	clkTck   uint64
	pageSize uint64
	now      func() time.Time
}

// NewSampler returns a StatSampler using the platform clock-tick rate and page size.
func NewSampler() *StatSampler {
	return &StatSampler{
		clkTck:   uint64(ClockTicks()),
		pageSize: uint64(PageSize()),
		now:      time.Now,
	}
}

// ClockTicks returns the clock-tick rate used for conversions.
func (s *StatSampler) ClockTicks() int { return int(s.clkTck) }

// Sample reads pid's accounting record and stamps it with the current time.
func (s *StatSampler) Sample(pid int) (*Task, error) {
	if pid <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadPID, pid)
	}
	st, err := ReadStat(pid)
	if err != nil {
		return nil, err
	}
	return s.task(pid, st, s.now()), nil
}

func (s *StatSampler) task(pid int, st Stat, at time.Time) *Task {
	var rss uint64
	if st.RSS > 0 {
		rss = uint64(st.RSS) * s.pageSize
	}
	return &Task{
		PID:      pid,
		Name:     st.Name,
		UTime:    st.UTime,
		STime:    st.STime,
		RSS:      st.RSS,
		RSSBytes: rss,
		UTimeMs:  st.UTime * 1000 / s.clkTck,
		STimeMs:  st.STime * 1000 / s.clkTck,
		At:       at,
	}
}
