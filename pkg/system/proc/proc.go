//go:build linux

package proc

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/tklauser/go-sysconf"
)

// procReadFile allows tests to stub reading /proc/<pid>/stat.
var procReadFile = os.ReadFile

// ClockTicks returns the number of clock ticks (jiffies) per second.
// The CLK_TCK env var wins (useful for testing), then sysconf(_SC_CLK_TCK),
// then the common default of 100.
func ClockTicks() int {
	v, _ := strconv.Atoi(os.Getenv("CLK_TCK"))
	if v > 0 {
		return v
	}
	if hz, err := sysconf.Sysconf(sysconf.SC_CLK_TCK); err == nil && hz > 0 {
		return int(hz)
	}
	return 100
}

// PageSize returns the system memory page size in bytes.
// Like ClockTicks, it first checks an env override (PAGE_SIZE).
func PageSize() int {
	if ps := os.Getenv("PAGE_SIZE"); ps != "" {
		if v, _ := strconv.Atoi(ps); v > 0 {
			return v
		}
	}
	return os.Getpagesize()
}

// Exists reports whether a given PID currently exists in /proc.
func Exists(pid int) bool {
	_, err := os.Stat(fmt.Sprintf("/proc/%d", pid))
	return err == nil
}

// Lookup checks that pid is alive and returns its name.
func Lookup(pid int) (string, error) {
	if pid <= 0 {
		return "", fmt.Errorf("%w: %d", ErrBadPID, pid)
	}
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return "", fmt.Errorf("%w: pid %d: %v", ErrProcessGone, pid, err)
	}
	name, err := p.Name()
	if err != nil {
		return "", fmt.Errorf("pid %d name: %w", pid, err)
	}
	return name, nil
}

// Stat holds the raw fields of /proc/<pid>/stat used for sampling.
type Stat struct {
	Name  string
	UTime uint64 // user jiffies
	STime uint64 // system jiffies
	RSS   int64  // resident pages
}

// ParseStat extracts name, utime, stime and rss from a stat line.
//
// Caveats:
//   - comm (2nd field) is in parens and may itself contain spaces or parens,
//     so the name spans from the first '(' to the last ')'.
//   - utime and stime are fields 14 and 15, rss is field 24 (1-based).
func ParseStat(line []byte) (Stat, error) {
	open := bytes.IndexByte(line, '(')
	end := bytes.LastIndexByte(line, ')')
	if open < 0 || end < open {
		return Stat{}, ErrNoStat
	}

	fields := bytes.Fields(line[end+1:])
	// relative to fields: state=0, utime=11, stime=12, rss=21
	if len(fields) < 22 {
		return Stat{}, ErrShortStat
	}

	var (
		st  = Stat{Name: string(line[open+1 : end])}
		err error
	)
	if st.UTime, err = strconv.ParseUint(string(fields[11]), 10, 64); err != nil {
		return Stat{}, fmt.Errorf("%w: utime: %v", ErrNoStat, err)
	}
	if st.STime, err = strconv.ParseUint(string(fields[12]), 10, 64); err != nil {
		return Stat{}, fmt.Errorf("%w: stime: %v", ErrNoStat, err)
	}
	if st.RSS, err = strconv.ParseInt(string(fields[21]), 10, 64); err != nil {
		return Stat{}, fmt.Errorf("%w: rss: %v", ErrNoStat, err)
	}
	return st, nil
}

// ReadStat reads and parses /proc/<pid>/stat.
func ReadStat(pid int) (Stat, error) {
	b, err := procReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		// the process may exit between opening and reading its stat file
		if os.IsNotExist(err) || !Exists(pid) {
			return Stat{}, fmt.Errorf("%w: pid %d: %v", ErrProcessGone, pid, err)
		}
		return Stat{}, err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return Stat{}, ErrNoStat
	}
	return ParseStat(b)
}
