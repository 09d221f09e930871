//go:build linux

package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ja7ad/loadwriter/pkg/system/proc"
	"github.com/ja7ad/loadwriter/pkg/types"
)

// DefaultWait is the stabilization window, in seconds, subtracted from the
// summed duration when reporting elapsed time.
const DefaultWait = 3

// Config describes the monitored process and how rows are rendered.
type Config struct {
	Format     Format
	PID        int
	Name       string // process name shown in the summary
	Wait       int    // seconds subtracted from the elapsed time
	ClockTicks int    // defaults to proc.ClockTicks()
}

// Row is one rendered tick.
type Row struct {
	Records  int
	Bytes    types.Bytes
	Duration float64 // seconds between the snapshots
	CPU      float64 // percent
	UserMs   int64
	SysMs    int64
	Mem      types.Bytes // resident memory of the "after" snapshot
}

// Report accumulates per-tick samples for one run and renders them.
// It is owned by a single goroutine.
type Report struct {
	cfg    Config
	w      io.Writer
	closer io.Closer
	closed bool

	snapshots   int
	sumBytes    uint64
	sumRecords  uint64
	sumMem      uint64
	sumCPU      float64
	sumCPUCount int
	sumDuration float64
}

// Create opens path (truncating it) and writes the column header. An empty
// path or "-" writes to standard output, which Close leaves open.
func Create(path string, cfg Config) (*Report, error) {
	if path == "" || path == "-" {
		return New(os.Stdout, cfg)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create report dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o666)
	if err != nil {
		return nil, fmt.Errorf("open report file: %w", err)
	}
	r, err := New(f, cfg)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return r, nil
}

// New wraps w and writes the column header. If w is an io.Closer other than
// os.Stdout, Close closes it.
func New(w io.Writer, cfg Config) (*Report, error) {
	if cfg.ClockTicks <= 0 {
		cfg.ClockTicks = proc.ClockTicks()
	}
	if cfg.Wait < 0 {
		cfg.Wait = 0
	}

	r := &Report{cfg: cfg, w: w}
	if c, ok := w.(io.Closer); ok && w != io.Writer(os.Stdout) {
		r.closer = c
	}

	if err := writeHeader(w, cfg.Format); err != nil {
		return nil, fmt.Errorf("write report header: %w", err)
	}
	return r, nil
}

// Stats records one tick: the records and bytes dispatched during it and
// the snapshots bracketing it. It appends a row and updates the running sums.
func (r *Report) Stats(records int, bytes uint64, t1, t2 *proc.Task) (Row, error) {
	cpu := proc.CPUPercent(t1, t2, r.cfg.ClockTicks)
	row := Row{
		Records:  records,
		Bytes:    types.ToBytes(bytes),
		Duration: proc.Elapsed(t1, t2),
		CPU:      cpu,
		UserMs:   int64(t2.UTimeMs) - int64(t1.UTimeMs),
		SysMs:    int64(t2.STimeMs) - int64(t1.STimeMs),
		Mem:      types.ToBytes(t2.RSSBytes),
	}

	r.snapshots++
	r.sumMem += t2.RSSBytes
	// idle ticks stay out of the CPU average
	if cpu > 0 {
		r.sumCPU += cpu
		r.sumCPUCount++
	}
	r.sumDuration += row.Duration
	r.sumBytes += bytes
	r.sumRecords += uint64(records)

	return row, writeRow(r.w, r.cfg.Format, row)
}

// Snapshots returns the number of recorded ticks.
func (r *Report) Snapshots() int { return r.snapshots }

// TotalBytes returns the bytes reported across all ticks.
func (r *Report) TotalBytes() uint64 { return r.sumBytes }

// TotalRecords returns the records reported across all ticks.
func (r *Report) TotalRecords() uint64 { return r.sumRecords }

// Elapsed returns the summed tick duration minus the stabilization wait.
func (r *Report) Elapsed() float64 { return r.sumDuration - float64(r.cfg.Wait) }

// AvgMem returns the mean resident memory over all ticks.
func (r *Report) AvgMem() types.Bytes {
	if r.snapshots == 0 {
		return 0
	}
	return types.ToBytes(r.sumMem / uint64(r.snapshots))
}

// AvgCPU returns the mean CPU percent over non-idle ticks, or over all ticks
// when every tick was idle.
func (r *Report) AvgCPU() float64 {
	n := r.sumCPUCount
	if n == 0 {
		n = r.snapshots
	}
	if n == 0 {
		return 0
	}
	return r.sumCPU / float64(n)
}

// Summary writes the trailing summary block.
func (r *Report) Summary() error {
	if r.snapshots == 0 {
		return ErrNoSnapshots
	}

	var rate, recs float64
	if r.sumDuration > 0 {
		rate = float64(r.sumBytes) / r.sumDuration
		recs = float64(r.sumRecords) / r.sumDuration
	}

	_, err := fmt.Fprintf(r.w, "\n- Summary\n"+
		"  - Process     : %s\n"+
		"  - PID         : %d\n"+
		"  - Elapsed Time: %.2f seconds\n"+
		"  - Avg Memory  : %s\n"+
		"  - Avg CPU     : %.2f%%\n"+
		"  - Avg Rate    : %s/sec\n"+
		"  - Avg Records : %.2f/sec\n",
		r.cfg.Name,
		r.cfg.PID,
		r.Elapsed(),
		r.AvgMem().Humanized(),
		r.AvgCPU(),
		types.Bytes(rate).Humanized(),
		recs,
	)
	return err
}

// Close releases the output unless it is standard output. Calling Close
// twice is a programming error and panics.
func (r *Report) Close() error {
	if r.closed {
		panic("report: Close called twice")
	}
	r.closed = true
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
