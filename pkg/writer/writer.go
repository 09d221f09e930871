//go:build linux

package writer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ja7ad/loadwriter/pkg/datafile"
	"github.com/ja7ad/loadwriter/pkg/metrics"
	"github.com/ja7ad/loadwriter/pkg/report"
	"github.com/ja7ad/loadwriter/pkg/sink"
	"github.com/ja7ad/loadwriter/pkg/system/proc"
)

// Opener connects the sinks for a run.
type Opener func(ctx context.Context) ([]sink.Sink, error)

// Result summarizes a finished run.
type Result struct {
	Ticks       int    // completed ramp ticks
	DrainTicks  int    // completed drain ticks
	Snapshots   int    // report rows written
	Records     uint64 // records fully delivered across all sinks
	Bytes       uint64 // bytes delivered across all sinks
	Interrupted bool   // the context ended the run early
}

// Writer drives Setup, Ramp-Run, Drain and finalization for one run.
type Writer struct {
	cfg       Config
	sampler   proc.Sampler
	metrics   *metrics.Metrics
	log       *slog.Logger
	reportOut io.Writer
	sleep     func(ctx context.Context, d time.Duration) error
}

// Option configures a Writer.
type Option func(*Writer)

// WithSampler replaces the /proc sampler.
func WithSampler(s proc.Sampler) Option { return func(w *Writer) { w.sampler = s } }

// WithMetrics publishes dispatch counters to m.
func WithMetrics(m *metrics.Metrics) Option { return func(w *Writer) { w.metrics = m } }

// WithLogger sets the logger for per-tick warnings.
func WithLogger(l *slog.Logger) Option { return func(w *Writer) { w.log = l } }

// WithReportWriter renders the report to out instead of Config.Report.
func WithReportWriter(out io.Writer) Option { return func(w *Writer) { w.reportOut = out } }

func withSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(w *Writer) { w.sleep = fn }
}

// New returns a Writer for cfg.
func New(cfg Config, opts ...Option) *Writer {
	cfg.withDefaults()
	w := &Writer{
		cfg:   cfg,
		log:   slog.Default(),
		sleep: sleep,
	}
	for _, o := range opts {
		o(w)
	}
	if w.sampler == nil {
		w.sampler = proc.NewSampler()
	}
	return w
}

// RunFile dispatches into a single truncated file.
func (w *Writer) RunFile(ctx context.Context, path string) (Result, error) {
	return w.Run(ctx, func(context.Context) ([]sink.Sink, error) {
		s, err := sink.OpenFile(path)
		if err != nil {
			return nil, err
		}
		return []sink.Sink{s}, nil
	})
}

// RunTCP dispatches over conns connections to addr.
func (w *Writer) RunTCP(ctx context.Context, addr string, conns int) (Result, error) {
	return w.Run(ctx, func(ctx context.Context) ([]sink.Sink, error) {
		return sink.Dial(ctx, addr, conns)
	})
}

// run holds what Setup acquired.
type run struct {
	data   *datafile.File
	sinks  []sink.Sink
	report *report.Report

	perSink   int
	baseOff   int64
	incOff    int64
	before    *proc.Task
	result    Result
	finalized bool
}

// Run executes the whole state machine. Setup errors are returned before any
// tick runs, with every acquired resource released.
func (w *Writer) Run(ctx context.Context, open Opener) (Result, error) {
	if err := w.cfg.Validate(); err != nil {
		return Result{}, err
	}

	r, err := w.setup(ctx, open)
	if err != nil {
		return Result{}, err
	}

	w.ramp(ctx, r)
	if r.report != nil && !r.result.Interrupted {
		w.drain(ctx, r)
	}
	err = w.finalize(r)
	return r.result, err
}

func (w *Writer) setup(ctx context.Context, open Opener) (*run, error) {
	r := &run{}
	if err := w.acquire(ctx, r, open); err != nil {
		return nil, errors.Join(err, r.release())
	}
	w.log.Debug("setup done",
		"data", r.data.Name(), "size", r.data.Size(), "records_in_file", r.data.Records(),
		"sinks", len(r.sinks), "per_sink", r.perSink,
		"base_bytes", r.baseOff, "increment_bytes", r.incOff)
	return r, nil
}

func (w *Writer) acquire(ctx context.Context, r *run, open Opener) (err error) {
	if r.data, err = datafile.Load(w.cfg.DataFile); err != nil {
		return err
	}

	if r.sinks, err = open(ctx); err != nil {
		return err
	}
	if len(r.sinks) == 0 {
		return ErrNoSinks
	}

	r.perSink = w.cfg.Records / len(r.sinks)
	if r.perSink == 0 {
		w.log.Warn("records per sink rounds down to zero",
			"records", w.cfg.Records, "sinks", len(r.sinks))
	}
	if r.baseOff, err = r.data.Offset(r.perSink); err != nil {
		return fmt.Errorf("base offset: %w", err)
	}
	if w.cfg.IncreaseBy > 0 {
		if r.incOff, err = r.data.Offset(w.cfg.IncreaseBy); err != nil {
			return fmt.Errorf("increment offset: %w", err)
		}
	}

	if !w.cfg.Monitored() {
		return nil
	}

	if r.before, err = w.sampler.Sample(w.cfg.PID); err != nil {
		return fmt.Errorf("%w: %w", ErrInitialStats, err)
	}
	rcfg := report.Config{
		Format:     w.cfg.Format,
		PID:        w.cfg.PID,
		Name:       r.before.Name,
		Wait:       int(time.Duration(w.cfg.StableTicks) * w.cfg.Tick / time.Second),
		ClockTicks: w.clockTicks(),
	}
	if w.reportOut != nil {
		r.report, err = report.New(w.reportOut, rcfg)
	} else {
		r.report, err = report.Create(w.cfg.Report, rcfg)
	}
	return err
}

func (w *Writer) clockTicks() int {
	if c, ok := w.sampler.(interface{ ClockTicks() int }); ok {
		return c.ClockTicks()
	}
	return proc.ClockTicks()
}

func (w *Writer) ramp(ctx context.Context, r *run) {
	for i := 0; i < w.cfg.Seconds; i++ {
		if r.report != nil && r.before == nil {
			r.before = w.sample(i)
		}

		records, bytes := w.dispatch(r, i)
		r.result.Records += records
		r.result.Bytes += bytes

		if err := w.sleep(ctx, w.cfg.Tick); err != nil {
			r.result.Interrupted = true
			return
		}
		r.result.Ticks++
		w.metrics.Tick("run")

		if r.report != nil {
			w.record(r, i, int(records), bytes)
		}
	}
}

// dispatch sends one tick's ranges to every sink in order.
func (w *Writer) dispatch(r *run, tick int) (records, bytes uint64) {
	fd := r.data.Fd()
	for _, s := range r.sinks {
		n, ok := w.transfer(s, fd, r.baseOff, r.perSink, tick)
		bytes += n
		if ok {
			records += uint64(r.perSink)
		}
		if w.cfg.IncreaseBy == 0 || tick == 0 {
			continue
		}
		for k := 0; k < tick; k++ {
			n, ok := w.transfer(s, fd, r.incOff, w.cfg.IncreaseBy, tick)
			bytes += n
			if ok {
				records += uint64(w.cfg.IncreaseBy)
			}
		}
	}
	return records, bytes
}

func (w *Writer) transfer(s sink.Sink, fd int, n int64, records, tick int) (uint64, bool) {
	written, err := s.Transfer(fd, n)
	if written < 0 {
		written = 0
	}
	w.metrics.Transfer(s.Name(), records, written, err)
	if err != nil {
		w.log.Warn("transfer failed", "sink", s.Name(), "tick", tick, "err", err)
		return uint64(written), false
	}
	return uint64(written), true
}

func (w *Writer) sample(tick int) *proc.Task {
	t, err := w.sampler.Sample(w.cfg.PID)
	if err != nil {
		w.metrics.SampleError()
		w.log.Warn("sample failed", "pid", w.cfg.PID, "tick", tick, "err", err)
		return nil
	}
	return t
}

// record closes the tick with an "after" sample. On failure the tick has no
// row and the next tick starts from a fresh sample.
func (w *Writer) record(r *run, tick, records int, bytes uint64) bool {
	after := w.sample(tick)
	if after == nil {
		r.before = nil
		return false
	}
	if r.before != nil {
		row, err := r.report.Stats(records, bytes, r.before, after)
		if err != nil {
			w.log.Warn("report row", "tick", tick, "err", err)
		}
		w.metrics.Sample(row.CPU, row.Mem.ToUint64())
	}
	r.before = after
	return true
}

// drain samples until the target's user time stops moving for StableTicks
// consecutive ticks. A failed sample ends the phase.
func (w *Writer) drain(ctx context.Context, r *run) {
	stable := 0
	for tick := 0; stable < w.cfg.StableTicks; tick++ {
		if r.before == nil {
			if r.before = w.sample(tick); r.before == nil {
				return
			}
		}
		before := r.before

		if err := w.sleep(ctx, w.cfg.Tick); err != nil {
			r.result.Interrupted = true
			return
		}
		if !w.record(r, tick, 0, 0) {
			return
		}
		r.result.DrainTicks++
		w.metrics.Tick("drain")

		if proc.UserDeltaMs(before, r.before) <= w.cfg.DeltaStop {
			stable++
		} else {
			stable = 0
		}
		w.log.Debug("drain", "tick", tick, "stable", stable)
	}
}

func (w *Writer) finalize(r *run) error {
	var err error
	if r.report != nil {
		r.result.Snapshots = r.report.Snapshots()
		w.log.Debug("report totals",
			"snapshots", r.report.Snapshots(),
			"records", r.report.TotalRecords(),
			"bytes", r.report.TotalBytes())
		if serr := r.report.Summary(); serr != nil {
			if errors.Is(serr, report.ErrNoSnapshots) {
				w.log.Warn("no samples recorded, summary skipped", "pid", w.cfg.PID)
			} else {
				err = fmt.Errorf("write summary: %w", serr)
			}
		}
	}
	return errors.Join(err, r.release())
}

// release closes the report, the sinks and the input buffer.
func (r *run) release() error {
	if r.finalized {
		return nil
	}
	r.finalized = true

	var err error
	if r.report != nil {
		err = errors.Join(err, r.report.Close())
	}
	err = errors.Join(err, sink.CloseAll(r.sinks))
	if r.data != nil {
		err = errors.Join(err, r.data.Close())
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
