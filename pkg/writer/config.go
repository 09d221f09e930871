package writer

import (
	"fmt"
	"time"

	"github.com/ja7ad/loadwriter/pkg/report"
)

// Defaults for a run.
const (
	DefaultRecords     = 1000
	DefaultSeconds     = 10
	DefaultStableTicks = 3
	DefaultTick        = time.Second
)

// Config describes one dispatch run.
type Config struct {
	DataFile   string
	Records    int // base records per tick, split across sinks
	IncreaseBy int // ramp records added per elapsed tick
	Seconds    int // ticks in the ramp phase

	// PID of the monitored process. Zero or negative disables sampling,
	// the report and the drain phase.
	PID int

	Report string // report path, "" or "-" for stdout
	Format report.Format

	// DeltaStop is the user-time delta in milliseconds still counted as
	// idle while draining.
	DeltaStop   uint64
	StableTicks int
	Tick        time.Duration
}

func (c *Config) withDefaults() {
	if c.StableTicks <= 0 {
		c.StableTicks = DefaultStableTicks
	}
	if c.Tick <= 0 {
		c.Tick = DefaultTick
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.DataFile == "":
		return fmt.Errorf("%w: data file is required", ErrBadConfig)
	case c.Records < 1:
		return fmt.Errorf("%w: records must be >= 1, got %d", ErrBadConfig, c.Records)
	case c.Seconds < 1:
		return fmt.Errorf("%w: seconds must be >= 1, got %d", ErrBadConfig, c.Seconds)
	case c.IncreaseBy < 0:
		return fmt.Errorf("%w: increase-by must be >= 0, got %d", ErrBadConfig, c.IncreaseBy)
	}
	return nil
}

// Monitored reports whether a target process is sampled.
func (c Config) Monitored() bool { return c.PID > 0 }
