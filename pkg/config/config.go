//go:build linux

// Package config loads YAML run profiles. Values set on the command line
// take precedence over the profile; the profile takes precedence over Default.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ja7ad/loadwriter/pkg/report"
	"github.com/ja7ad/loadwriter/pkg/sink"
	"github.com/ja7ad/loadwriter/pkg/writer"
)

var ErrInvalid = errors.New("config: invalid profile")

// Config is a run profile shared by the tail and tcp commands.
type Config struct {
	DataFile    string `yaml:"datafile"`
	PID         int    `yaml:"pid"`
	Output      string `yaml:"output"`      // tail: output file
	Target      string `yaml:"target"`      // tcp: host[:port]
	Concurrency int    `yaml:"concurrency"` // tcp: connections
	Records     int    `yaml:"records"`
	IncreaseBy  int    `yaml:"increase_by"`
	Seconds     int    `yaml:"seconds"`
	Report      string `yaml:"report"`
	Format      string `yaml:"format"`
	DeltaStop   uint64 `yaml:"delta_stop"`
	StableTicks int    `yaml:"stable_ticks"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Default returns the built-in profile.
func Default() Config {
	return Config{
		PID:         -1,
		Output:      "/dev/stdout",
		Target:      sink.DefaultHost + ":" + sink.DefaultPort,
		Concurrency: 1,
		Records:     writer.DefaultRecords,
		Seconds:     writer.DefaultSeconds,
		Format:      report.Text.String(),
		StableTicks: writer.DefaultStableTicks,
		LogLevel:    "info",
	}
}

// Load reads path over Default. Unknown keys are rejected.
func Load(path string) (Config, error) {
	c := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read profile: %w", err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return c, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return c, fmt.Errorf("%w: %s: %w", ErrInvalid, path, err)
	}
	return c, nil
}

// Validate checks the fields both commands share.
func (c Config) Validate() error {
	if _, err := report.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency must be >= 1, got %d", ErrInvalid, c.Concurrency)
	}
	if err := c.Writer().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Writer converts the profile into a dispatch configuration.
func (c Config) Writer() writer.Config {
	f, _ := report.ParseFormat(c.Format)
	return writer.Config{
		DataFile:    c.DataFile,
		Records:     c.Records,
		IncreaseBy:  c.IncreaseBy,
		Seconds:     c.Seconds,
		PID:         c.PID,
		Report:      c.Report,
		Format:      f,
		DeltaStop:   c.DeltaStop,
		StableTicks: c.StableTicks,
		Tick:        time.Second,
	}
}
