//go:build linux

package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"

	"github.com/ja7ad/loadwriter/pkg/config"
)

type variant int

const (
	tailVariant variant = iota
	tcpVariant
)

// bindFlags registers the run flags on fs with c's values as defaults.
func bindFlags(fs *pflag.FlagSet, c *config.Config, v variant) {
	fs.StringVarP(&c.DataFile, "data", "d", c.DataFile, "record file to replay (required)")
	fs.IntVarP(&c.PID, "pid", "p", c.PID, "PID to monitor; negative disables the report")
	fs.IntVarP(&c.Records, "records", "r", c.Records, "records to write per second")
	fs.IntVarP(&c.IncreaseBy, "increase", "i", c.IncreaseBy, "records added per elapsed second")
	fs.IntVarP(&c.Seconds, "seconds", "s", c.Seconds, "seconds to run before draining")
	fs.StringVarP(&c.Report, "report", "R", c.Report, "report file (default stdout)")
	fs.StringVarP(&c.Format, "format", "F", c.Format, "report format: text, markdown, csv")
	fs.Uint64VarP(&c.DeltaStop, "delta-stop", "D", c.DeltaStop, "user ms per second still treated as idle while draining")
	fs.IntVar(&c.StableTicks, "stable", c.StableTicks, "idle seconds in a row that end the drain")

	switch v {
	case tailVariant:
		fs.StringVarP(&c.Output, "output", "o", c.Output, "output file, truncated on start")
	case tcpVariant:
		fs.StringVarP(&c.Target, "target", "t", c.Target, "host[:port] to connect to")
		fs.IntVarP(&c.Concurrency, "concurrency", "c", c.Concurrency, "connections to open")
	}
}

// overrides copies a changed flag's value over the profile.
var overrides = map[string]func(dst, src *config.Config){
	"data":        func(d, s *config.Config) { d.DataFile = s.DataFile },
	"pid":         func(d, s *config.Config) { d.PID = s.PID },
	"records":     func(d, s *config.Config) { d.Records = s.Records },
	"increase":    func(d, s *config.Config) { d.IncreaseBy = s.IncreaseBy },
	"seconds":     func(d, s *config.Config) { d.Seconds = s.Seconds },
	"report":      func(d, s *config.Config) { d.Report = s.Report },
	"format":      func(d, s *config.Config) { d.Format = s.Format },
	"delta-stop":  func(d, s *config.Config) { d.DeltaStop = s.DeltaStop },
	"stable":      func(d, s *config.Config) { d.StableTicks = s.StableTicks },
	"output":      func(d, s *config.Config) { d.Output = s.Output },
	"target":      func(d, s *config.Config) { d.Target = s.Target },
	"concurrency": func(d, s *config.Config) { d.Concurrency = s.Concurrency },
}

// resolve merges the profile at path under the flags changed in fs.
func resolve(fs *pflag.FlagSet, flags config.Config, g globals) (config.Config, error) {
	c := flags
	if g.configPath != "" {
		var err error
		if c, err = config.Load(g.configPath); err != nil {
			return c, err
		}
		fs.Visit(func(f *pflag.Flag) {
			if set, ok := overrides[f.Name]; ok {
				set(&c, &flags)
			}
		})
	}
	if g.logLevel != "" {
		c.LogLevel = g.logLevel
	}
	if g.metricsAddr != "" {
		c.MetricsAddr = g.metricsAddr
	}
	return c, c.Validate()
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, fmt.Errorf("log level %q: %w", s, err)
	}
	return l, nil
}

// stdoutPath maps the spellings of standard output to /dev/stdout.
func stdoutPath(p string) (string, bool) {
	switch strings.TrimSpace(p) {
	case "", "-", "/dev/stdout", "/proc/self/fd/1":
		return "/dev/stdout", true
	}
	return p, false
}
