//go:build linux

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ja7ad/loadwriter/pkg/config"
	"github.com/ja7ad/loadwriter/pkg/metrics"
	"github.com/ja7ad/loadwriter/pkg/sink"
	"github.com/ja7ad/loadwriter/pkg/system/proc"
	"github.com/ja7ad/loadwriter/pkg/system/util"
	"github.com/ja7ad/loadwriter/pkg/types"
	"github.com/ja7ad/loadwriter/pkg/writer"
)

func newTailCmd(g *globals) *cobra.Command {
	flags := config.Default()
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Write records into a file, as a tailed log would grow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := resolve(cmd.Flags(), flags, *g)
			if err != nil {
				return err
			}
			return run(cmd.Context(), c, tailVariant)
		},
	}
	bindFlags(cmd.Flags(), &flags, tailVariant)
	return cmd
}

func newTCPCmd(g *globals) *cobra.Command {
	flags := config.Default()
	cmd := &cobra.Command{
		Use:   "tcp",
		Short: "Write records over one or more TCP connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := resolve(cmd.Flags(), flags, *g)
			if err != nil {
				return err
			}
			return run(cmd.Context(), c, tcpVariant)
		},
	}
	bindFlags(cmd.Flags(), &flags, tcpVariant)
	return cmd
}

func run(ctx context.Context, c config.Config, v variant) error {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	host, kernel, cpus, mem := util.SystemSummary()
	fmt.Fprintf(os.Stderr, _console, host, kernel, cpus, mem, time.Now().Format("2006-01-02 15:04:05"))

	if c.PID > 0 {
		name, err := proc.Lookup(c.PID)
		if err != nil {
			return err
		}
		log.Info("monitoring", "pid", c.PID, "name", name)
	}

	var m *metrics.Metrics
	if c.MetricsAddr != "" {
		m = metrics.New()
		go func() {
			if err := m.Serve(ctx, c.MetricsAddr); err != nil {
				log.Error("metrics server", "addr", c.MetricsAddr, "err", err)
			}
		}()
	}

	w := writer.New(c.Writer(), writer.WithLogger(log), writer.WithMetrics(m))

	var res writer.Result
	switch v {
	case tcpVariant:
		addr := sink.ParseAddr(c.Target)
		log.Info("connecting", "addr", addr, "conns", c.Concurrency)
		res, err = w.RunTCP(ctx, addr, c.Concurrency)
	default:
		out, isStdout := stdoutPath(c.Output)
		if isStdout && term.IsTerminal(int(os.Stdout.Fd())) {
			log.Warn("records are written to a terminal; use -o to pick a file")
		}
		res, err = w.RunFile(ctx, out)
	}
	if err != nil {
		return err
	}

	log.Info("done",
		"ticks", res.Ticks,
		"drain_ticks", res.DrainTicks,
		"records", res.Records,
		"bytes", types.ToBytes(res.Bytes).Humanized(),
		"interrupted", res.Interrupted)
	return nil
}

const _console = `LoadWriter - Record Replay and Consumer Measurement Tool

       Host: %s
       Kernel: %s
       CPUs: %s
       Mem: %s

Run started at %s:

`
