//go:build linux

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

type globals struct {
	configPath  string
	logLevel    string
	metricsAddr string
}

func main() {
	var g globals

	root := &cobra.Command{
		Use:   "loadwriter",
		Short: "Replay record files at a fixed rate and measure the consumer",
		Long: `The loadwriter tool replays the leading records of a flat record file
once per second into a file or a set of TCP connections, optionally ramping
the volume up linearly, while it samples the CPU and memory of a target
process from /proc. After the timed phase it keeps sampling until the target
goes idle and prints a per-second report with a summary.

Examples:
  loadwriter tail -d apache.log -o /var/log/in.log -r 5000 -s 30 -p $(pidof fluent-bit)
  loadwriter tcp -d apache.log -t 127.0.0.1:5170 -c 4 -r 10000 -i 500 -F markdown -R run.md -p 4242
  loadwriter tail --config profiles/tail.yaml -s 60`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&g.configPath, "config", "", "YAML run profile; flags set on the command line win")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error (default info)")
	root.PersistentFlags().StringVar(&g.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9108)")

	root.AddCommand(newTailCmd(&g), newTCPCmd(&g))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		slog.Error(err.Error())
		stop()
		os.Exit(1)
	}
}
