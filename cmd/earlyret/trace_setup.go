package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"earlyret/internal/driver"
	"earlyret/internal/trace"
)

// readTraceConfig maps the persistent --trace* flags onto trace.Config.
func readTraceConfig(cmd *cobra.Command) (trace.Config, error) {
	var cfg trace.Config
	flags := cmd.Root().PersistentFlags()
	var err error
	if cfg.OutputPath, err = flags.GetString("trace"); err != nil {
		return cfg, fmt.Errorf("failed to get trace flag: %w", err)
	}
	if cfg.RingSize, err = flags.GetInt("trace-ring-size"); err != nil {
		return cfg, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	level, err := flags.GetString("trace-level")
	if err != nil {
		return cfg, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	if cfg.Level, err = trace.ParseLevel(level); err != nil {
		return cfg, err
	}
	mode, err := flags.GetString("trace-mode")
	if err != nil {
		return cfg, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	cfg.Mode, err = trace.ParseMode(mode)
	return cfg, err
}

// setupTracing installs the tracer on the command context and returns the
// function that flushes and closes it.
func setupTracing(cmd *cobra.Command) (func(), error) {
	cfg, err := readTraceConfig(cmd)
	if err != nil {
		return nil, err
	}
	tracer, err := trace.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)
	cmd.Root().SetContext(ctx)
	if !tracer.Enabled() {
		return func() {}, nil
	}
	return func() {
		// Close сам сбрасывает буферы потоковых трассировщиков
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}, nil
}

// dumpTraceRing prints the in-memory trace tail of the failed files after a run.
func dumpTraceRing(cmd *cobra.Command, w io.Writer, run *driver.Run) {
	ring := trace.Ring(trace.FromContext(cmd.Context()))
	if ring == nil {
		return
	}
	var failed []string
	for i := range run.Results {
		if run.Results[i].Err != nil {
			failed = append(failed, run.Results[i].Path)
		}
	}
	fmt.Fprintf(w, "--- trace (most recent events of %d failed file(s)) ---\n", len(failed))
	if err := ring.Dump(w, trace.FormatText, failed...); err != nil {
		fmt.Fprintf(w, "trace: dump error: %v\n", err)
	}
}
