// Copyright 2026 The dsim Authors
// Licensed under the MIT license. See license text in the LICENSE file.

// Command dsim runs a demo simulation: a 4-bit counter in a clocked
// domain with synchronous reset, dumped to a value-change log.
package main

import (
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/cobra"

	"github.com/hwkit/dsim"
	"github.com/hwkit/dsim/logic"
)

type options struct {
	cycles  int
	vcdPath string
	savPath string
	logPath string
}

func main() {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "dsim",
		Short:         "Simulate a demo counter circuit and dump a value-change log",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}
	cmd.Flags().IntVar(&opts.cycles, "cycles", 64, "number of scheduler advances to run")
	cmd.Flags().StringVar(&opts.vcdPath, "vcd", "counter.vcd", "value-change log output path")
	cmd.Flags().StringVar(&opts.savPath, "sav", "", "viewer save file output path")
	cmd.Flags().StringVar(&opts.logPath, "log", "", "also write logs to this file")

	if err := cmd.Execute(); err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(path string) (*slog.Logger, func(), error) {
	stderr := slog.NewTextHandler(os.Stderr, nil)
	if path == "" {
		return slog.New(stderr), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	h := slogmulti.Fanout(stderr, slog.NewTextHandler(f, nil))
	return slog.New(h), func() { f.Close() }, nil
}

func run(opts *options) error {
	logger, closeLog, err := newLogger(opts.logPath)
	if err != nil {
		return err
	}
	defer closeLog()

	clk := dsim.NewSignal("clk", 1)
	rst := dsim.NewSignal("rst", 1)
	count := dsim.NewSignal("count", 4)

	f := dsim.NewFragment()
	f.AddDomain(&dsim.Domain{Name: "sync", Clk: clk, Rst: rst})
	f.AddStatement("sync", logic.Inc(count, count))

	eng, err := dsim.New(f)
	if err != nil {
		return err
	}
	if err := eng.AddClock(clk, 0, 10); err != nil {
		return err
	}
	eng.AddTestbench(func(tb *dsim.Testbench) {
		tb.Set(rst, 1)
		tb.Tick("sync")
		tb.Set(rst, 0)
	}, true)

	vcdFile, err := os.Create(opts.vcdPath)
	if err != nil {
		return err
	}
	defer vcdFile.Close()

	cfg := dsim.RecordConfig{
		VCD:     vcdFile,
		VCDPath: opts.vcdPath,
		Traces:  []*dsim.Signal{clk, rst, count},
	}
	if opts.savPath != "" {
		savFile, err := os.Create(opts.savPath)
		if err != nil {
			return err
		}
		defer savFile.Close()
		cfg.Save = savFile
	}

	logger.Info("starting simulation", "cycles", opts.cycles, "vcd", opts.vcdPath)
	err = eng.WithRecording(cfg, func() error {
		for i := 0; i < opts.cycles && eng.Advance(); i++ {
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("simulation done", "now", eng.Now(), "count", eng.State().Get(count))
	return nil
}
