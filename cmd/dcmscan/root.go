package main

import (
	"fmt"
	"os"

	"github.com/b71729/dcmscan"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logLevel   string
	logFormat  string
	noColor    bool
	openFiles  int
	maxItems   int
	maxDepth   int
	elideAbove int
)

// set by setup before any subcommand runs
var (
	cfg    dcmscan.Config
	logger = zap.NewNop().Sugar()
)

var rootCmd = &cobra.Command{
	Use:               "dcmscan",
	Short:             "Walk the data element stream of DICOM files",
	Version:           dcmscan.Version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// setup layers command line flags over the environment configuration
func setup(cmd *cobra.Command, _ []string) error {
	c, err := dcmscan.GetConfig()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		c.LogLevel = logLevel
	}
	if flags.Changed("log-format") {
		c.LogFormat = logFormat
	}
	if flags.Changed("no-color") {
		c.Color = !noColor
	}
	if flags.Changed("open-files") {
		c.OpenFileLimit = openFiles
	}
	if flags.Changed("max-items") {
		c.MaxScanItems = maxItems
	}
	if flags.Changed("max-depth") {
		c.MaxNestingDepth = maxDepth
	}
	if flags.Changed("elide-above") {
		c.ElideAbove = elideAbove
	}
	if err := dcmscan.OverrideConfig(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	l, err := dcmscan.NewLogger(c, zapcore.Lock(os.Stderr))
	if err != nil {
		return err
	}
	cfg, logger = c, l
	return nil
}

func decodeOptions() []dcmscan.Option {
	return []dcmscan.Option{dcmscan.WithConfig(cfg), dcmscan.WithLogger(logger)}
}

func init() {
	def := dcmscan.DefaultConfig()
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&logLevel, "log-level", def.LogLevel, "log level (debug, info, warn, error, fatal, none)")
	pf.StringVar(&logFormat, "log-format", def.LogFormat, "log format (console, json)")
	pf.BoolVar(&noColor, "no-color", false, "disable coloured output")
	pf.IntVar(&openFiles, "open-files", def.OpenFileLimit, "maximum number of files decoded concurrently")
	pf.IntVar(&maxItems, "max-items", def.MaxScanItems, "maximum item headers scanned per element")
	pf.IntVar(&maxDepth, "max-depth", def.MaxNestingDepth, "maximum nesting of undefined-length values")
	pf.IntVar(&elideAbove, "elide-above", def.ElideAbove, "largest value, in bytes, printed in full")
}
