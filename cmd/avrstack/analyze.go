package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mranakol/avrstack/internal/config"
	"github.com/mranakol/avrstack/pkg/pipeline"
	"github.com/mranakol/avrstack/pkg/policy"
	"github.com/mranakol/avrstack/pkg/report"
)

var (
	flagMCU     string
	flagFormat  string
	flagPolicy  string
	flagNoColor bool
	flagWorkDir string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <source.c>",
	Short: "Compile, disassemble, and estimate the worst-case stack depth of a source file",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&flagMCU, "mcu", "atmega328p", "target MCU (e.g. atmega328p, atmega2560, attiny85)")
	analyzeCmd.Flags().StringVar(&flagFormat, "format", "text", "output format: text, json, dot")
	analyzeCmd.Flags().StringVar(&flagPolicy, "policy", "", "path to a Starlark policy script")
	analyzeCmd.Flags().BoolVar(&flagNoColor, "no-color", false, "disable colorized text output")
	analyzeCmd.Flags().StringVar(&flagWorkDir, "workdir", "", "reuse this directory instead of a temporary scoped workspace")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	source := args[0]

	cfg := config.Default()
	if flagConfig != "" {
		loaded, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	pol := policy.Default()
	policyPath := flagPolicy
	if policyPath == "" {
		policyPath = cfg.PolicyScript
	}
	if policyPath != "" {
		src, err := os.ReadFile(policyPath)
		if err != nil {
			return fmt.Errorf("reading policy script: %w", err)
		}
		if err := pol.LoadStarlark(policyPath, src); err != nil {
			return err
		}
	}

	res, err := pipeline.Run(context.Background(), pipeline.Options{
		SourceFile: source,
		MCUType:    flagMCU,
		Config:     cfg,
		Policy:     pol,
		WorkDir:    flagWorkDir,
	})
	if err != nil {
		return err
	}

	format := report.Format(flagFormat)
	colorize := format == report.Text && !flagNoColor && isatty.IsTerminal(os.Stdout.Fd())

	var out io.Writer = os.Stdout
	if colorize {
		// Wraps stdout so the ANSI escapes report.Render emits survive on a
		// Windows console the way they do natively on posix terminals.
		out = colorable.NewColorableStdout()
	}
	return report.Render(out, format, res, colorize)
}
