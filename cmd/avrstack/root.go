package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mranakol/avrstack/internal/logflags"
)

var (
	flagLogLevel  string
	flagLogStages string
	flagConfig    string
)

var rootCmd = &cobra.Command{
	Use:           "avrstack",
	Short:         "Static worst-case stack depth analysis for AVR C programs",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logflags.Setup(flagLogLevel, flagLogStages, nil)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warning",
		"logging level: debug, info, warning, error")
	rootCmd.PersistentFlags().StringVar(&flagLogStages, "log-stages", "",
		"comma-separated pipeline stages to log (default: all); filters only loggers obtained through logflags.Stage")
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "",
		"path to a yaml configuration file")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(exploreCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the CLI, printing any returned error to stderr.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "avrstack:", err)
		return err
	}
	return nil
}
