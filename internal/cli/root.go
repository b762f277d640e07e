// Package cli provides the command-line interface for tanklog.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/tanklog/internal/cli/commands"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	rootCmd := NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		// SilenceErrors prevents Cobra from printing the error itself
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2 // Configuration or runtime error
	}
	return commands.ExitCode
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tanklog",
		Short: "Extract tank sensor time series from storage service logs",
		Long: `tanklog reads the logs written by a storage service and extracts the
tank sensor readings they carry as per-tank time series.

It handles:
  - UTF-8, UTF-16 and Windows-1251 encoded logs
  - gzip, zstd and lz4 compressed logs
  - Several ways of writing the date and time of a reading
  - Automatic detection of the column identifying the tank

Reports are written to stdout as text, JSON or CSV. Diagnostics go to stderr.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String(commands.FlagLogLevel, "", "Log level (debug|info|warn|error; default from config or info)")
	rootCmd.PersistentFlags().String(commands.FlagLogFormat, "", "Log format (console|json; default from config or console)")

	rootCmd.AddCommand(commands.NewParseCommand())
	rootCmd.AddCommand(commands.NewDetectCommand())
	rootCmd.AddCommand(commands.NewDiagnoseCommand())
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
