// Command episim runs agent-based epidemiological simulations from YAML
// scenario files.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/episim-dev/episim/internal/logging"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "episim",
		Short: "Agent-based epidemiological simulation",
		Long: `episim runs agent-based disease transmission simulations.

A scenario file declares the population, contact networks, diseases,
demographics, interventions, and connectors; episim builds the model,
runs the time loop, and exports the result series.`,
	}

	// Global flags
	rootCmd.PersistentFlags().String("log-level", "info", "Log verbosity: info, debug, or trace")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON where supported")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newSweepCmd(),
		newValidateCmd(),
		newRunsCmd(),
		newExportCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loggerFromFlags builds the stderr logger configured by --log-level.
func loggerFromFlags(cmd *cobra.Command) (string, *slog.Logger) {
	level, _ := cmd.Flags().GetString("log-level")
	return level, logging.NewLogger(level, os.Stderr)
}
