package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/chatgate/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "chatgate",
	Short: "Chatgate - conversational LLM gateway",
	Long: `Chatgate is an HTTP gateway in front of a single LLM provider.

It provides:
  - Multi-turn conversations with bounded, expiring history
  - Per-client sliding-window rate limiting
  - Completed and streamed (SSE) chat turns
  - Structured document analysis and classification
  - Prometheus metrics and OpenTelemetry tracing`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults and environment only when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
