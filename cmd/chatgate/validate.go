package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mercator-hq/chatgate/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load a configuration file, apply defaults and CHATGATE_* environment
overrides, and check every field. All problems are reported at once.

Examples:
  # Validate a config file
  chatgate validate --config config.yaml

  # Show the effective settings as well
  chatgate validate --config config.yaml --verbose`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgFile, nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "✓ Configuration valid")
	if verbose {
		printSummary(out, cfg)
	}
	return nil
}

func printSummary(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Listen address: %s\n", cfg.Server.ListenAddress)
	fmt.Fprintf(w, "Provider:       %s (model %s)\n", cfg.Provider.Type, cfg.Provider.Model)
	if cfg.Limits.Rate.Window == 0 {
		fmt.Fprintln(w, "Rate limit:     unlimited")
	} else {
		fmt.Fprintf(w, "Rate limit:     %d requests per %s\n", cfg.Limits.Rate.Requests, cfg.Limits.Rate.Window)
	}
	fmt.Fprintf(w, "Sessions:       %d turns, idle ttl %s, sweep every %s\n",
		cfg.Sessions.MaxTurns, cfg.Sessions.TTL, cfg.Sessions.SweepInterval)
	fmt.Fprintf(w, "Upstream:       timeout %s\n", cfg.Gateway.UpstreamTimeout)
	if cfg.Security.Auth.Enabled {
		fmt.Fprintf(w, "Authentication: %d keys via %s\n", len(cfg.Security.Auth.Keys), cfg.Security.Auth.Header)
	} else {
		fmt.Fprintln(w, "Authentication: disabled")
	}
}
