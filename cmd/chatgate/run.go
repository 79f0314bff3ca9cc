package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mercator-hq/chatgate/pkg/analysis"
	"mercator-hq/chatgate/pkg/cli"
	"mercator-hq/chatgate/pkg/config"
	"mercator-hq/chatgate/pkg/gateway"
	"mercator-hq/chatgate/pkg/providerfactory"
	"mercator-hq/chatgate/pkg/providers"
	"mercator-hq/chatgate/pkg/security/auth"
	"mercator-hq/chatgate/pkg/security/secrets"
	"mercator-hq/chatgate/pkg/server"
	"mercator-hq/chatgate/pkg/telemetry/health"
	"mercator-hq/chatgate/pkg/telemetry/logging"
	"mercator-hq/chatgate/pkg/telemetry/metrics"
	"mercator-hq/chatgate/pkg/telemetry/tracing"
)

// healthCheckTimeout bounds the provider probe behind /ready.
const healthCheckTimeout = 5 * time.Second

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
	watch         bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the chatgate server",
	Long: `Start the chatgate server with the specified configuration.

The server listens on the configured address, admits clients through the
rate limiter and relays chat turns to the configured provider. SIGINT or
SIGTERM drains in-flight requests and stops the session reaper.

Examples:
  # Start with defaults and CHATGATE_* environment variables
  chatgate run

  # Start with a config file
  chatgate run --config /etc/chatgate/config.yaml

  # Override listen address
  chatgate run --listen 0.0.0.0:8080

  # Reload API keys when the config file changes
  chatgate run --config config.yaml --watch

  # Validate config without starting server
  chatgate run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
	runCmd.Flags().BoolVar(&runFlags.watch, "watch", false, "reload API keys when the config file changes")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgFile, func(cfg *config.Config) {
		if runFlags.listenAddress != "" {
			cfg.Server.ListenAddress = runFlags.listenAddress
		}
		if runFlags.logLevel != "" {
			cfg.Telemetry.Logging.Level = runFlags.logLevel
		}
	})
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
		Writer:    os.Stderr,
	})
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}
	slog.SetDefault(logger)

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	// Keep the unresolved client keys for reloads.
	rawKeys := append([]config.APIKeyConfig(nil), cfg.Security.Auth.Keys...)

	resolver, secretDir, err := secrets.NewFromConfig(&cfg.Security.Secrets, logger)
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}
	if err := resolver.ResolveConfig(ctx, cfg); err != nil {
		return cli.NewConfigError(cfgFile, err)
	}

	out := cmd.OutOrStdout()
	if runFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	printBanner(out, cfg)

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to initialize tracing: %w", err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	provider, err := providerfactory.NewProvider(providerConfig(&cfg.Provider))
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer provider.Close()
	fmt.Fprintf(out, "✓ Provider initialized (%s, model %s)\n", provider.GetType(), cfg.Provider.Model)

	service, err := gateway.NewService(provider, cfg,
		gateway.WithServiceMetrics(collector),
		gateway.WithServiceTracer(tracer.Tracer()),
		gateway.WithServiceLogger(logger),
	)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	if err := service.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	defer service.Close()

	checker := health.New(Version, healthCheckTimeout)
	checker.RegisterCheck("provider", provider.HealthCheck)

	validator := auth.NewAPIKeyValidator(auth.KeysFromConfig(cfg.Security.Auth.Keys))
	keys := newKeyReloader(resolver, validator, rawKeys, logger)

	srv, err := server.NewServer(cfg, server.Dependencies{
		Gateway:  service.Gateway(),
		Analyzer: analysis.New(service.Gateway(), analysis.WithLogger(logger)),
		Provider: provider,
		Health:   checker,
		Metrics:  collector,
		Keys:     validator,
		Logger:   logger,
	})
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})

	if (runFlags.watch || cfg.Security.Auth.Watch) && cfgFile != "" {
		watcher, err := config.NewWatcher(cfgFile, func(next *config.Config) {
			keys.configChanged(gctx, next)
		}, config.WithWatchLogger(logger))
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		g.Go(func() error {
			// Losing the watcher keeps the current keys; it is not a reason
			// to stop serving.
			if err := watcher.Watch(gctx); err != nil {
				logger.Error("config watcher failed", "error", err)
			}
			return nil
		})
	}

	if (runFlags.watch || cfg.Security.Auth.Watch) && secretDir != nil {
		g.Go(func() error {
			if err := secretDir.Watch(gctx, func() { keys.secretsChanged(gctx) }); err != nil {
				logger.Error("secrets watcher failed", "error", err)
			}
			return nil
		})
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Fprintf(out, "✓ Health endpoint: http://%s/health\n", cfg.Server.ListenAddress)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Fprintf(out, "✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	if err := g.Wait(); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}

// loadConfig loads path (or defaults and environment when empty), applies
// override and validates the result.
func loadConfig(path string, override func(*config.Config)) (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, cli.NewConfigError(path, err)
	}
	if override != nil {
		override(cfg)
		if err := config.Validate(cfg); err != nil {
			return nil, cli.NewConfigError(path, err)
		}
	}
	return cfg, nil
}

// providerConfig converts the provider section into the adapter config.
func providerConfig(p *config.ProviderConfig) providers.ProviderConfig {
	return providers.ProviderConfig{
		Name:       p.Type,
		Type:       p.Type,
		BaseURL:    p.BaseURL,
		APIKey:     p.APIKey,
		Timeout:    p.Timeout,
		MaxRetries: p.MaxRetries,
	}
}

func printBanner(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "Chatgate v%s\n", Version)
	if cfgFile != "" {
		fmt.Fprintf(w, "Loading configuration from: %s\n", cfgFile)
	}
	fmt.Fprintln(w, "✓ Configuration loaded")

	slog.Debug("limits configured",
		"rate_requests", cfg.Limits.Rate.Requests,
		"rate_window", cfg.Limits.Rate.Window,
		"max_turns", cfg.Sessions.MaxTurns,
		"session_ttl", cfg.Sessions.TTL,
	)
	if cfg.Security.Auth.Enabled {
		slog.Debug("api key authentication enabled", "keys", len(cfg.Security.Auth.Keys))
	}
}
