package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/compass/pkg/logger"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "compass",
		Short:         "Route template tooling and history server for compass apps",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: `  # Compile a template and test fragments against it
  compass match "/blog/:id[/edit]" /blog/42 /blog/42/edit

  # List the routes declared in a config file
  compass routes --config compass.yaml

  # Serve the configured app to a browser
  compass serve --config compass.yaml --addr :8080`,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (overrides config)")
	cmd.PersistentFlags().String("log-format", "", "log format: json or text (overrides config)")
	cmd.PersistentFlags().String("sentry-dsn", "", "Sentry DSN for error reporting (overrides config)")

	cmd.AddCommand(newMatchCmd(), newRoutesCmd(), newServeCmd())
	return cmd
}

// loadCommandConfig loads the config named by --config and applies flag
// overrides.
func loadCommandConfig(cmd *cobra.Command) (*Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if f, _ := cmd.Flags().GetString("log-format"); f != "" {
		cfg.Log.Format = f
	}
	if dsn, _ := cmd.Flags().GetString("sentry-dsn"); dsn != "" {
		cfg.Sentry.DSN = dsn
	}
	return cfg, cfg.Validate()
}

// newLogger builds the command logger. Sentry is enabled when a DSN is
// configured.
func newLogger(cmd *cobra.Command, cfg *Config, extractors ...logger.ContextExtractor) *slog.Logger {
	level, _ := logger.ParseLevel(cfg.Log.Level)
	lc := logger.Config{
		Output: cmd.ErrOrStderr(),
		Format: cfg.Log.Format,
		Level:  level,
	}
	return logger.NewWithSentry(lc, cfg.Sentry, extractors...)
}
