package logger

import (
	"context"
	"log/slog"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// SentryConfig holds Sentry integration settings.
type SentryConfig struct {
	DSN         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
	// MinLevel is the lowest level forwarded as a Sentry log entry.
	// Errors always create Sentry events.
	MinLevel slog.Level `yaml:"-"`
}

// NewWithSentry creates a logger that writes through cfg and forwards
// records to Sentry. An empty DSN, or a failed SDK init, yields a plain
// logger; the init failure is reported through that logger.
func NewWithSentry(cfg Config, sc SentryConfig, extractors ...ContextExtractor) *slog.Logger {
	base := baseHandler(cfg)
	if sc.DSN == "" {
		return slog.New(WithExtractors(base, extractors...))
	}

	env := sc.Environment
	if env == "" {
		env = "production"
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         sc.DSN,
		Environment: env,
		EnableLogs:  true,
	}); err != nil {
		log := slog.New(WithExtractors(base, extractors...))
		log.Error("failed to initialize sentry", slog.Any("error", err))
		return log
	}

	logLevels := []slog.Level{slog.LevelWarn, slog.LevelError}
	if sc.MinLevel >= slog.LevelError {
		logLevels = []slog.Level{slog.LevelError}
	}

	sentryHandler := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   logLevels,
	}.NewSentryHandler(context.Background())

	return slog.New(WithExtractors(fanout{base, sentryHandler}, extractors...))
}
