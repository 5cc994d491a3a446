// Package logger builds the slog loggers used across compass.
//
// It adds two things on top of log/slog: context extractors that copy
// request-scoped values (the dispatch id, the active route) into every
// record logged with that context, and optional fan-out to Sentry.
//
// # Basic Usage
//
//	log := logger.New(logger.Config{Level: slog.LevelDebug}, dispatchIDExtractor)
//	log.InfoContext(ctx, "navigation completed", slog.String("route", "/blog/:id"))
//
// A ContextExtractor returns the attribute to add and whether it applies:
//
//	func dispatchIDExtractor(ctx context.Context) (slog.Attr, bool) {
//	    if id, ok := ctx.Value(dispatchKey{}).(string); ok {
//	        return slog.String("dispatch_id", id), true
//	    }
//	    return slog.Attr{}, false
//	}
//
// Extractors run on every record so values added to the context later are
// always picked up.
//
// # Sentry
//
// NewWithSentry writes to the configured output and forwards warnings and
// errors to Sentry. An empty DSN disables Sentry without changing behavior
// otherwise, so the same wiring works locally and in production.
//
// # Discarding
//
// NewNope returns a logger that drops everything. Components use it as
// their default so a nil logger never needs checking.
package logger
