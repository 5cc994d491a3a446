package filters

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/compass"
)

// LoggingFilter logs lifecycle events.
type LoggingFilter struct {
	logger *slog.Logger
}

// startedKey holds the executing time of a dispatch.
type startedKey struct{ f *LoggingFilter }

// Logging returns a filter that logs through l.
// Executing is logged at debug, executed and lifecycle events at info,
// exceptions at error.
func Logging(l *slog.Logger) *LoggingFilter {
	if l == nil {
		l = slog.Default()
	}
	return &LoggingFilter{logger: l}
}

func (f *LoggingFilter) OnApplicationStart(ctx context.Context, _ *compass.Event) error {
	f.logger.InfoContext(ctx, "application starting")
	return nil
}

func (f *LoggingFilter) OnApplicationRun(ctx context.Context, e *compass.Event) error {
	f.logger.InfoContext(ctx, "application running", slog.String("fragment", e.App.Router().Fragment()))
	return nil
}

func (f *LoggingFilter) OnApplicationLoaded(ctx context.Context, e *compass.Event) error {
	attrs := []any{}
	if e.Context != nil {
		attrs = append(attrs, slog.String("route", e.Context.Request.Route()))
	}
	f.logger.InfoContext(ctx, "application loaded", attrs...)
	return nil
}

func (f *LoggingFilter) OnActionExecuting(ctx context.Context, e *compass.Event) error {
	stash(e.Context, startedKey{f}, time.Now())
	f.logger.DebugContext(ctx, "action executing", dispatchAttrs(e)...)
	return nil
}

func (f *LoggingFilter) OnActionExecuted(ctx context.Context, e *compass.Event) error {
	attrs := dispatchAttrs(e)
	if start, ok := lookup[time.Time](e.Context, startedKey{f}); ok {
		attrs = append(attrs, slog.Duration("duration", time.Since(start)))
	}
	f.logger.InfoContext(ctx, "action executed", attrs...)
	return nil
}

func (f *LoggingFilter) OnException(ctx context.Context, e *compass.Event) error {
	attrs := dispatchAttrs(e)
	if start, ok := lookup[time.Time](e.Context, startedKey{f}); ok {
		attrs = append(attrs, slog.Duration("duration", time.Since(start)))
	}
	attrs = append(attrs,
		slog.String("stage", e.Stage.String()),
		slog.Any("error", e.Err))
	f.logger.ErrorContext(ctx, "action failed", attrs...)
	return nil
}

func dispatchAttrs(e *compass.Event) []any {
	req := e.Context.Request
	return []any{
		slog.String("dispatch_id", e.Context.ID.String()),
		slog.String("route", req.Route()),
		slog.String("fragment", req.Fragment()),
		slog.String("controller", req.Controller()),
		slog.String("action", req.Action()),
	}
}
