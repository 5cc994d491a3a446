package internal

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/compass/pkg/logger"
)

type filterContextKey struct{}

// withFilterContext stores fc in ctx for the duration of a dispatch.
func withFilterContext(ctx context.Context, fc *FilterContext) context.Context {
	return context.WithValue(ctx, filterContextKey{}, fc)
}

// FilterContextFrom returns the dispatch's FilterContext, if any.
func FilterContextFrom(ctx context.Context) (*FilterContext, bool) {
	fc, ok := ctx.Value(filterContextKey{}).(*FilterContext)
	return fc, ok && fc != nil
}

// DispatchIDExtractor adds the dispatch id to records logged with a
// dispatch context.
//
// Example:
//
//	compass.New(
//	    compass.WithLogger("web", compass.DispatchIDExtractor()),
//	)
func DispatchIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		fc, ok := FilterContextFrom(ctx)
		if !ok {
			return slog.Attr{}, false
		}
		return slog.String("dispatch_id", fc.ID.String()), true
	}
}

// RouteExtractor adds the active route template to records logged with a
// dispatch context.
func RouteExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		fc, ok := FilterContextFrom(ctx)
		if !ok {
			return slog.Attr{}, false
		}
		return slog.String("route", fc.Request.Route()), true
	}
}
