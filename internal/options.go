package internal

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/compass/pkg/history"
	"github.com/dmitrymomot/compass/pkg/logger"
)

// Option configures the application.
type Option func(*App)

// routeDecl is a route declared through options, mapped during New.
type routeDecl struct {
	factory  ControllerFactory
	template string
}

// WithHistory sets the history backend. Defaults to an in-memory stack.
func WithHistory(b history.Backend) Option {
	return func(a *App) {
		if b != nil {
			a.backend = b
		}
	}
}

// WithLogger configures structured JSON logging to stdout with a component
// attribute. Extractors enrich records logged with a dispatch context.
//
// Example:
//
//	compass.New(
//	    compass.WithLogger("web", compass.DispatchIDExtractor()),
//	)
func WithLogger(component string, extractors ...logger.ContextExtractor) Option {
	return func(a *App) {
		a.logger = logger.New(logger.Config{}, extractors...).With("component", component)
	}
}

// WithCustomLogger sets a fully custom logger.
//
// Example:
//
//	customLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
//	compass.New(
//	    compass.WithCustomLogger(customLogger),
//	)
func WithCustomLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithContext sets the base context for dispatches triggered by history
// notifications. Defaults to context.Background.
func WithContext(ctx context.Context) Option {
	return func(a *App) {
		if ctx != nil {
			a.baseCtx = ctx
		}
	}
}

// WithRoute maps a route template to a controller factory.
// Invalid templates make New panic.
func WithRoute(template string, factory ControllerFactory) Option {
	return func(a *App) {
		a.routeDecls = append(a.routeDecls, routeDecl{template: template, factory: factory})
	}
}

// WithApplicationFilter registers an application filter.
func WithApplicationFilter(f ApplicationFilter, order int) Option {
	return func(a *App) {
		a.filters.addApplication(f, order)
	}
}

// WithActionFilter registers an action filter, optionally scoped to route.
func WithActionFilter(f ActionFilter, route string, order int) Option {
	return func(a *App) {
		a.filters.addAction(f, route, order)
	}
}

// WithExceptionLogging logs every action exception at error level, not only
// those no filter handles.
func WithExceptionLogging(enabled bool) Option {
	return func(a *App) {
		a.logExceptions = enabled
	}
}
