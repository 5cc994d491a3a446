package compass

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/compass/internal"
	"github.com/dmitrymomot/compass/pkg/history"
	"github.com/dmitrymomot/compass/pkg/logger"
	"github.com/dmitrymomot/compass/pkg/routepattern"
)

// Type aliases - public API
type (
	// App orchestrates routing, filters and the dispatch lifecycle.
	App = internal.App

	// Option configures the application.
	Option = internal.Option

	// Controller is a named table of actions.
	Controller = internal.Controller

	// Actions maps action names to their handlers.
	Actions = internal.Actions

	// ActionFunc handles one action of a controller.
	ActionFunc = internal.ActionFunc

	// ControllerFactory returns the controller for one navigation.
	ControllerFactory = internal.ControllerFactory

	// Request carries the route values of one navigation.
	Request = internal.Request

	// Response exposes navigation control to filters and actions.
	Response = internal.Response

	// FilterContext pairs the request and response of one dispatch.
	FilterContext = internal.FilterContext

	// ApplicationFilter observes the application lifecycle.
	ApplicationFilter = internal.ApplicationFilter

	// ActionFilter observes every dispatch it is scoped to.
	ActionFilter = internal.ActionFilter

	// ApplicationFilterFuncs adapts optional functions to ApplicationFilter.
	ApplicationFilterFuncs = internal.ApplicationFilterFuncs

	// ActionFilterFuncs adapts optional functions to ActionFilter.
	ActionFilterFuncs = internal.ActionFilterFuncs

	// Event is delivered to filters and bus subscribers.
	Event = internal.Event

	// Stage identifies a step of the dispatch pipeline.
	Stage = internal.Stage

	// MissingActionError reports a route whose action is not defined.
	MissingActionError = internal.MissingActionError

	// PanicError wraps a value recovered inside the dispatch pipeline.
	PanicError = internal.PanicError

	// ContextExtractor extracts a slog attribute from context.
	// Used with WithLogger to add dispatch-scoped values to logs.
	ContextExtractor = logger.ContextExtractor

	// Matcher is a compiled route template.
	Matcher = routepattern.Matcher
)

// Lifecycle topics for App.Subscribe.
const (
	TopicApplicationStart  = internal.TopicApplicationStart
	TopicApplicationRun    = internal.TopicApplicationRun
	TopicApplicationLoaded = internal.TopicApplicationLoaded
	TopicActionExecuting   = internal.TopicActionExecuting
	TopicActionExecuted    = internal.TopicActionExecuted
	TopicActionException   = internal.TopicActionException
)

// Pipeline stages reported on exception events.
const (
	StageNone      = internal.StageNone
	StageExecuting = internal.StageExecuting
	StageAction    = internal.StageAction
	StageExecuted  = internal.StageExecuted
	StageLoaded    = internal.StageLoaded
)

// Errors for checking return values.
var (
	ErrMissingAction     = internal.ErrMissingAction
	ErrAlreadyRunning    = internal.ErrAlreadyRunning
	ErrNilController     = internal.ErrNilController
	ErrMalformedTemplate = routepattern.ErrMalformedTemplate
)

// Constructors

// New creates an application with the given options.
//
// Example:
//
//	app := compass.New(
//	    compass.WithHistory(history.NewMemory()),
//	    compass.WithRoute("/blog/:action[/:id]", blog),
//	)
//
//	err := app.Run(ctx)
func New(opts ...Option) *App {
	return internal.New(opts...)
}

// ControllerFunc returns a factory for a stateless controller.
func ControllerFunc(name string, actions Actions) ControllerFactory {
	return internal.ControllerFunc(name, actions)
}

// Compile converts a route template into a Matcher.
func Compile(template string) (*Matcher, error) {
	return routepattern.Compile(template)
}

// App options

// WithHistory sets the history backend. Defaults to an in-memory stack.
func WithHistory(b history.Backend) Option {
	return internal.WithHistory(b)
}

// WithLogger configures structured JSON logging with a component attribute.
//
// Example:
//
//	compass.New(
//	    compass.WithLogger("web", compass.DispatchIDExtractor()),
//	)
func WithLogger(component string, extractors ...ContextExtractor) Option {
	return internal.WithLogger(component, extractors...)
}

// WithCustomLogger sets a fully custom logger.
func WithCustomLogger(l *slog.Logger) Option {
	return internal.WithCustomLogger(l)
}

// WithContext sets the base context for dispatches triggered by history
// notifications.
func WithContext(ctx context.Context) Option {
	return internal.WithContext(ctx)
}

// WithRoute maps a route template to a controller factory.
// Invalid templates make New panic.
func WithRoute(template string, factory ControllerFactory) Option {
	return internal.WithRoute(template, factory)
}

// WithApplicationFilter registers an application filter.
func WithApplicationFilter(f ApplicationFilter, order int) Option {
	return internal.WithApplicationFilter(f, order)
}

// WithActionFilter registers an action filter, optionally scoped to route.
func WithActionFilter(f ActionFilter, route string, order int) Option {
	return internal.WithActionFilter(f, route, order)
}

// WithExceptionLogging logs every action exception, not only unhandled ones.
func WithExceptionLogging(enabled bool) Option {
	return internal.WithExceptionLogging(enabled)
}

// Logging

// DispatchIDExtractor adds the dispatch id to records logged with a
// dispatch context.
func DispatchIDExtractor() ContextExtractor {
	return internal.DispatchIDExtractor()
}

// RouteExtractor adds the active route template to records logged with a
// dispatch context.
func RouteExtractor() ContextExtractor {
	return internal.RouteExtractor()
}

// FilterContextFrom returns the FilterContext of the dispatch running with ctx.
func FilterContextFrom(ctx context.Context) (*FilterContext, bool) {
	return internal.FilterContextFrom(ctx)
}
