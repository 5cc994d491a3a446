package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/dmitrymomot/compass/pkg/event"
	"github.com/dmitrymomot/compass/pkg/history"
	"github.com/dmitrymomot/compass/pkg/logger"
	"github.com/dmitrymomot/compass/pkg/routepattern"
	"github.com/dmitrymomot/compass/pkg/router"
)

// panicStackSize is the maximum stack trace captured for a recovered panic.
const panicStackSize = 4096

// App orchestrates routing, filters and the dispatch lifecycle.
type App struct {
	backend      history.Backend
	router       *router.Router
	logger       *slog.Logger
	baseCtx      context.Context
	loaded       *event.Signal
	currentRoute *routepattern.Matcher
	bus          event.Bus[*Event]
	routeDecls   []routeDecl
	filters      filterRegistry
	mu           sync.Mutex

	isFirstLoad   bool
	running       bool
	logExceptions bool
}

// New creates an application with the given options.
// The history backend is enabled immediately; routes declared with
// WithRoute are mapped before New returns.
//
// Example:
//
//	app := compass.New(
//	    compass.WithHistory(history.NewMemory()),
//	    compass.WithRoute("/blog/:action[/:id]", blogController),
//	    compass.WithActionFilter(filters.Logging(log), "", 0),
//	)
//	if err := app.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
func New(opts ...Option) *App {
	a := &App{
		logger:      logger.NewNope(),
		baseCtx:     context.Background(),
		loaded:      event.NewSignal(),
		isFirstLoad: true,
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.backend == nil {
		a.backend = history.NewMemory()
	}
	a.router = router.New(a.backend,
		router.WithLogger(a.logger),
		router.WithContext(a.baseCtx),
	)

	for _, rs := range a.routeDecls {
		if err := a.MapRoute(rs.template, rs.factory); err != nil {
			panic(err)
		}
	}
	return a
}

// MapRoute binds a route template to a controller factory.
func (a *App) MapRoute(template string, factory ControllerFactory) error {
	if factory == nil {
		return fmt.Errorf("%w: route %s", ErrNilController, template)
	}
	return a.router.Route(template, func(ctx context.Context, m router.Match) error {
		return a.processRoute(ctx, factory, m)
	})
}

// AddApplicationFilter registers an application filter.
// Filters run in ascending order; equal orders keep registration order.
func (a *App) AddApplicationFilter(f ApplicationFilter, order int) {
	a.filters.addApplication(f, order)
}

// AddActionFilter registers an action filter scoped to route.
// An empty route applies the filter to every dispatch.
func (a *App) AddActionFilter(f ActionFilter, route string, order int) {
	a.filters.addAction(f, route, order)
}

// Subscribe registers h for a lifecycle topic. Subscriptions made before Run
// are notified ahead of the filters.
func (a *App) Subscribe(topic event.Topic, h event.Handler[*Event]) (cancel func()) {
	return a.bus.Subscribe(topic, h)
}

// Run sorts the filters, emits APPLICATION_START, dispatches the current
// location and emits APPLICATION_RUN. It returns the first error raised by
// a start or run filter, or a dispatch setup error such as a missing action.
// Run may be called only once.
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return ErrAlreadyRunning
	}
	a.running = true
	a.mu.Unlock()

	a.bus.Once(TopicApplicationStart, a.onApplicationStart)
	a.bus.Once(TopicApplicationRun, a.onApplicationRun)
	a.bus.Subscribe(TopicApplicationLoaded, a.onApplicationLoaded)
	a.bus.Subscribe(TopicActionException, a.onActionException)
	a.bus.Subscribe(TopicActionExecuting, a.onActionExecuting)
	a.bus.Subscribe(TopicActionExecuted, a.onActionExecuted)

	a.filters.sort()

	if err := a.publish(ctx, &Event{Type: TopicApplicationStart}); err != nil {
		return fmt.Errorf("compass: application start: %w", err)
	}

	// Start filters may register more filters.
	a.filters.sort()

	if err := a.router.CheckRoutes(ctx); err != nil {
		return err
	}

	if err := a.publish(ctx, &Event{Type: TopicApplicationRun}); err != nil {
		return fmt.Errorf("compass: application run: %w", err)
	}

	a.logger.InfoContext(ctx, "application running", slog.String("fragment", a.router.Fragment()))
	return nil
}

// Navigate moves to fragment through the history backend.
func (a *App) Navigate(fragment string) {
	a.router.Navigate(fragment)
}

// Router returns the underlying router.
func (a *App) Router() *router.Router {
	return a.router
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Loaded is closed after the first navigation completes its pipeline.
func (a *App) Loaded() <-chan struct{} {
	return a.loaded.Done()
}

// IsFirstLoad reports whether no navigation has completed yet.
func (a *App) IsFirstLoad() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isFirstLoad
}

// CurrentRoute returns the matcher of the route dispatched last.
func (a *App) CurrentRoute() *routepattern.Matcher {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentRoute
}

func (a *App) processRoute(ctx context.Context, factory ControllerFactory, m router.Match) error {
	a.mu.Lock()
	a.currentRoute = m.Matcher
	firstLoad := a.isFirstLoad
	a.mu.Unlock()

	ctrl, err := newController(factory)
	if err != nil {
		return fmt.Errorf("compass: route %s: %w", m.Template, err)
	}

	req := &Request{
		params:      buildParams(ctrl.Name(), m.Matcher.Names(), m.Captures),
		query:       m.Query,
		matcher:     m.Matcher,
		url:         locationURL(a.backend.Path(), a.backend.Token()),
		fragment:    m.Fragment,
		route:       m.Template,
		isFirstLoad: firstLoad,
	}

	action := ctrl.Actions()[req.Action()]
	if action == nil {
		return &MissingActionError{Controller: ctrl.Name(), Action: req.Action(), Route: m.Template}
	}

	fc := newFilterContext(ctx, req, a.router)
	ctx = fc.Context()

	a.logger.DebugContext(ctx, "dispatch started",
		slog.String("route", req.Route()),
		slog.String("fragment", req.Fragment()),
		slog.String("controller", req.Controller()),
		slog.String("action", req.Action()))

	if stage, err := a.pipeline(fc, action); err != nil {
		a.raise(fc, stage, err)
		return nil
	}

	a.logger.DebugContext(ctx, "dispatch completed", slog.String("route", req.Route()))
	return nil
}

// pipeline runs the four dispatch stages in order and reports the stage
// that failed. Each stage runs with the dispatch context current at its
// start. Panics are recovered into PanicError.
func (a *App) pipeline(fc *FilterContext, action ActionFunc) (stage Stage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(r)
		}
	}()

	stage = StageExecuting
	if err = a.publish(fc.Context(), &Event{Type: TopicActionExecuting, Context: fc}); err != nil {
		return stage, err
	}

	stage = StageAction
	if err = action(fc.Context(), fc.Request, fc.Response); err != nil {
		return stage, err
	}

	stage = StageExecuted
	if err = a.publish(fc.Context(), &Event{Type: TopicActionExecuted, Context: fc}); err != nil {
		return stage, err
	}

	stage = StageLoaded
	if err = a.publish(fc.Context(), &Event{Type: TopicApplicationLoaded, Context: fc}); err != nil {
		return stage, err
	}
	return StageNone, nil
}

// raise delivers err as the single exception event of the dispatch.
// Exception filters that fail or panic are logged; nothing escapes to the
// router.
func (a *App) raise(fc *FilterContext, stage Stage, err error) {
	ctx := fc.Context()
	perr := func() (perr error) {
		defer func() {
			if r := recover(); r != nil {
				perr = newPanicError(r)
			}
		}()
		return a.publish(ctx, &Event{Type: TopicActionException, Context: fc, Err: err, Stage: stage})
	}()
	if perr != nil {
		a.logger.ErrorContext(ctx, "exception filter failed",
			slog.String("stage", stage.String()),
			slog.Any("error", errors.Join(err, perr)))
	}
}

// newController calls factory, turning a nil controller or a panic into an
// error.
func newController(factory ControllerFactory) (ctrl Controller, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(r)
		}
	}()
	if ctrl = factory(); ctrl == nil {
		return nil, ErrNilController
	}
	return ctrl, nil
}

func newPanicError(v any) *PanicError {
	stack := make([]byte, panicStackSize)
	stack = stack[:runtime.Stack(stack, false)]
	return &PanicError{Value: v, Stack: stack}
}

func (a *App) publish(ctx context.Context, e *Event) error {
	e.App = a
	return a.bus.Publish(ctx, e.Type, e)
}

func (a *App) onApplicationStart(ctx context.Context, e *Event) error {
	for _, f := range a.filters.applicationFilters() {
		if err := f.OnApplicationStart(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) onApplicationRun(ctx context.Context, e *Event) error {
	for _, f := range a.filters.applicationFilters() {
		if err := f.OnApplicationRun(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// onApplicationLoaded notifies application filters until one navigation
// gets through them; later navigations skip them.
func (a *App) onApplicationLoaded(ctx context.Context, e *Event) error {
	if !a.IsFirstLoad() {
		return nil
	}
	for _, f := range a.filters.applicationFilters() {
		if err := f.OnApplicationLoaded(dispatchContext(ctx, e), e); err != nil {
			return err
		}
	}

	a.mu.Lock()
	a.isFirstLoad = false
	a.mu.Unlock()
	a.loaded.Resolve(nil)
	return nil
}

func (a *App) onActionExecuting(ctx context.Context, e *Event) error {
	for _, f := range a.scopedFilters(e) {
		if err := f.OnActionExecuting(dispatchContext(ctx, e), e); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) onActionExecuted(ctx context.Context, e *Event) error {
	for _, f := range a.scopedFilters(e) {
		if err := f.OnActionExecuted(dispatchContext(ctx, e), e); err != nil {
			return err
		}
	}
	return nil
}

// onActionException delivers e to the exception-capable filters in scope.
// Like every stage, the first filter error stops delivery, so filters after
// it never see the exception. Filters that keep per-dispatch state should
// keep it on the dispatch context, and should be ordered ahead of exception
// filters that can fail.
func (a *App) onActionException(ctx context.Context, e *Event) error {
	handled := false
	for _, f := range a.scopedFilters(e) {
		if !handlesExceptions(f) {
			continue
		}
		handled = true
		if err := f.OnException(dispatchContext(ctx, e), e); err != nil {
			return err
		}
	}

	if !handled || a.logExceptions {
		attrs := []any{
			slog.String("stage", e.Stage.String()),
			slog.Bool("handled", handled),
			slog.Any("error", e.Err),
		}
		if e.Context != nil {
			attrs = append(attrs, slog.String("route", e.Context.Request.Route()))
		}
		var perr *PanicError
		if errors.As(e.Err, &perr) {
			attrs = append(attrs, slog.String("stack", string(perr.Stack)))
		}
		a.logger.ErrorContext(dispatchContext(ctx, e), "action exception", attrs...)
	}
	return nil
}

func (a *App) scopedFilters(e *Event) []ActionFilter {
	if e.Context == nil {
		return a.filters.actionFilters("", nil)
	}
	req := e.Context.Request
	return a.filters.actionFilters(req.route, req.matcher)
}

// dispatchContext returns the current dispatch context of e, or ctx for
// events that carry none.
func dispatchContext(ctx context.Context, e *Event) context.Context {
	if e.Context == nil {
		return ctx
	}
	return e.Context.Context()
}
