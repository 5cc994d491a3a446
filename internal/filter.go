package internal

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/dmitrymomot/compass/pkg/routepattern"
)

// ApplicationFilter observes the application lifecycle.
type ApplicationFilter interface {
	OnApplicationStart(ctx context.Context, e *Event) error
	OnApplicationRun(ctx context.Context, e *Event) error
	OnApplicationLoaded(ctx context.Context, e *Event) error
}

// ActionFilter observes every dispatch it is scoped to.
type ActionFilter interface {
	OnActionExecuting(ctx context.Context, e *Event) error
	OnActionExecuted(ctx context.Context, e *Event) error
	OnException(ctx context.Context, e *Event) error
}

// ApplicationFilterFuncs adapts optional functions to ApplicationFilter.
type ApplicationFilterFuncs struct {
	Start  func(ctx context.Context, e *Event) error
	Run    func(ctx context.Context, e *Event) error
	Loaded func(ctx context.Context, e *Event) error
}

func (f ApplicationFilterFuncs) OnApplicationStart(ctx context.Context, e *Event) error {
	return call(f.Start, ctx, e)
}

func (f ApplicationFilterFuncs) OnApplicationRun(ctx context.Context, e *Event) error {
	return call(f.Run, ctx, e)
}

func (f ApplicationFilterFuncs) OnApplicationLoaded(ctx context.Context, e *Event) error {
	return call(f.Loaded, ctx, e)
}

// ActionFilterFuncs adapts optional functions to ActionFilter.
// Without an Exception function the filter does not count as handling
// exceptions.
type ActionFilterFuncs struct {
	Executing func(ctx context.Context, e *Event) error
	Executed  func(ctx context.Context, e *Event) error
	Exception func(ctx context.Context, e *Event) error
}

func (f ActionFilterFuncs) OnActionExecuting(ctx context.Context, e *Event) error {
	return call(f.Executing, ctx, e)
}

func (f ActionFilterFuncs) OnActionExecuted(ctx context.Context, e *Event) error {
	return call(f.Executed, ctx, e)
}

func (f ActionFilterFuncs) OnException(ctx context.Context, e *Event) error {
	return call(f.Exception, ctx, e)
}

// HandlesExceptions reports whether Exception is set.
func (f ActionFilterFuncs) HandlesExceptions() bool {
	return f.Exception != nil
}

func call(fn func(context.Context, *Event) error, ctx context.Context, e *Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, e)
}

// handlesExceptions reports whether f counts as exception-capable.
// Filters without a HandlesExceptions method always do.
func handlesExceptions(f ActionFilter) bool {
	if h, ok := f.(interface{ HandlesExceptions() bool }); ok {
		return h.HandlesExceptions()
	}
	return true
}

type applicationFilterItem struct {
	filter ApplicationFilter
	order  int
}

type actionFilterItem struct {
	filter ActionFilter
	route  string
	order  int
}

// appliesTo reports whether the item is in scope for the active route.
func (it actionFilterItem) appliesTo(template string, m *routepattern.Matcher) bool {
	scope := strings.TrimSpace(it.route)
	if scope == "" || scope == template {
		return true
	}
	return m != nil && m.MatchString(scope)
}

// filterRegistry holds both filter collections. Collections are sorted on
// demand; additions after the first sort keep the collection sorted.
type filterRegistry struct {
	app    []applicationFilterItem
	action []actionFilterItem
	mu     sync.RWMutex
	sorted bool
}

func (r *filterRegistry) addApplication(f ApplicationFilter, order int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.app = append(r.app, applicationFilterItem{filter: f, order: order})
	if r.sorted {
		sortApplication(r.app)
	}
}

func (r *filterRegistry) addAction(f ActionFilter, route string, order int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.action = append(r.action, actionFilterItem{filter: f, route: route, order: order})
	if r.sorted {
		sortAction(r.action)
	}
}

func (r *filterRegistry) sort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	sortApplication(r.app)
	sortAction(r.action)
	r.sorted = true
}

func (r *filterRegistry) applicationFilters() []ApplicationFilter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ApplicationFilter, len(r.app))
	for i, it := range r.app {
		out[i] = it.filter
	}
	return out
}

// actionFilters returns the filters in scope for the active route, in order.
func (r *filterRegistry) actionFilters(template string, m *routepattern.Matcher) []ActionFilter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []ActionFilter
	for _, it := range r.action {
		if it.appliesTo(template, m) {
			out = append(out, it.filter)
		}
	}
	return out
}

func sortApplication(items []applicationFilterItem) {
	slices.SortStableFunc(items, func(a, b applicationFilterItem) int {
		return cmp.Compare(a.order, b.order)
	})
}

func sortAction(items []actionFilterItem) {
	slices.SortStableFunc(items, func(a, b actionFilterItem) int {
		return cmp.Compare(a.order, b.order)
	})
}
