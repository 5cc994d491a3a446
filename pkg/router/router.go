package router

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/dmitrymomot/compass/pkg/event"
	"github.com/dmitrymomot/compass/pkg/history"
	"github.com/dmitrymomot/compass/pkg/logger"
	"github.com/dmitrymomot/compass/pkg/routepattern"
)

const topicExpired event.Topic = "route.expired"

// Handler is invoked for the first binding matching a location.
type Handler func(ctx context.Context, m Match) error

// Match describes a resolved location.
type Match struct {
	// Query holds the parsed query string, never nil.
	Query url.Values

	// Matcher is the compiled pattern of the binding that matched.
	Matcher *routepattern.Matcher

	// Template is the pattern source the binding was registered with.
	Template string

	// Fragment is the full resolved location including any query string.
	Fragment string

	// Path is the part of Fragment the pattern was matched against.
	Path string

	// Captures are the values captured by the pattern, in order.
	Captures routepattern.Captures
}

// Expired is delivered to OnExpired listeners before the current location
// is replaced.
type Expired struct {
	Previous string
	Current  string
}

type binding struct {
	matcher *routepattern.Matcher
	handler Handler
}

// job is one queued resolution. Notification jobs only dispatch when the
// location changed.
type job struct {
	ctx          context.Context
	notification bool
}

// Router dispatches history locations to registered handlers.
type Router struct {
	backend history.Backend
	logger  *slog.Logger
	ctx     context.Context
	expired event.Bus[Expired]

	mu       sync.Mutex
	bindings []binding
	current  string
	previous string
	queue    []job
	busy     bool
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger for dispatch failures that have no caller to
// report to.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithContext sets the context passed to handlers for dispatches triggered
// by backend notifications.
func WithContext(ctx context.Context) Option {
	return func(r *Router) {
		if ctx != nil {
			r.ctx = ctx
		}
	}
}

// New creates a router listening to backend and enables the backend.
func New(backend history.Backend, opts ...Option) *Router {
	r := &Router{
		backend: backend,
		logger:  logger.NewNope(),
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(r)
	}

	backend.Listen(r.onChange)
	backend.SetEnabled(true)
	return r
}

// Route compiles pattern and appends a binding for it.
func (r *Router) Route(pattern string, handler Handler) error {
	m, err := routepattern.Compile(pattern)
	if err != nil {
		return err
	}
	return r.RouteMatcher(m, handler)
}

// RouteMatcher appends a binding for an already compiled matcher.
func (r *Router) RouteMatcher(m *routepattern.Matcher, handler Handler) error {
	if m == nil {
		return ErrNilMatcher
	}
	if handler == nil {
		return ErrNilHandler
	}

	r.mu.Lock()
	r.bindings = append(r.bindings, binding{matcher: m, handler: handler})
	r.mu.Unlock()
	return nil
}

// CheckRoutes resolves the current location and invokes the first matching
// handler, returning its error. It dispatches even when the location has
// not changed. When called during a running dispatch it is queued and
// returns nil.
func (r *Router) CheckRoutes(ctx context.Context) error {
	return r.submit(job{ctx: ctx})
}

// Navigate sets the backend token. Dispatch happens through the backend's
// change notification.
func (r *Router) Navigate(fragment string) {
	r.backend.SetToken(fragment)
}

// Fragment returns the current location.
func (r *Router) Fragment() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Previous returns the location that was current before the last change.
func (r *Router) Previous() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.previous
}

// OnExpired subscribes fn to location changes. A listener error is logged
// and does not stop the dispatch.
func (r *Router) OnExpired(fn func(ctx context.Context, e Expired) error) func() {
	return r.expired.Subscribe(topicExpired, fn)
}

func (r *Router) onChange(history.Event) {
	if err := r.submit(job{ctx: r.ctx, notification: true}); err != nil {
		r.logger.ErrorContext(r.ctx, "router: dispatch failed",
			slog.String("fragment", r.Fragment()),
			slog.Any("error", err))
	}
}

// submit runs j immediately when idle, otherwise queues it for the running
// dispatch to pick up.
func (r *Router) submit(j job) error {
	r.mu.Lock()
	if r.busy {
		r.queue = append(r.queue, j)
		r.mu.Unlock()
		return nil
	}
	r.busy = true
	r.mu.Unlock()

	// A panicking handler must not leave the gate closed. Queued work is
	// dropped and the panic continues to the caller.
	defer func() {
		if p := recover(); p != nil {
			r.mu.Lock()
			r.busy = false
			r.queue = nil
			r.mu.Unlock()
			panic(p)
		}
	}()

	err := r.resolve(j)
	r.drain()
	return err
}

func (r *Router) drain() {
	for {
		r.mu.Lock()
		if len(r.queue) == 0 {
			r.busy = false
			r.mu.Unlock()
			return
		}
		j := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()

		if err := r.resolve(j); err != nil {
			r.logger.ErrorContext(j.ctx, "router: queued dispatch failed",
				slog.String("fragment", r.Fragment()),
				slog.Any("error", err))
		}
	}
}

func (r *Router) resolve(j job) error {
	fragment := r.location()

	if j.notification {
		r.mu.Lock()
		outgoing := r.current
		r.mu.Unlock()
		if fragment == outgoing {
			return nil
		}

		if err := r.publishExpired(j.ctx, Expired{Previous: outgoing, Current: fragment}); err != nil {
			r.logger.WarnContext(j.ctx, "router: expired listener failed",
				slog.String("previous", outgoing),
				slog.String("current", fragment),
				slog.Any("error", err))
		}
	}

	r.mu.Lock()
	if r.current != fragment {
		r.previous = r.current
	}
	r.current = fragment
	bindings := r.bindings
	r.mu.Unlock()

	path, query := splitQuery(fragment)
	for _, b := range bindings {
		caps, ok := b.matcher.Match(path)
		if !ok {
			continue
		}
		return b.handler(j.ctx, Match{
			Template: b.matcher.Template(),
			Fragment: fragment,
			Path:     path,
			Query:    query,
			Captures: caps,
			Matcher:  b.matcher,
		})
	}
	return nil
}

// publishExpired notifies OnExpired listeners. A listener panic is
// reported as an error like any other listener failure.
func (r *Router) publishExpired(ctx context.Context, e Expired) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrListenerPanic, p)
		}
	}()
	return r.expired.Publish(ctx, topicExpired, e)
}

// location returns the backend token, or the path when the token is blank
// and the path is not the root.
func (r *Router) location() string {
	token := r.backend.Token()
	if strings.TrimSpace(token) == "" {
		if p := r.backend.Path(); len(p) > 1 {
			return p
		}
	}
	return token
}

func splitQuery(fragment string) (string, url.Values) {
	path, raw, found := strings.Cut(fragment, "?")
	if !found {
		return path, url.Values{}
	}
	q, err := url.ParseQuery(raw)
	if err != nil && q == nil {
		q = url.Values{}
	}
	return path, q
}
