package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/compass/pkg/logger"
)

const (
	defaultTimeout = 5 * time.Second

	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc reports nil when the checked dependency is ready.
type CheckFunc func(ctx context.Context) error

// Checks maps check names to their functions.
type Checks map[string]CheckFunc

// Response is the body of a liveness or readiness check.
// Details is whatever the WithDetails function reported for the request.
type Response struct {
	Details any              `json:"details,omitempty"`
	Checks  map[string]Check `json:"checks,omitempty"`
	Status  string           `json:"status"`
}

// Check is the outcome of one named check.
type Check struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type config struct {
	logger  *slog.Logger
	details func(context.Context) any
	timeout time.Duration
}

// Option configures readiness checks.
type Option func(*config)

// WithTimeout bounds the whole check run.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger failed checks are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDetails attaches a snapshot of application state to every health
// response, so a failing check can be read next to the state behind it.
func WithDetails(fn func(ctx context.Context) any) Option {
	return func(c *config) {
		c.details = fn
	}
}

func newConfig(opts ...Option) *config {
	cfg := &config{timeout: defaultTimeout, logger: logger.NewNope()}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Closed returns a check that passes once ch is closed.
// An empty reason reports ErrNotReady.
func Closed(ch <-chan struct{}, reason string) CheckFunc {
	return func(context.Context) error {
		select {
		case <-ch:
			return nil
		default:
			if reason == "" {
				return ErrNotReady
			}
			return fmt.Errorf("%w: %s", ErrNotReady, reason)
		}
	}
}

// Run executes checks in parallel and aggregates their outcome.
// The returned error wraps ErrCheckFailed when any check failed.
func Run(ctx context.Context, checks Checks, opts ...Option) (*Response, error) {
	cfg := newConfig(opts...)
	resp := runChecks(ctx, checks, cfg)
	if resp.Status == StatusUnhealthy {
		var errs []error
		for name, c := range resp.Checks {
			if c.Status == StatusUnhealthy {
				errs = append(errs, fmt.Errorf("%s: %s", name, c.Error))
			}
		}
		return resp, fmt.Errorf("%w: %w", ErrCheckFailed, errors.Join(errs...))
	}
	return resp, nil
}

func runChecks(ctx context.Context, checks Checks, cfg *config) *Response {
	if len(checks) == 0 {
		return &Response{Status: StatusHealthy}
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	var (
		g       errgroup.Group
		mu      sync.Mutex
		results = make(map[string]Check, len(checks))
		failed  bool
	)

	for name, check := range checks {
		g.Go(func() error {
			result := Check{Status: StatusHealthy}
			if err := check(ctx); err != nil {
				result = Check{Status: StatusUnhealthy, Error: err.Error()}
				cfg.logger.WarnContext(ctx, "health check failed",
					slog.String("check", name),
					slog.String("error", err.Error()))
			}

			mu.Lock()
			results[name] = result
			if result.Status == StatusUnhealthy {
				failed = true
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	status := StatusHealthy
	if failed {
		status = StatusUnhealthy
	}
	return &Response{Status: status, Checks: results}
}
