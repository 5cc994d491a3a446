package filters

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/compass"
)

const defaultTracerName = "github.com/dmitrymomot/compass"

// TracingOption configures the tracing filter.
type TracingOption func(*TracingFilter)

// WithTracerProvider sets the provider. Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) TracingOption {
	return func(f *TracingFilter) {
		if tp != nil {
			f.provider = tp
		}
	}
}

// WithTracerName sets the instrumentation name.
func WithTracerName(name string) TracingOption {
	return func(f *TracingFilter) {
		if name != "" {
			f.name = name
		}
	}
}

// TracingFilter opens a span on executing and ends it on executed or on
// exception. The span is current on the dispatch context, so spans started
// by the action or later filters become its children.
type TracingFilter struct {
	provider trace.TracerProvider
	tracer   trace.Tracer
	name     string
	open     atomic.Int64
}

type spanKey struct{ f *TracingFilter }

// dispatchSpan is the span of one dispatch.
type dispatchSpan struct {
	span  trace.Span
	ended bool
}

// NewTracing creates a tracing filter.
//
// Configure the global provider before creating the filter, or pass one:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	filters.NewTracing(filters.WithTracerProvider(tp))
func NewTracing(opts ...TracingOption) *TracingFilter {
	f := &TracingFilter{name: defaultTracerName}
	for _, opt := range opts {
		opt(f)
	}
	if f.provider == nil {
		f.provider = otel.GetTracerProvider()
	}
	f.tracer = f.provider.Tracer(f.name)
	return f
}

func (f *TracingFilter) OnActionExecuting(ctx context.Context, e *compass.Event) error {
	f.start(ctx, e)
	return nil
}

func (f *TracingFilter) OnActionExecuted(_ context.Context, e *compass.Event) error {
	if ds, ok := lookup[*dispatchSpan](e.Context, spanKey{f}); ok && !ds.ended {
		ds.span.SetStatus(codes.Ok, "")
		f.end(ds)
	}
	return nil
}

// OnException records the error on the dispatch span. When the span is
// missing or already ended, as for failures before this filter's executing
// hook or after its executed hook, a span is opened for the exception.
func (f *TracingFilter) OnException(ctx context.Context, e *compass.Event) error {
	ds, ok := lookup[*dispatchSpan](e.Context, spanKey{f})
	if !ok || ds.ended {
		ds = f.start(ctx, e)
	}
	ds.span.SetAttributes(attribute.String("compass.stage", e.Stage.String()))
	if e.Err != nil {
		ds.span.RecordError(e.Err)
		ds.span.SetStatus(codes.Error, e.Err.Error())
	}
	f.end(ds)
	return nil
}

// InFlight returns the number of spans still open.
func (f *TracingFilter) InFlight() int {
	return int(f.open.Load())
}

// start opens a span under ctx and makes it current on the dispatch context.
func (f *TracingFilter) start(ctx context.Context, e *compass.Event) *dispatchSpan {
	req := e.Context.Request
	ctx, span := f.tracer.Start(ctx, "compass "+req.Route(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("compass.dispatch_id", e.Context.ID.String()),
			attribute.String("compass.route", req.Route()),
			attribute.String("compass.fragment", req.Fragment()),
			attribute.String("compass.controller", req.Controller()),
			attribute.String("compass.action", req.Action()),
		),
	)
	f.open.Add(1)

	ds := &dispatchSpan{span: span}
	e.Context.SetContext(context.WithValue(ctx, spanKey{f}, ds))
	return ds
}

func (f *TracingFilter) end(ds *dispatchSpan) {
	ds.span.End()
	ds.ended = true
	f.open.Add(-1)
}
