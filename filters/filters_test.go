package filters_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/dmitrymomot/compass"
	"github.com/dmitrymomot/compass/filters"
	"github.com/dmitrymomot/compass/pkg/history"
)

var errAction = errors.New("action failed")

// newApp maps /ok and /fail and starts at token.
func newApp(t *testing.T, token string, opts ...compass.Option) (*compass.App, *history.Memory) {
	t.Helper()

	mem := history.NewMemory(history.WithInitialToken(token))
	base := []compass.Option{
		compass.WithHistory(mem),
		compass.WithRoute("/ok/:id", compass.ControllerFunc("ok", compass.Actions{
			"index": func(context.Context, *compass.Request, *compass.Response) error { return nil },
		})),
		compass.WithRoute("/fail", compass.ControllerFunc("fail", compass.Actions{
			"index": func(context.Context, *compass.Request, *compass.Response) error { return errAction },
		})),
	}
	app := compass.New(append(base, opts...)...)
	require.NoError(t, app.Run(context.Background()))
	return app, mem
}

func TestLogging(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	f := filters.Logging(log)

	_, mem := newApp(t, "/ok/1",
		compass.WithApplicationFilter(f, 0),
		compass.WithActionFilter(f, "", 0),
	)
	mem.SetToken("/fail")

	out := buf.String()
	for _, msg := range []string{
		"application starting",
		"action executing",
		"action executed",
		"application loaded",
		"application running",
		"action failed",
	} {
		assert.Contains(t, out, `"msg":"`+msg+`"`)
	}
	assert.Contains(t, out, `"route":"/ok/:id"`)
	assert.Contains(t, out, `"stage":"action"`)
	assert.Contains(t, out, `"error":"action failed"`)
	assert.Contains(t, out, `"duration"`)
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := filters.NewMetrics(filters.WithRegistry(reg), filters.WithNamespace("test"))

	_, mem := newApp(t, "/ok/1", compass.WithActionFilter(m, "", 0))
	mem.SetToken("/ok/2")
	mem.SetToken("/fail")

	expected := `
# HELP test_navigations_total Dispatched navigations by route and outcome.
# TYPE test_navigations_total counter
test_navigations_total{route="/fail",status="error"} 1
test_navigations_total{route="/ok/:id",status="success"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "test_navigations_total"))

	expected = `
# HELP test_exceptions_total Action exceptions by route and pipeline stage.
# TYPE test_exceptions_total counter
test_exceptions_total{route="/fail",stage="action"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "test_exceptions_total"))

	count, err := testutil.GatherAndCount(reg, "test_action_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_DuplicateRegistrationPanics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	filters.NewMetrics(filters.WithRegistry(reg))
	assert.Panics(t, func() { filters.NewMetrics(filters.WithRegistry(reg)) })
}

func TestTracing(t *testing.T) {
	t.Parallel()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	tr := filters.NewTracing(filters.WithTracerProvider(tp), filters.WithTracerName("test"))

	_, mem := newApp(t, "/ok/7", compass.WithActionFilter(tr, "", 0))
	mem.SetToken("/fail")

	spans := sr.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "compass /ok/:id", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)

	assert.Equal(t, "compass /fail", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, errAction.Error(), spans[1].Status().Description)

	attrs := map[string]string{}
	for _, kv := range spans[1].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "action", attrs["compass.stage"])
	assert.Equal(t, "fail", attrs["compass.controller"])
	assert.Equal(t, "index", attrs["compass.action"])

	assert.Zero(t, tr.InFlight())
}

func TestTracing_ExceptionBeforeSpan(t *testing.T) {
	t.Parallel()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	tr := filters.NewTracing(filters.WithTracerProvider(tp))

	errDenied := errors.New("denied")
	newApp(t, "/ok/1",
		compass.WithActionFilter(compass.ActionFilterFuncs{
			Executing: func(context.Context, *compass.Event) error { return errDenied },
		}, "", 0),
		compass.WithActionFilter(tr, "", 1),
	)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "denied", spans[0].Status().Description)
	assert.Zero(t, tr.InFlight())
}

func TestTracing_ActionSpansAreChildren(t *testing.T) {
	t.Parallel()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	tr := filters.NewTracing(filters.WithTracerProvider(tp))

	mem := history.NewMemory(history.WithInitialToken("/load"))
	app := compass.New(
		compass.WithHistory(mem),
		compass.WithRoute("/load", compass.ControllerFunc("load", compass.Actions{
			"index": func(ctx context.Context, _ *compass.Request, _ *compass.Response) error {
				_, span := tp.Tracer("app").Start(ctx, "fetch")
				span.End()
				return nil
			},
		})),
		compass.WithActionFilter(tr, "", 0),
	)
	require.NoError(t, app.Run(context.Background()))

	spans := sr.Ended()
	require.Len(t, spans, 2)

	child, parent := spans[0], spans[1]
	assert.Equal(t, "fetch", child.Name())
	assert.Equal(t, "compass /load", parent.Name())
	assert.Equal(t, parent.SpanContext().SpanID(), child.Parent().SpanID())
	assert.Equal(t, parent.SpanContext().TraceID(), child.SpanContext().TraceID())
}

func TestTracing_OrderedAheadOfFailingExceptionFilter(t *testing.T) {
	t.Parallel()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	tr := filters.NewTracing(filters.WithTracerProvider(tp))

	newApp(t, "/fail",
		compass.WithActionFilter(tr, "", 0),
		compass.WithActionFilter(compass.ActionFilterFuncs{
			Exception: func(context.Context, *compass.Event) error { return errors.New("reporter down") },
		}, "", 10),
	)

	require.Len(t, sr.Ended(), 1)
	assert.Zero(t, tr.InFlight())
}

func TestMetrics_ExecutedFailureCountedOnce(t *testing.T) {
	t.Parallel()

	errAudit := errors.New("audit failed")
	tests := []struct {
		name        string
		auditOrder  int
		wantSuccess float64
		wantError   float64
	}{
		{"failure after metrics", 10, 1, 0},
		{"failure before metrics", -10, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			reg := prometheus.NewRegistry()
			m := filters.NewMetrics(filters.WithRegistry(reg), filters.WithNamespace("test"))

			newApp(t, "/ok/1",
				compass.WithActionFilter(m, "", 0),
				compass.WithActionFilter(compass.ActionFilterFuncs{
					Executed: func(context.Context, *compass.Event) error { return errAudit },
				}, "", tt.auditOrder),
			)

			nav := metricFamily(t, reg, "test_navigations_total")
			assert.Equal(t, tt.wantSuccess, nav["success"])
			assert.Equal(t, tt.wantError, nav["error"])

			exc := metricFamily(t, reg, "test_exceptions_total")
			assert.Equal(t, float64(1), exc["executed"])
		})
	}
}

// metricFamily returns counter values of name keyed by their status or
// stage label.
func metricFamily(t *testing.T, reg *prometheus.Registry, name string) map[string]float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	out := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "status" || lp.GetName() == "stage" {
					out[lp.GetValue()] = m.GetCounter().GetValue()
				}
			}
		}
	}
	return out
}
