// Package health serves liveness and readiness endpoints.
//
// A Monitor runs a set of named checks in parallel on every readiness request
// and answers 503 when any of them fails. Liveness never runs checks.
// WithDetails attaches an application state snapshot to both responses:
//
//	monitor := health.NewMonitor(health.Checks{
//	    "loaded":  health.Closed(app.Loaded(), "no navigation completed"),
//	    "browser": socketConnected,
//	}, health.WithDetails(func(context.Context) any { return snapshot() }))
//
//	r.Get("/health/live", monitor.Live)
//	r.Get("/health/ready", monitor.Ready)
//
// Responses are plain text, the status followed by one line per failed
// check, unless the client asks for JSON with "Accept: application/json" or
// "?format=json":
//
//	{"details":{"fragment":"/blog/7"},"checks":{"browser":{"status":"unhealthy","error":"no client"}},"status":"unhealthy"}
package health
