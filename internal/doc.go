// Package internal provides the core types and implementation for compass.
//
// This package is internal and should not be used directly. Import
// "github.com/dmitrymomot/compass" instead, which re-exports the public API.
//
// # Core Types
//
//   - App: owns the router, the filter registry and the lifecycle event bus
//   - Controller: a named table of actions, built fresh for every navigation
//   - Request / Response: per-navigation route values and navigation control
//   - FilterContext: the request/response pair shared by one dispatch
//   - ApplicationFilter / ActionFilter: lifecycle observers
//   - Event: the value delivered to filters and subscribers
//
// # Dispatch
//
// Every navigation runs the same pipeline in strict sequence:
//
//	ACTION_EXECUTING -> action -> ACTION_EXECUTED -> APPLICATION_LOADED
//
// An error returned (or a panic raised) by any stage stops the pipeline and
// is delivered once as ACTION_EXCEPTION, together with the FilterContext and
// the Stage that failed. A missing action is different: it is returned to
// the caller before any event fires.
//
// # Filters
//
// Filters are sorted by ascending order when the App starts. Equal orders
// keep their registration order. Action filters may carry a route scope:
//
//	app.AddActionFilter(auditFilter, "/admin/*", 10)
//
// A scoped filter runs only when the scope equals the active route template
// or is matched by the active route's pattern.
//
// # Lifecycle
//
// Run emits APPLICATION_START, resolves the current location, then emits
// APPLICATION_RUN. Application filters receive OnApplicationLoaded once,
// after the first navigation that completes its pipeline.
package internal
