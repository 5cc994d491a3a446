// Package router resolves history locations to handlers.
//
// A Router holds an ordered list of bindings, each pairing a compiled
// route pattern with a Handler. It subscribes to a history.Backend on
// construction and, whenever the location changes, invokes the handler of
// the first binding whose pattern matches.
//
// # Resolution
//
// The location is the backend token. When the token is blank and the
// backend path is longer than "/", the path is used instead. Anything after
// the first "?" is parsed as a query string and excluded from matching:
//
//	r := router.New(backend)
//	_ = r.Route("/blog/:id", func(ctx context.Context, m router.Match) error {
//	    id, _ := m.Captures.Get(0)
//	    page := m.Query.Get("page")
//	    ...
//	})
//
// Bindings are tried in registration order. Registering the same pattern
// twice leaves the second binding unreachable. A location that matches no
// binding is ignored.
//
// # Change notifications and CheckRoutes
//
// Backend notifications only dispatch when the location differs from the
// current one. Before the state is updated, OnExpired listeners receive the
// outgoing and incoming locations. CheckRoutes always dispatches and does
// not emit an expiry notification.
//
// # Serialization
//
// At most one dispatch runs at a time. A notification or CheckRoutes call
// arriving while a handler runs, including a Navigate from inside that
// handler, is queued and processed once the running dispatch returns.
package router
