// Package history defines the history backend consumed by the router and
// ships two implementations.
//
// A Backend owns the current location token (the routable fragment), can be
// told to move to a new token, and notifies listeners whenever the token
// changes. Listeners receive an Event whose IsNavigation field tells whether
// the change originated from the client (back/forward buttons, typed URL) or
// from a SetToken call.
//
// # Memory
//
// Memory keeps the history stack in process. It is the default backend for
// applications that drive navigation themselves, and the backend used in
// tests:
//
//	h := history.NewMemory(history.WithInitialToken("/home"))
//	h.SetToken("/blog/42") // notifies listeners with IsNavigation=false
//	h.Back()               // notifies listeners with IsNavigation=true
//
// # Socket
//
// Socket exposes the history over a WebSocket so that a browser tab can act
// as the location source. The page reports location changes and receives
// token updates:
//
//	client -> server  {"type":"navigate","token":"/blog/42","path":"/"}
//	server -> client  {"type":"set_token","token":"/blog/43"}
//
// Mount it like any http.Handler:
//
//	sock := history.NewSocket(history.WithSocketLogger(log))
//	r := chi.NewRouter()
//	r.Handle("/history", sock)
//
// Only one client is attached at a time; a new connection replaces the
// previous one.
package history
