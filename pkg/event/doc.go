// Package event provides the two notification primitives used by the
// dispatcher: a topic-based subscription list and a one-shot completion
// signal.
//
// # Bus
//
// Bus delivers events of a single payload type to handlers subscribed on a
// topic. Handlers run synchronously on the publishing goroutine, in the order
// they subscribed. The first handler error stops delivery and is returned
// from Publish, so a failing handler prevents the handlers after it from
// running:
//
//	var bus event.Bus[*Navigation]
//
//	cancel := bus.Subscribe("navigated", func(ctx context.Context, n *Navigation) error {
//	    log.InfoContext(ctx, "navigated", "to", n.Fragment)
//	    return nil
//	})
//	defer cancel()
//
//	bus.Once("loaded", onFirstLoad)
//
//	if err := bus.Publish(ctx, "navigated", nav); err != nil {
//	    return err
//	}
//
// Once subscriptions are removed before their handler runs, so a handler
// that publishes the same topic again does not see itself.
//
// The zero Bus is ready to use. Subscribing and publishing are safe for
// concurrent use; handlers added during a publish are not called by it.
//
// # Signal
//
// Signal is closed exactly once with an optional error. Waiters block on
// Done or Wait:
//
//	loaded := event.NewSignal()
//	go func() { loaded.Resolve(run()) }()
//
//	if err := loaded.Wait(ctx); err != nil {
//	    return err
//	}
package event
