package event

import (
	"context"
	"slices"
	"sync"
)

// Topic names a stream of events on a Bus.
type Topic string

// Handler processes a single event.
type Handler[E any] func(ctx context.Context, e E) error

type subscription[E any] struct {
	handler Handler[E]
	id      uint64
	once    bool
}

// Bus is a synchronous publish/subscribe hub for one payload type.
type Bus[E any] struct {
	subs   map[Topic][]*subscription[E]
	nextID uint64
	mu     sync.Mutex
}

// Subscribe registers a persistent handler for topic.
// The returned function removes the subscription; calling it more than once
// is harmless.
func (b *Bus[E]) Subscribe(topic Topic, h Handler[E]) (cancel func()) {
	return b.add(topic, h, false)
}

// Once registers a handler that is removed right before its first delivery.
func (b *Bus[E]) Once(topic Topic, h Handler[E]) (cancel func()) {
	return b.add(topic, h, true)
}

// Publish delivers e to every handler subscribed on topic.
// It stops at the first handler error and returns it.
func (b *Bus[E]) Publish(ctx context.Context, topic Topic, e E) error {
	for _, s := range b.snapshot(topic) {
		if s.once && !b.claim(topic, s.id) {
			continue
		}
		if err := s.handler(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of handlers currently subscribed on topic.
func (b *Bus[E]) Len(topic Topic) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[topic])
}

func (b *Bus[E]) add(topic Topic, h Handler[E], once bool) func() {
	if h == nil {
		return func() {}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs == nil {
		b.subs = make(map[Topic][]*subscription[E])
	}
	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], &subscription[E]{handler: h, id: id, once: once})

	return func() { b.remove(topic, id) }
}

func (b *Bus[E]) remove(topic Topic, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subs[topic] = slices.DeleteFunc(b.subs[topic], func(s *subscription[E]) bool {
		return s.id == id
	})
}

// snapshot copies the handlers currently subscribed on topic.
func (b *Bus[E]) snapshot(topic Topic) []*subscription[E] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.subs[topic])
}

// claim removes the subscription and reports whether it was still present.
// A one-shot handler runs only for the publish that claims it.
func (b *Bus[E]) claim(topic Topic, id uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.subs[topic])
	b.subs[topic] = slices.DeleteFunc(b.subs[topic], func(s *subscription[E]) bool {
		return s.id == id
	})
	return len(b.subs[topic]) < n
}
