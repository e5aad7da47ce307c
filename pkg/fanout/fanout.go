// Package fanout delivers published values to filtered subscribers.
package fanout

import "sync"

type Hub[T any] struct {
	mu     sync.RWMutex
	subs   map[*Subscription[T]]struct{}
	closed bool
}

func New[T any]() *Hub[T] {
	return &Hub[T]{subs: make(map[*Subscription[T]]struct{})}
}

type Subscription[T any] struct {
	hub    *Hub[T]
	filter func(T) bool
	ch     chan T
	once   sync.Once
}

// Subscribe registers a subscriber. A nil filter accepts everything.
func (h *Hub[T]) Subscribe(filter func(T) bool, buffer int) *Subscription[T] {
	s := &Subscription[T]{hub: h, filter: filter, ch: make(chan T, buffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(s.ch)
		s.once.Do(func() {})
		return s
	}
	h.subs[s] = struct{}{}
	return s
}

// Publish never blocks: a subscriber whose buffer is full misses the value.
// It returns how many subscribers received it.
func (h *Hub[T]) Publish(v T) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for s := range h.subs {
		if s.filter != nil && !s.filter(v) {
			continue
		}
		select {
		case s.ch <- v:
			delivered++
		default:
		}
	}
	return delivered
}

func (h *Hub[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for s := range h.subs {
		s.once.Do(func() { close(s.ch) })
	}
	h.subs = map[*Subscription[T]]struct{}{}
}

func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

func (s *Subscription[T]) Close() error {
	s.hub.mu.Lock()
	delete(s.hub.subs, s)
	s.hub.mu.Unlock()
	s.once.Do(func() { close(s.ch) })
	return nil
}
