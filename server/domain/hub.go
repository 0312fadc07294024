package domain

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"
)

// DefaultSubscriberBuffer is the per-subscriber queue length.
const DefaultSubscriberBuffer = 64

// Hub fans events out to subscribers, keyed by the event's Go type. It is
// not room-aware; consumers filter their own streams.
type Hub struct {
	mu     sync.RWMutex
	topics map[reflect.Type]any
	buffer int

	published atomic.Int64
	dropped   atomic.Int64
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	return &Hub{
		topics: make(map[reflect.Type]any),
		buffer: buffer,
	}
}

type topic[T any] struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]*Subscription[T]
}

// Subscription is one live, independently paced stream of T. Its channel is
// closed when the subscriber unsubscribes or falls behind.
type Subscription[T any] struct {
	id    uint64
	ch    chan T
	topic *topic[T]
	once  sync.Once
}

func topicFor[T any](h *Hub) *topic[T] {
	key := reflect.TypeFor[T]()

	h.mu.RLock()
	t, ok := h.topics[key]
	h.mu.RUnlock()
	if ok {
		return t.(*topic[T])
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if t, ok := h.topics[key]; ok {
		return t.(*topic[T])
	}
	nt := &topic[T]{subs: make(map[uint64]*Subscription[T])}
	h.topics[key] = nt
	return nt
}

// Subscribe registers a subscriber for T. Only events published afterwards
// are delivered.
func Subscribe[T any](h *Hub) *Subscription[T] {
	t := topicFor[T](h)
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	sub := &Subscription[T]{
		id:    t.nextID,
		ch:    make(chan T, h.buffer),
		topic: t,
	}
	t.subs[sub.id] = sub
	return sub
}

// Copier is implemented by events carrying mutable state. Publish hands
// each subscriber its own DeepCopy.
type Copier[T any] interface {
	DeepCopy() T
}

// Publish delivers event to every current subscriber of T without blocking.
// A subscriber whose buffer is full is dropped. A nil hub discards events.
func Publish[T any](h *Hub, event T) {
	if h == nil {
		return
	}
	t := topicFor[T](h)
	t.mu.Lock()
	defer t.mu.Unlock()

	h.published.Add(1)
	c, deep := any(event).(Copier[T])
	for id, sub := range t.subs {
		ev := event
		if deep {
			ev = c.DeepCopy()
		}
		select {
		case sub.ch <- ev:
		default:
			delete(t.subs, id)
			sub.closeLocked()
			h.dropped.Add(1)
		}
	}
}

// SubscriberCount returns the number of live subscribers of T.
func SubscriberCount[T any](h *Hub) int {
	t := topicFor[T](h)
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

// HubStats are lifetime delivery counters.
type HubStats struct {
	Published int64
	Dropped   int64
}

func (h *Hub) Stats() HubStats {
	return HubStats{
		Published: h.published.Load(),
		Dropped:   h.dropped.Load(),
	}
}

func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription[T]) Close() {
	s.topic.mu.Lock()
	defer s.topic.mu.Unlock()
	delete(s.topic.subs, s.id)
	s.closeLocked()
}

func (s *Subscription[T]) closeLocked() {
	s.once.Do(func() { close(s.ch) })
}

// Filter forwards events accepted by keep until ctx is done or the
// subscription closes. The subscription is closed when forwarding stops.
func (s *Subscription[T]) Filter(ctx context.Context, keep func(T) bool) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		defer s.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-s.ch:
				if !ok {
					return
				}
				if keep != nil && !keep(ev) {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
