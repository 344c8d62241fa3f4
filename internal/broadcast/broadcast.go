package broadcast

import (
	"sync"
	"sync/atomic"
)

// subscriberBuffer is the per-subscriber event buffer depth. A subscriber
// that falls more than subscriberBuffer events behind starts losing the
// oldest buffered events.
const subscriberBuffer = 16

// ChangeEvent is a unit-valued signal meaning the watched tree changed.
// It carries no payload: consumers only need to know that a change happened,
// not which file caused it.
type ChangeEvent struct{}

// Broadcaster fans a stream of ChangeEvents out to any number of
// subscribers. There is exactly one Broadcaster per server process; it is
// constructed in main and handed to every component that needs it.
//
// Publish never blocks and never fails, regardless of how many subscribers
// exist or how far behind they are.
type Broadcaster struct {
	mu        sync.RWMutex
	subs      map[*Subscription]struct{}
	published atomic.Uint64
}

// New creates an empty Broadcaster.
func New() *Broadcaster {
	return &Broadcaster{
		subs: make(map[*Subscription]struct{}),
	}
}

// Publish delivers one ChangeEvent to every current subscriber. A subscriber
// whose buffer is full loses its oldest buffered event so that the new one
// fits; the producer and all other subscribers are unaffected.
func (b *Broadcaster) Publish() {
	b.published.Add(1)

	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.subs {
		s.offer(ChangeEvent{})
	}
}

// Subscribe registers a new subscriber. The subscription observes only
// events published after this call; there is no backlog replay.
func (b *Broadcaster) Subscribe() *Subscription {
	s := &Subscription{
		b:  b,
		ch: make(chan ChangeEvent, subscriberBuffer),
	}
	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()
	return s
}

// SubscriberCount returns the number of active subscriptions.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Published returns the total number of events published so far.
func (b *Broadcaster) Published() uint64 {
	return b.published.Load()
}

// Subscription is one subscriber's private view of the broadcast stream.
// It is owned by a single consumer and must not be shared.
type Subscription struct {
	b      *Broadcaster
	ch     chan ChangeEvent
	lagged atomic.Uint64
	closed atomic.Bool
}

// C returns the channel on which events are delivered. The channel is never
// closed; consumers must select against their own done signal.
func (s *Subscription) C() <-chan ChangeEvent {
	return s.ch
}

// Lagged returns how many events this subscription has lost to buffer
// overflow since it was created.
func (s *Subscription) Lagged() uint64 {
	return s.lagged.Load()
}

// Close unsubscribes. It is safe to call more than once. Events already
// buffered remain readable from C; no new events will arrive.
func (s *Subscription) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.b.mu.Lock()
	delete(s.b.subs, s)
	s.b.mu.Unlock()
}

// offer enqueues ev without ever blocking. Called with the broadcaster's
// read lock held, so it cannot race Close removing the subscription's entry.
func (s *Subscription) offer(ev ChangeEvent) {
	select {
	case s.ch <- ev:
		return
	default:
	}

	// Buffer full: discard the oldest buffered event and retry once. The
	// consumer may have drained the channel in between, in which case the
	// discard receives nothing and the send below succeeds anyway.
	select {
	case <-s.ch:
		s.lagged.Add(1)
	default:
	}
	select {
	case s.ch <- ev:
	default:
	}
}
