package bus

import (
	"sync"
	"sync/atomic"

	"github.com/latticelabs/helix/pkg/models"
)

// Subscription is one consumer's view of the bus. Events arrive on
// Events() in strictly increasing seq order. The outbox is bounded: when
// the consumer falls behind, the oldest pending events are dropped and
// counted in Missed.
//
// Lifecycle: active → draining → closed. Draining begins when Close is
// called (typically on client disconnect) while buffered events remain;
// the events channel stays readable until drained, then reports closed.
type Subscription struct {
	id     string
	filter Filter
	outbox chan *models.ToolLogEvent
	bus    *Bus

	missed atomic.Uint64
	state  atomic.Int32 // SubscriptionState

	closeOnce sync.Once
}

// Events returns the delivery channel. It is closed after Close once the
// subscription is detached; buffered events remain readable first.
func (s *Subscription) Events() <-chan *models.ToolLogEvent {
	return s.outbox
}

// Missed returns how many events were dropped because the outbox was
// full. Consumers use it to decide whether to resync via Since.
func (s *Subscription) Missed() uint64 {
	return s.missed.Load()
}

// State returns the current lifecycle state. A draining subscription
// reports closed once its outbox is empty.
func (s *Subscription) State() SubscriptionState {
	st := SubscriptionState(s.state.Load())
	if st == StateDraining && len(s.outbox) == 0 {
		s.state.CompareAndSwap(int32(StateDraining), int32(StateClosed))
		return StateClosed
	}
	return st
}

// Close detaches the subscription from the bus. Safe to call multiple
// times and from any goroutine.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.bus.unsubscribe(s)
	})
}

// offer enqueues an event without blocking. When the outbox is full it
// drops the oldest pending event to make room; the returned count is the
// number of drops. Only called under the bus lock, so sends never race
// the close in unsubscribe.
func (s *Subscription) offer(evt *models.ToolLogEvent) uint64 {
	var dropped uint64
	for {
		select {
		case s.outbox <- evt:
			return dropped
		default:
		}
		select {
		case <-s.outbox:
			s.missed.Add(1)
			dropped++
		default:
			// Consumer drained concurrently; retry the send.
		}
	}
}

// beginDrain marks the subscription draining (or closed when nothing is
// buffered). Called under the bus lock.
func (s *Subscription) beginDrain() {
	if len(s.outbox) == 0 {
		s.state.Store(int32(StateClosed))
		return
	}
	s.state.Store(int32(StateDraining))
}

// markClosed is used for subscriptions created after shutdown.
func (s *Subscription) markClosed() {
	s.state.Store(int32(StateClosed))
	close(s.outbox)
}
