package bus

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/latticelabs/helix/pkg/models"
)

// Bus sizing defaults.
const (
	DefaultBufferSize = 4096
	DefaultOutboxSize = 256
)

// Bus is the process-wide tool-log stream. One instance per process; all
// publishers and subscribers share it.
//
// Publish serializes the seq assignment, the ring append, and the
// subscriber hand-off under one mutex. Holding the lock across the
// hand-off is what makes per-subscriber ordering trivial: offers are
// non-blocking, so the critical section stays short.
type Bus struct {
	mu   sync.Mutex
	seq  uint64
	ring []*models.ToolLogEvent // fixed capacity, oldest evicted first
	head int                    // index of the oldest buffered event
	size int
	subs map[string]*Subscription

	outboxSize int
	closed     bool

	dropped uint64 // events dropped across all subscriptions

	log *slog.Logger
}

// Option configures a Bus.
type Option func(*Bus)

// WithBufferSize sets the ring capacity (default 4096).
func WithBufferSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.ring = make([]*models.ToolLogEvent, n)
		}
	}
}

// WithOutboxSize sets the per-subscription outbox bound (default 256).
func WithOutboxSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.outboxSize = n
		}
	}
}

// New creates a bus with the given options.
func New(opts ...Option) *Bus {
	b := &Bus{
		ring:       make([]*models.ToolLogEvent, DefaultBufferSize),
		subs:       make(map[string]*Subscription),
		outboxSize: DefaultOutboxSize,
		log:        slog.With("component", "bus"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish assigns the next seq, stamps the timestamp and ID if absent,
// appends the event to the ring, and hands it to every matching
// subscription. It never blocks and returns the assigned seq. Events are
// immutable after Publish; callers must not retain and mutate them.
func (b *Bus) Publish(evt *models.ToolLogEvent) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0
	}

	b.seq++
	evt.Seq = b.seq
	if evt.TS.IsZero() {
		evt.TS = time.Now().UTC()
	}
	if evt.ID == "" {
		evt.ID = uuid.New().String()
	}

	b.append(evt)

	for _, sub := range b.subs {
		if !evt.Matches(sub.filter.SessionID, sub.filter.TraceID) {
			continue
		}
		if dropped := sub.offer(evt); dropped > 0 {
			b.dropped += dropped
		}
	}

	return evt.Seq
}

// append inserts into the ring, evicting the oldest event when full.
// Eviction never touches seq, so ordering is preserved.
func (b *Bus) append(evt *models.ToolLogEvent) {
	if b.size < len(b.ring) {
		b.ring[(b.head+b.size)%len(b.ring)] = evt
		b.size++
		return
	}
	b.ring[b.head] = evt
	b.head = (b.head + 1) % len(b.ring)
}

// Subscribe registers a subscription and replays up to filter.Limit
// matching buffered events (all of them when Limit <= 0) before any live
// event is delivered. The replay and the registration happen atomically,
// so no event is missed or duplicated at the boundary.
func (b *Bus) Subscribe(filter Filter) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscription{
		id:     uuid.New().String(),
		filter: filter,
		outbox: make(chan *models.ToolLogEvent, b.outboxSize),
		bus:    b,
	}

	if !b.closed {
		b.subs[sub.id] = sub
		for _, evt := range b.snapshotLocked(0, filter, filter.Limit) {
			if dropped := sub.offer(evt); dropped > 0 {
				b.dropped += dropped
			}
		}
	} else {
		sub.markClosed()
	}

	return sub
}

// Since returns buffered events with seq > afterSeq that match the
// filter, oldest first, capped at max (unlimited when max <= 0). Used by
// clients resyncing after a disconnect.
func (b *Bus) Since(afterSeq uint64, filter Filter, max int) []*models.ToolLogEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked(afterSeq, filter, max)
}

// snapshotLocked walks the ring oldest-to-newest. Callers hold b.mu.
func (b *Bus) snapshotLocked(afterSeq uint64, filter Filter, max int) []*models.ToolLogEvent {
	var out []*models.ToolLogEvent
	for i := 0; i < b.size; i++ {
		evt := b.ring[(b.head+i)%len(b.ring)]
		if evt.Seq <= afterSeq {
			continue
		}
		if !evt.Matches(filter.SessionID, filter.TraceID) {
			continue
		}
		out = append(out, evt)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out
}

// unsubscribe detaches a subscription so it receives no further events.
// The outbox channel is closed here, under the bus lock, which is the
// only place offers happen — closing anywhere else would race a send.
func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub.id]; !ok {
		return
	}
	delete(b.subs, sub.id)
	sub.beginDrain()
	close(sub.outbox)
}

// Subscribers returns the number of attached subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Stats describes the bus for health reporting.
type Stats struct {
	Published   uint64 `json:"published"`   // total events published
	Buffered    int    `json:"buffered"`    // events currently in the ring
	Subscribers int    `json:"subscribers"` // attached subscriptions
	Dropped     uint64 `json:"dropped"`     // events dropped across all outboxes
}

// Stats returns a consistent snapshot of bus counters.
func (b *Bus) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		Published:   b.seq,
		Buffered:    b.size,
		Subscribers: len(b.subs),
		Dropped:     b.dropped,
	}
}

// Shutdown detaches every subscription. Pending outbox events remain
// readable until each consumer drains its channel.
func (b *Bus) Shutdown() {
	b.mu.Lock()
	subs := make([]*Subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.closed = true
	b.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
	b.log.Info("Bus shut down", "detached_subscriptions", len(subs))
}
