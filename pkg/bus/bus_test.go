package bus

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticelabs/helix/pkg/models"
)

func publishN(b *Bus, n int, traceID string) {
	for i := 0; i < n; i++ {
		b.Publish(&models.ToolLogEvent{
			TraceID: traceID,
			Tool:    ToolAskStream,
			Stage:   models.StageChunk,
			Text:    fmt.Sprintf("chunk-%d", i),
		})
	}
}

// collect drains available events without blocking on an open channel.
func collect(sub *Subscription) []*models.ToolLogEvent {
	var out []*models.ToolLogEvent
	for {
		select {
		case evt, ok := <-sub.Events():
			if !ok {
				return out
			}
			out = append(out, evt)
		default:
			return out
		}
	}
}

func TestBus_PublishAssignsMonotonicSeq(t *testing.T) {
	b := New()

	first := b.Publish(&models.ToolLogEvent{Tool: ToolAskStart, Stage: models.StageStart})
	second := b.Publish(&models.ToolLogEvent{Tool: ToolAskEnd, Stage: models.StageEnd})

	assert.Equal(t, uint64(1), first)
	assert.Equal(t, uint64(2), second)
}

func TestBus_PublishStampsTimestampAndID(t *testing.T) {
	b := New()
	evt := &models.ToolLogEvent{Tool: ToolAskStart, Stage: models.StageStart}

	b.Publish(evt)

	assert.False(t, evt.TS.IsZero())
	assert.NotEmpty(t, evt.ID)
}

func TestBus_PublishKeepsCallerTimestamp(t *testing.T) {
	b := New()
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	evt := &models.ToolLogEvent{Tool: ToolAskStart, Stage: models.StageStart, TS: ts}

	b.Publish(evt)

	assert.Equal(t, ts, evt.TS)
}

func TestBus_SubscriberReceivesInSeqOrder(t *testing.T) {
	b := New()
	sub := b.Subscribe(Filter{TraceID: "ask:42"})
	defer sub.Close()

	publishN(b, 5, "ask:42")

	events := collect(sub)
	require.Len(t, events, 5)
	for i := 1; i < len(events); i++ {
		assert.Greater(t, events[i].Seq, events[i-1].Seq)
	}
}

func TestBus_FanOutByTrace(t *testing.T) {
	// Two subscribers on the same trace see all five events in order; a
	// third on a different trace sees none.
	b := New()
	sub1 := b.Subscribe(Filter{TraceID: "ask:42"})
	sub2 := b.Subscribe(Filter{TraceID: "ask:42"})
	sub3 := b.Subscribe(Filter{TraceID: "ask:99"})
	defer sub1.Close()
	defer sub2.Close()
	defer sub3.Close()

	publishN(b, 5, "ask:42")

	for _, sub := range []*Subscription{sub1, sub2} {
		events := collect(sub)
		require.Len(t, events, 5)
		for i, evt := range events {
			assert.Equal(t, fmt.Sprintf("chunk-%d", i), evt.Text)
		}
	}
	assert.Empty(t, collect(sub3))
}

func TestBus_SessionFilter(t *testing.T) {
	b := New()
	sub := b.Subscribe(Filter{SessionID: "s-1"})
	defer sub.Close()

	b.Publish(&models.ToolLogEvent{SessionID: "s-1", Tool: ToolAskStart, Stage: models.StageStart})
	b.Publish(&models.ToolLogEvent{SessionID: "s-2", Tool: ToolAskStart, Stage: models.StageStart})
	b.Publish(&models.ToolLogEvent{SessionID: "s-1", Tool: ToolAskEnd, Stage: models.StageEnd})

	events := collect(sub)
	require.Len(t, events, 2)
	assert.Equal(t, ToolAskStart, events[0].Tool)
	assert.Equal(t, ToolAskEnd, events[1].Tool)
}

func TestBus_SubscribeReplaysBuffer(t *testing.T) {
	b := New()
	publishN(b, 3, "ask:42")

	sub := b.Subscribe(Filter{TraceID: "ask:42"})
	defer sub.Close()

	events := collect(sub)
	require.Len(t, events, 3)
	assert.Equal(t, "chunk-0", events[0].Text)
}

func TestBus_SubscribeReplayHonorsLimit(t *testing.T) {
	b := New()
	publishN(b, 10, "ask:42")

	sub := b.Subscribe(Filter{TraceID: "ask:42", Limit: 4})
	defer sub.Close()

	events := collect(sub)
	require.Len(t, events, 4)
	// Replay keeps the oldest events within the limit, then live events
	// continue seamlessly.
	assert.Equal(t, "chunk-0", events[0].Text)

	b.Publish(&models.ToolLogEvent{TraceID: "ask:42", Tool: ToolAskEnd, Stage: models.StageEnd})
	live := collect(sub)
	require.Len(t, live, 1)
	assert.Equal(t, ToolAskEnd, live[0].Tool)
}

func TestBus_RingEvictsOldestWithoutReordering(t *testing.T) {
	b := New(WithBufferSize(8))
	publishN(b, 20, "ask:42")

	events := b.Since(0, Filter{}, 0)
	require.Len(t, events, 8)
	assert.Equal(t, uint64(13), events[0].Seq)
	assert.Equal(t, uint64(20), events[7].Seq)
	for i := 1; i < len(events); i++ {
		assert.Equal(t, events[i-1].Seq+1, events[i].Seq)
	}
}

func TestBus_Since(t *testing.T) {
	b := New()
	publishN(b, 10, "ask:42")
	publishN(b, 3, "ask:99")

	t.Run("after seq", func(t *testing.T) {
		events := b.Since(7, Filter{TraceID: "ask:42"}, 0)
		require.Len(t, events, 3)
		assert.Equal(t, uint64(8), events[0].Seq)
	})

	t.Run("capped at max", func(t *testing.T) {
		events := b.Since(0, Filter{TraceID: "ask:42"}, 4)
		require.Len(t, events, 4)
		assert.Equal(t, uint64(1), events[0].Seq)
	})

	t.Run("filter excludes other traces", func(t *testing.T) {
		events := b.Since(0, Filter{TraceID: "ask:99"}, 0)
		require.Len(t, events, 3)
	})
}

func TestBus_SlowSubscriberDropsOldestAndCounts(t *testing.T) {
	b := New(WithOutboxSize(4))
	sub := b.Subscribe(Filter{TraceID: "ask:42"})
	defer sub.Close()

	publishN(b, 10, "ask:42")

	// Outbox held the newest 4; the 6 oldest were dropped.
	assert.Equal(t, uint64(6), sub.Missed())
	events := collect(sub)
	require.Len(t, events, 4)
	assert.Equal(t, "chunk-6", events[0].Text)
	assert.Equal(t, "chunk-9", events[3].Text)
}

func TestBus_PublisherNeverBlocks(t *testing.T) {
	b := New(WithOutboxSize(2))
	sub := b.Subscribe(Filter{})
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		publishN(b, 1000, "ask:42")
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}
}

func TestBus_BoundedMemory(t *testing.T) {
	b := New(WithBufferSize(16), WithOutboxSize(4))
	sub := b.Subscribe(Filter{})
	defer sub.Close()

	publishN(b, 500, "ask:42")

	stats := b.Stats()
	assert.Equal(t, uint64(500), stats.Published)
	assert.LessOrEqual(t, stats.Buffered, 16)
	assert.LessOrEqual(t, len(sub.Events()), 4)
}

func TestBus_SubscriptionStates(t *testing.T) {
	b := New()

	t.Run("active to closed when empty", func(t *testing.T) {
		sub := b.Subscribe(Filter{})
		assert.Equal(t, StateActive, sub.State())

		sub.Close()
		assert.Equal(t, StateClosed, sub.State())
	})

	t.Run("draining while buffered events remain", func(t *testing.T) {
		sub := b.Subscribe(Filter{})
		publishN(b, 3, "ask:42")

		sub.Close()
		assert.Equal(t, StateDraining, sub.State())

		// The outbox stays readable until drained.
		events := collect(sub)
		assert.Len(t, events, 3)
		assert.Equal(t, StateClosed, sub.State())
	})
}

func TestBus_CloseIsIdempotent(t *testing.T) {
	b := New()
	sub := b.Subscribe(Filter{})

	sub.Close()
	sub.Close()

	assert.Equal(t, 0, b.Subscribers())
}

func TestBus_ClosedSubscriberReceivesNothingNew(t *testing.T) {
	b := New()
	sub := b.Subscribe(Filter{})
	sub.Close()

	publishN(b, 3, "ask:42")

	_, open := <-sub.Events()
	assert.False(t, open)
}

func TestBus_ShutdownDetachesAll(t *testing.T) {
	b := New()
	sub1 := b.Subscribe(Filter{})
	sub2 := b.Subscribe(Filter{})

	b.Shutdown()

	assert.Equal(t, 0, b.Subscribers())
	assert.Equal(t, StateClosed, sub1.State())
	assert.Equal(t, StateClosed, sub2.State())
	assert.Equal(t, uint64(0), b.Publish(&models.ToolLogEvent{Tool: ToolAskStart, Stage: models.StageStart}))
}

func TestBus_ConcurrentPublishersKeepSeqOrder(t *testing.T) {
	b := New(WithBufferSize(2048))
	sub := b.Subscribe(Filter{TraceID: "ask:42"})
	defer sub.Close()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			publishN(b, 100, "ask:42")
		}()
	}
	wg.Wait()

	events := collect(sub)
	require.NotEmpty(t, events)
	for i := 1; i < len(events); i++ {
		assert.Greater(t, events[i].Seq, events[i-1].Seq)
	}
	assert.EqualValues(t, 800, b.Stats().Published)
}

// Property: for any publish sequence and any subscriber filter, delivered
// events arrive in strictly increasing seq order and all match the filter.
func TestBus_OrderingProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("filtered delivery preserves seq order", prop.ForAll(
		func(traces []uint8, filterPick uint8) bool {
			b := New(WithBufferSize(64), WithOutboxSize(32))
			filter := Filter{TraceID: fmt.Sprintf("ask:%d", filterPick%4)}
			sub := b.Subscribe(filter)
			defer sub.Close()

			for _, tr := range traces {
				b.Publish(&models.ToolLogEvent{
					TraceID: fmt.Sprintf("ask:%d", tr%4),
					Tool:    ToolAskStream,
					Stage:   models.StageChunk,
				})
			}

			events := collect(sub)
			var lastSeq uint64
			for _, evt := range events {
				if evt.Seq <= lastSeq {
					return false
				}
				if evt.TraceID != filter.TraceID {
					return false
				}
				lastSeq = evt.Seq
			}
			return true
		},
		gen.SliceOf(gen.UInt8()),
		gen.UInt8(),
	))

	properties.TestingRun(t)
}
