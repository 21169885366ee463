// Package bus provides the in-process tool-log event bus: an ordered,
// ring-buffered pub/sub stream multiplexed by session and trace.
//
// ════════════════════════════════════════════════════════════════
// Tool-Log Event Lifecycle
// ════════════════════════════════════════════════════════════════
//
// Every tool invocation emits events in one of two patterns. Clients
// differentiate them by the "stage" field.
//
// Pattern 1 — STREAMING (start → chunk* → end):
//
//	{stage: "start"}                    invocation began
//	{stage: "chunk", text: "..."}       incremental output (repeated)
//	{stage: "end", ok: true, durationMs: N}
//
//	Used by the generation stage (helix.ask.stream carries the chunks)
//	and by long-running executor calls. Chunks are transient in spirit:
//	a subscriber that joins late sees only what the ring still holds.
//
// Pattern 2 — FIRE-AND-FORGET (end only):
//
//	{stage: "end", ok: true, text: "...", durationMs: N}
//
//	Used by cheap transitions (interpret, build-context) where a
//	separate start event would double the volume for no client value.
//
// Delivery contract: within one subscription events arrive in strictly
// increasing seq order. The bus never blocks a publisher; a slow consumer
// loses its oldest pending events and can observe the loss through the
// subscription's missed counter, then resync via Since.
//
// ════════════════════════════════════════════════════════════════
package bus

// Ask pipeline tools. One constant per orchestrator stage; the stream
// constant carries generation chunks.
const (
	ToolAskStart         = "helix.ask.start"
	ToolAskInterpret     = "helix.ask.interpret"
	ToolAskPlan          = "helix.ask.plan"
	ToolAskExecute       = "helix.ask.execute"
	ToolAskBuildContext  = "helix.ask.build-context"
	ToolAskGenerate      = "helix.ask.generate"
	ToolAskReduceContext = "helix.ask.reduce-context"
	ToolAskStream        = "helix.ask.stream"
	ToolAskEmitReply     = "helix.ask.emit-reply"
	ToolAskEnd           = "helix.ask.end"
	ToolAskAborted       = "helix.ask.aborted"
)

// Adapter and diagnostics tools.
const (
	ToolAdapterRun  = "helix.adapter.run"
	ToolDiagnostics = "helix.diagnostics"

	// ToolMock tags synthesized frames from the mock stream endpoint.
	ToolMock = "helix.mock"
)

// Filter selects the subset of the stream a subscriber receives. Empty
// fields match everything; Limit caps the initial replay from the ring.
type Filter struct {
	SessionID string
	TraceID   string
	Limit     int
}

// SubscriptionState tracks a subscription through its lifecycle.
type SubscriptionState int32

const (
	// StateActive delivers replayed and live events.
	StateActive SubscriptionState = iota
	// StateDraining stops accepting new events but lets the consumer
	// finish the buffered outbox.
	StateDraining
	// StateClosed is terminal; the events channel is closed.
	StateClosed
)

// String returns the state name for logs.
func (s SubscriptionState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
