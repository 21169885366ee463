package bus

import (
	"time"

	"github.com/latticelabs/helix/pkg/models"
)

// maxEventTextBytes caps the text carried by a single event. Events sit
// in the ring for their whole buffered life; an unbounded text field
// would defeat the fixed memory budget. Oversized text is clipped at a
// rune boundary and flagged in Meta.
const maxEventTextBytes = 8000

// Publisher is the typed emission surface over the bus. Each method maps
// one pipeline moment onto the event lifecycle described in the package
// doc; callers never build ToolLogEvent structs by hand.
type Publisher struct {
	bus *Bus
}

// NewPublisher creates a publisher for the given bus.
func NewPublisher(b *Bus) *Publisher {
	return &Publisher{bus: b}
}

// StageStarted emits the start event of a streaming tool invocation.
func (p *Publisher) StageStarted(sessionID, traceID, tool string, meta map[string]any) {
	p.bus.Publish(&models.ToolLogEvent{
		SessionID: sessionID,
		TraceID:   traceID,
		Tool:      tool,
		Stage:     models.StageStart,
		Meta:      meta,
	})
}

// StageEnded emits the terminal event of a streaming tool invocation,
// with duration measured from startedAt.
func (p *Publisher) StageEnded(sessionID, traceID, tool string, ok bool, startedAt time.Time, text string, meta map[string]any) {
	text, meta = clipText(text, meta)
	p.bus.Publish(&models.ToolLogEvent{
		SessionID:  sessionID,
		TraceID:    traceID,
		Tool:       tool,
		Stage:      models.StageEnd,
		Text:       text,
		OK:         &ok,
		DurationMs: time.Since(startedAt).Milliseconds(),
		Meta:       meta,
	})
}

// StageNote emits a fire-and-forget event for cheap transitions that
// need no separate start.
func (p *Publisher) StageNote(sessionID, traceID, tool, text string, meta map[string]any) {
	ok := true
	text, meta = clipText(text, meta)
	p.bus.Publish(&models.ToolLogEvent{
		SessionID: sessionID,
		TraceID:   traceID,
		Tool:      tool,
		Stage:     models.StageEnd,
		Text:      text,
		OK:        &ok,
		Meta:      meta,
	})
}

// StreamDelta emits one generation chunk on the stream tool.
func (p *Publisher) StreamDelta(sessionID, traceID, delta string) {
	delta, _ = clipText(delta, nil)
	p.bus.Publish(&models.ToolLogEvent{
		SessionID: sessionID,
		TraceID:   traceID,
		Tool:      ToolAskStream,
		Stage:     models.StageChunk,
		Text:      delta,
	})
}

// clipText enforces maxEventTextBytes, marking clipped events in Meta so
// clients know the full text lives elsewhere.
func clipText(text string, meta map[string]any) (string, map[string]any) {
	if len(text) <= maxEventTextBytes {
		return text, meta
	}
	cut := maxEventTextBytes
	for cut > 0 && !isRuneStart(text[cut]) {
		cut--
	}
	if meta == nil {
		meta = make(map[string]any, 1)
	}
	meta["truncated"] = true
	return text[:cut], meta
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
