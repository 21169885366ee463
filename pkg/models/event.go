package models

import "time"

// Tool-log event stages. Every tool invocation emits start, zero or more
// chunk events, and exactly one end event.
const (
	StageStart = "start"
	StageChunk = "chunk"
	StageEnd   = "end"
)

// ToolLogEvent is one entry in the process-wide tool log. Events are
// immutable once published; Seq is assigned by the bus and strictly
// monotonic across the process.
type ToolLogEvent struct {
	ID         string         `json:"id"`                   // unique per event
	Seq        uint64         `json:"seq"`                  // bus-assigned, monotonic
	TS         time.Time      `json:"ts"`                   // stamped by the bus if zero
	SessionID  string         `json:"sessionId,omitempty"`  // owning chat session, if any
	TraceID    string         `json:"traceId,omitempty"`    // owning ask run, if any
	Tool       string         `json:"tool"`                 // e.g. "helix.ask.generate"
	Stage      string         `json:"stage"`                // start, chunk, end
	Text       string         `json:"text,omitempty"`       // chunk delta or human-readable note
	OK         *bool          `json:"ok,omitempty"`         // set on end events
	DurationMs int64          `json:"durationMs,omitempty"` // set on end events
	Meta       map[string]any `json:"meta,omitempty"`
}

// Matches reports whether the event passes a session/trace filter.
// Empty filter fields match everything.
func (e *ToolLogEvent) Matches(sessionID, traceID string) bool {
	if sessionID != "" && e.SessionID != sessionID {
		return false
	}
	if traceID != "" && e.TraceID != traceID {
		return false
	}
	return true
}
