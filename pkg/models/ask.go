package models

// Ask modes.
const (
	AskModeGrounded = "grounded" // retrieve + generate, no tool execution
	AskModeExecute  = "execute"  // plan + execute a tool chain, then summarize
)

// AskRequest is the body of POST /api/agi/ask.
type AskRequest struct {
	Question          string           `json:"question"`
	SessionID         string           `json:"sessionId,omitempty"`
	TraceID           string           `json:"traceId,omitempty"` // assigned ("ask:<uuid>") when absent
	Mode              string           `json:"mode,omitempty"`    // grounded (default) or execute
	MaxTokens         int              `json:"maxTokens,omitempty"`
	UseKnowledge      *bool            `json:"useKnowledge,omitempty"`
	UseSearchFallback *bool            `json:"useSearchFallback,omitempty"`
	Resonance         *ResonanceBundle `json:"resonance,omitempty"` // client-computed retrieval candidates
	Debug             bool             `json:"debug,omitempty"`
}

// AskResult is the orchestrator's reply for one run.
type AskResult struct {
	Text             string    `json:"text"`
	Envelope         *Envelope `json:"envelope,omitempty"`
	Sources          []string  `json:"sources"`
	TraceID          string    `json:"traceId"`
	Debug            *AskDebug `json:"debug,omitempty"`
	StreamedFallback bool      `json:"streamedFallback,omitempty"` // reply rebuilt from captured stream chunks
}

// AskDebug carries per-run diagnostics, returned only when requested.
type AskDebug struct {
	Intent               string   `json:"intent"`           // grounded or general
	Format               string   `json:"format"`           // brief, steps, steps+tags, compare
	PromptTokens         int      `json:"promptTokens"`     // estimate of the assembled prompt
	PromptBudget         int      `json:"promptBudget"`     // budget the prompt was built under
	SelectedFiles        []string `json:"selectedFiles"`    // paths in selection order
	SearchQueries        []string `json:"searchQueries"`    // derived lattice queries
	OverflowRetryApplied bool     `json:"overflow_retry_applied"`
	QueueDepth           int      `json:"queueDepth"`
	PlanRetriedNoContext bool     `json:"planRetriedNoContext,omitempty"` // planner retried without knowledge
}

// Envelope section kinds.
const (
	SectionAnswer    = "answer"
	SectionDetails   = "details"
	SectionProof     = "proof"
	SectionExtension = "extension"
)

// EnvelopeSection is one tagged section of a structured reply. Unknown
// metadata is carried through opaquely.
type EnvelopeSection struct {
	Kind     string         `json:"kind"` // answer, details, proof, extension
	Title    string         `json:"title,omitempty"`
	Body     string         `json:"body"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Envelope is the structured reply variant of an ask result.
type Envelope struct {
	Sections []EnvelopeSection `json:"sections"`
}
