package models

import "time"

// Check severities. HARD failures veto execution; SOFT failures are
// recorded as deltas only.
const (
	SeverityHard = "HARD"
	SeveritySoft = "SOFT"
)

// Certificate statuses.
const (
	CertificateGreen = "GREEN"
	CertificateRed   = "RED"
)

// Adapter run verdicts.
const (
	VerdictPass = "PASS"
	VerdictFail = "FAIL"
)

// Delta change kinds.
const (
	ChangeAdded    = "added"
	ChangeModified = "modified"
	ChangeRemoved  = "removed"
)

// CheckFailure identifies the first failing check of a safety evaluation.
type CheckFailure struct {
	ID       string  `json:"id"`       // stable check identifier, e.g. ROBOTICS_SAFETY_COLLISION_MARGIN
	Severity string  `json:"severity"` // HARD or SOFT
	Status   string  `json:"status"`   // FAIL
	Value    float64 `json:"value"`    // observed value
	Limit    float64 `json:"limit"`    // configured threshold
	Note     string  `json:"note,omitempty"`
}

// Delta is the audit record for one evaluated metric.
type Delta struct {
	Key    string   `json:"key"`
	From   *float64 `json:"from,omitempty"` // previous value, when known
	To     float64  `json:"to"`             // current value
	Delta  float64  `json:"delta"`          // To - (From ?? Limit)
	Change string   `json:"change"`         // added, modified, removed
}

// Certificate attests that a specific check set was evaluated over a
// specific input. Hash is SHA-256 of the canonical JSON of {mode, checks}.
type Certificate struct {
	Status          string `json:"status"` // GREEN or RED
	CertificateHash string `json:"certificateHash"`
	CertificateID   string `json:"certificateId"` // "<mode>:" + first 12 hash hex chars
	IntegrityOK     bool   `json:"integrityOk"`
}

// Verdict is the safety gate's decision, handed to the caller by value.
type Verdict struct {
	Pass        bool          `json:"pass"`
	FirstFail   *CheckFailure `json:"firstFail"`
	Deltas      []Delta       `json:"deltas"`
	Certificate *Certificate  `json:"certificate"`
}

// TrainingTrace is one append-only trace row recorded on veto or on a
// successful adapter run. Seq is assigned by the store.
type TrainingTrace struct {
	Seq         uint64         `json:"seq"`
	TraceID     string         `json:"traceId"`
	TenantID    string         `json:"tenantId,omitempty"`
	Pass        bool           `json:"pass"`
	Deltas      []Delta        `json:"deltas"`
	FirstFail   *CheckFailure  `json:"firstFail,omitempty"`
	Certificate *Certificate   `json:"certificate,omitempty"`
	Metrics     map[string]any `json:"metrics,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
	Notes       []string       `json:"notes"`
	TS          time.Time      `json:"ts"`
}
