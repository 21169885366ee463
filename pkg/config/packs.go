package config

import (
	"sort"
	"sync"
)

// Comparison operators for constraint checks.
const (
	OpLE = "<="
	OpLT = "<"
	OpGE = ">="
	OpGT = ">"
	OpEQ = "=="
	OpNE = "!="
)

// Check severities. HARD failures veto a run, SOFT failures are recorded
// as deltas only.
const (
	SeverityHard = "HARD"
	SeveritySoft = "SOFT"
)

// ConstraintCheck is one metric comparison inside a pack.
type ConstraintCheck struct {
	Key       string  `yaml:"key"`            // telemetry key, e.g. "tools.callCount"
	Op        string  `yaml:"op"`             // <=, <, >=, >, ==, !=
	Threshold float64 `yaml:"threshold"`      // compared against the observed value
	Severity  string  `yaml:"severity"`       // HARD or SOFT
	Note      string  `yaml:"note,omitempty"` // attached to the failure record
}

// IsValidOp checks if the operator is one of the supported comparisons.
func (c ConstraintCheck) IsValidOp() bool {
	switch c.Op {
	case OpLE, OpLT, OpGE, OpGT, OpEQ, OpNE:
		return true
	default:
		return false
	}
}

// ConstraintPack is a named, immutable set of checks evaluated by the
// adapter safety gate. Packs are resolved once at startup.
type ConstraintPack struct {
	ID     string            `yaml:"id"`
	Label  string            `yaml:"label,omitempty"`
	Checks []ConstraintCheck `yaml:"checks"`
}

// PackRegistry provides read-only lookup of constraint packs.
type PackRegistry struct {
	packs map[string]*ConstraintPack
}

// NewPackRegistry creates a registry from resolved packs.
func NewPackRegistry(packs map[string]*ConstraintPack) *PackRegistry {
	return &PackRegistry{packs: packs}
}

// Get retrieves a pack by ID.
func (r *PackRegistry) Get(id string) (*ConstraintPack, bool) {
	p, ok := r.packs[id]
	return p, ok
}

// Len returns the number of registered packs.
func (r *PackRegistry) Len() int {
	return len(r.packs)
}

// IDs returns all pack IDs in sorted order.
func (r *PackRegistry) IDs() []string {
	ids := make([]string, 0, len(r.packs))
	for id := range r.packs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

var (
	builtinPacks     map[string]*ConstraintPack
	builtinPacksOnce sync.Once
)

// GetBuiltinPacks returns the built-in constraint packs (thread-safe,
// lazy-initialized).
func GetBuiltinPacks() map[string]*ConstraintPack {
	builtinPacksOnce.Do(initBuiltinPacks)
	return builtinPacks
}

func initBuiltinPacks() {
	builtinPacks = map[string]*ConstraintPack{
		"repo-convergence": {
			ID:    "repo-convergence",
			Label: "Repository convergence gates",
			Checks: []ConstraintCheck{
				{Key: "convergence.driftScore", Op: OpLE, Threshold: 0.25, Severity: SeverityHard,
					Note: "generated artifacts drifted too far from the repo baseline"},
				{Key: "convergence.openFindings", Op: OpLE, Threshold: 12, Severity: SeveritySoft},
				{Key: "convergence.coverageRatio", Op: OpGE, Threshold: 0.6, Severity: SeveritySoft},
			},
		},
		"tool-use-budget": {
			ID:    "tool-use-budget",
			Label: "Tool invocation budget",
			Checks: []ConstraintCheck{
				{Key: "tools.callCount", Op: OpLE, Threshold: 64, Severity: SeverityHard,
					Note: "tool-chain exceeded its invocation budget"},
				{Key: "tools.totalDurationMs", Op: OpLE, Threshold: 120000, Severity: SeveritySoft},
				{Key: "tools.failureRatio", Op: OpLE, Threshold: 0.2, Severity: SeveritySoft},
			},
		},
		"audit-safety": {
			ID:    "audit-safety",
			Label: "Audit safety floor",
			Checks: []ConstraintCheck{
				{Key: "audit.unresolvedCriticals", Op: OpEQ, Threshold: 0, Severity: SeverityHard,
					Note: "unresolved critical findings block execution"},
				{Key: "audit.integrityFailures", Op: OpEQ, Threshold: 0, Severity: SeverityHard},
				{Key: "audit.staleReportHours", Op: OpLE, Threshold: 48, Severity: SeveritySoft},
			},
		},
	}
}
