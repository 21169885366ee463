package models

// AdapterAction is one declared action in an adapter run. Actions declare
// intent only; direct motor or actuator commands are rejected before any
// artifact is produced.
type AdapterAction struct {
	ID     string         `json:"id"`
	Kind   string         `json:"kind"`
	Label  string         `json:"label,omitempty"`
	Params map[string]any `json:"params,omitempty"`
}

// RoboticsSafetyInput carries the observed values and limits for the four
// hard robotics checks.
type RoboticsSafetyInput struct {
	CollisionMargin    float64 `json:"collisionMargin"`
	CollisionMarginMin float64 `json:"collisionMarginMin"`
	TorqueUsage        float64 `json:"torqueUsage"`
	TorqueUsageMax     float64 `json:"torqueUsageMax"`
	SpeedUsage         float64 `json:"speedUsage"`
	SpeedUsageMax      float64 `json:"speedUsageMax"`
	StabilityMargin    float64 `json:"stabilityMargin"`
	StabilityMarginMin float64 `json:"stabilityMarginMin"`
	IntegrityOK        *bool   `json:"integrityOk,omitempty"` // defaulted true when absent
}

// AdapterRunRequest is the body of POST /api/agi/adapter/run.
type AdapterRunRequest struct {
	TraceID          string               `json:"traceId,omitempty"`
	TenantID         string               `json:"tenantId,omitempty"`
	Actions          []AdapterAction      `json:"actions"`
	Premeditation    map[string]any       `json:"premeditation,omitempty"`
	RoboticsSafety   *RoboticsSafetyInput `json:"roboticsSafety,omitempty"`
	ConstraintPackID string               `json:"constraintPackId,omitempty"`
	Telemetry        map[string]float64   `json:"telemetry,omitempty"`
	Previous         map[string]float64   `json:"previous,omitempty"` // delta baselines per telemetry key
	Overrides        map[string]any       `json:"overrides,omitempty"`
}

// AdapterArtifact is one produced execution artifact. Vetoed runs emit
// none.
type AdapterArtifact struct {
	ID   string         `json:"id"`
	Kind string         `json:"kind"`
	Data map[string]any `json:"data,omitempty"`
}

// AdapterRunResponse is the adapter endpoint's reply.
type AdapterRunResponse struct {
	TraceID     string            `json:"traceId"`
	RunID       string            `json:"runId"`
	Verdict     string            `json:"verdict"` // PASS or FAIL
	Pass        bool              `json:"pass"`
	FirstFail   *CheckFailure     `json:"firstFail"`
	Deltas      []Delta           `json:"deltas"`
	Certificate *Certificate      `json:"certificate"`
	Artifacts   []AdapterArtifact `json:"artifacts"`
}
