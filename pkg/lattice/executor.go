package lattice

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// ExecuteRequest runs a planned tool chain. TraceID must be the planner's
// trace id.
type ExecuteRequest struct {
	TraceID string     `json:"traceId"`
	Steps   []PlanStep `json:"steps,omitempty"`
}

// StepOutput is one executed step's outcome.
type StepOutput struct {
	StepID string `json:"stepId"`
	OK     bool   `json:"ok"`
	Text   string `json:"text,omitempty"`
}

// ExecuteResult is the executor's reply.
type ExecuteResult struct {
	TraceID string       `json:"traceId"`
	Summary string       `json:"summary,omitempty"`
	Outputs []StepOutput `json:"outputs,omitempty"`
}

// Summarize renders a reply for the caller: the executor's own summary
// when present, otherwise the successful step outputs joined in order.
func (r *ExecuteResult) Summarize() string {
	if r.Summary != "" {
		return r.Summary
	}
	var parts []string
	for _, out := range r.Outputs {
		if out.OK && out.Text != "" {
			parts = append(parts, out.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Executor calls the external execute capability.
type Executor struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewExecutor creates an executor client. An empty URL disables execution.
func NewExecutor(url string) *Executor {
	return &Executor{
		url:    url,
		client: &http.Client{},
		logger: slog.With("component", "lattice.executor"),
	}
}

// Enabled reports whether an executor endpoint is configured.
func (e *Executor) Enabled() bool { return e.url != "" }

// Execute runs the planned steps.
func (e *Executor) Execute(ctx context.Context, req ExecuteRequest) (*ExecuteResult, error) {
	var result ExecuteResult
	if err := postJSON(ctx, e.client, "executor", e.url, req, &result); err != nil {
		return nil, err
	}
	e.logger.Debug("execution finished",
		"trace_id", result.TraceID,
		"outputs", len(result.Outputs))
	return &result, nil
}
