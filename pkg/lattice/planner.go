package lattice

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/latticelabs/helix/pkg/models"
)

// PlanStep is one declared step of a plan.
type PlanStep struct {
	ID     string         `json:"id"`
	Kind   string         `json:"kind"`
	Label  string         `json:"label,omitempty"`
	Params map[string]any `json:"params,omitempty"`
}

// PlanRequest asks the planner for a tool chain and knowledge context.
type PlanRequest struct {
	Question     string `json:"question"`
	SessionID    string `json:"sessionId,omitempty"`
	TraceID      string `json:"traceId,omitempty"`
	UseKnowledge bool   `json:"useKnowledge"`
}

// PlanResult is the planner's reply. TraceID keys the follow-up execute
// call; Knowledge carries project exports for context assembly.
type PlanResult struct {
	TraceID   string                          `json:"traceId"`
	Summary   string                          `json:"summary,omitempty"`
	Steps     []PlanStep                      `json:"steps,omitempty"`
	Knowledge []models.KnowledgeProjectExport `json:"knowledge,omitempty"`
}

// Planner calls the external plan capability.
type Planner struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewPlanner creates a planner client. An empty URL disables planning.
func NewPlanner(url string) *Planner {
	return &Planner{
		url:    url,
		client: &http.Client{}, // stage timeouts come from the caller's ctx
		logger: slog.With("component", "lattice.planner"),
	}
}

// Enabled reports whether a planner endpoint is configured.
func (p *Planner) Enabled() bool { return p.url != "" }

// Plan requests a plan. Refused knowledge context surfaces as an error
// that IsKnowledgeRejected classifies.
func (p *Planner) Plan(ctx context.Context, req PlanRequest) (*PlanResult, error) {
	var result PlanResult
	if err := postJSON(ctx, p.client, "planner", p.url, req, &result); err != nil {
		return nil, err
	}
	p.logger.Debug("plan received",
		"trace_id", result.TraceID,
		"steps", len(result.Steps),
		"knowledge_projects", len(result.Knowledge))
	return &result, nil
}
