// Package safety gates adapter runs before any execution artifact is
// produced. A run passes three screens in order: the forbidden-actuation
// check (declared actions state intent but never command motors or
// actuators), the hard robotics checks, and the configured constraint
// pack. Verdicts carry deterministic certificates, and every evaluated
// run appends a training-trace row, vetoed or not.
package safety

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/latticelabs/helix/pkg/config"
	"github.com/latticelabs/helix/pkg/models"
	"github.com/latticelabs/helix/pkg/store"
)

// Gate evaluates adapter-run requests. Stateless aside from the resolved
// pack registry; safe for concurrent use.
type Gate struct {
	packs      *config.PackRegistry
	reportsDir string
	store      store.Store
	logger     *slog.Logger
}

// NewGate creates the safety gate. reportsDir is scanned for telemetry
// when a request names a constraint pack but carries no telemetry of its
// own.
func NewGate(packs *config.PackRegistry, reportsDir string, st store.Store) *Gate {
	return &Gate{
		packs:      packs,
		reportsDir: reportsDir,
		store:      st,
		logger:     slog.With("component", "safety.gate"),
	}
}

// Run evaluates one adapter-run request. Forbidden actuation returns a
// *BoundaryViolationError with nothing recorded; every other outcome,
// vetoed or passed, appends a training-trace row before returning.
// Artifacts are produced only on a passing verdict.
func (g *Gate) Run(ctx context.Context, req *models.AdapterRunRequest) (*models.AdapterRunResponse, error) {
	if err := CheckActuation(req.Actions); err != nil {
		return nil, err
	}

	traceID := req.TraceID
	if traceID == "" {
		traceID = "adapter:" + uuid.NewString()
	}

	pass := true
	var firstFail *models.CheckFailure
	var certificate *models.Certificate
	deltas := make([]models.Delta, 0, 8)
	notes := make([]string, 0, 2)
	var metrics map[string]any

	if req.RoboticsSafety != nil {
		verdict, err := EvaluateRobotics(req.RoboticsSafety)
		if err != nil {
			return nil, fmt.Errorf("robotics evaluation: %w", err)
		}
		pass = pass && verdict.Pass
		firstFail = verdict.FirstFail
		certificate = verdict.Certificate
		deltas = append(deltas, verdict.Deltas...)
		if req.RoboticsSafety.IntegrityOK != nil && !*req.RoboticsSafety.IntegrityOK {
			notes = append(notes, "caller reported integrity not ok")
		}
	}

	if req.ConstraintPackID != "" {
		pack, ok := g.packs.Get(req.ConstraintPackID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", config.ErrPackNotFound, req.ConstraintPackID)
		}
		telemetry := req.Telemetry
		if len(telemetry) == 0 {
			telemetry = CollectTelemetry(g.reportsDir, packKeys(pack))
			notes = append(notes, "telemetry auto-collected")
		}
		verdict, packNotes, err := EvaluatePack(pack, telemetry, req.Previous)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", pack.ID, err)
		}
		pass = pass && verdict.Pass
		if firstFail == nil {
			firstFail = verdict.FirstFail
		}
		if certificate == nil {
			certificate = verdict.Certificate
		}
		deltas = append(deltas, verdict.Deltas...)
		notes = append(notes, packNotes...)
		metrics = make(map[string]any, len(telemetry))
		for key, value := range telemetry {
			metrics[key] = value
		}
	}

	row := &models.TrainingTrace{
		TraceID:     traceID,
		TenantID:    req.TenantID,
		Pass:        pass,
		Deltas:      deltas,
		FirstFail:   firstFail,
		Certificate: certificate,
		Metrics:     metrics,
		Payload:     req.Premeditation,
		Notes:       notes,
	}
	if _, err := g.store.AppendTrace(ctx, row); err != nil {
		return nil, fmt.Errorf("append training trace: %w", err)
	}

	resp := &models.AdapterRunResponse{
		TraceID:     traceID,
		RunID:       uuid.NewString(),
		Verdict:     models.VerdictFail,
		Pass:        pass,
		FirstFail:   firstFail,
		Deltas:      deltas,
		Certificate: certificate,
		Artifacts:   []models.AdapterArtifact{},
	}
	if pass {
		resp.Verdict = models.VerdictPass
		resp.Artifacts = approvedArtifacts(req.Actions)
	}

	g.logger.Info("adapter run evaluated",
		"trace_id", traceID,
		"pass", pass,
		"deltas", len(deltas))
	return resp, nil
}

// approvedArtifacts turns the declared actions into pass-through
// execution artifacts. Vetoed runs never reach this.
func approvedArtifacts(actions []models.AdapterAction) []models.AdapterArtifact {
	artifacts := make([]models.AdapterArtifact, 0, len(actions))
	for _, action := range actions {
		artifacts = append(artifacts, models.AdapterArtifact{
			ID:   action.ID,
			Kind: action.Kind,
			Data: action.Params,
		})
	}
	return artifacts
}

func packKeys(pack *config.ConstraintPack) []string {
	keys := make([]string, 0, len(pack.Checks))
	for _, check := range pack.Checks {
		keys = append(keys, check.Key)
	}
	return keys
}
