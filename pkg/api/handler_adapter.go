package api

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/latticelabs/helix/pkg/bus"
	"github.com/latticelabs/helix/pkg/models"
)

// adapterRunHandler handles POST /api/agi/adapter/run. Forbidden
// actuation is rejected before anything is evaluated or recorded; a
// safety veto is a 200 with verdict FAIL and no artifacts.
func (s *Server) adapterRunHandler(c *gin.Context) {
	var req models.AdapterRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
			Error:  models.ReasonInvalidRequest,
			Detail: err.Error(),
		})
		return
	}

	if req.TenantID == "" {
		tenant, err := s.tenantFor(c)
		if err != nil {
			s.mapError(c, err)
			return
		}
		req.TenantID = tenant
	}

	start := time.Now()
	resp, err := s.gate.Run(c.Request.Context(), &req)
	if err != nil {
		s.mapError(c, err)
		return
	}

	if s.metrics != nil {
		s.metrics.RecordSafetyRun(safetyMode(&req), resp.Pass)
	}
	s.pub.StageEnded("", resp.TraceID, bus.ToolAdapterRun, resp.Pass, start, "", map[string]any{
		"verdict":   resp.Verdict,
		"run_id":    resp.RunID,
		"deltas":    len(resp.Deltas),
		"artifacts": len(resp.Artifacts),
	})

	c.JSON(http.StatusOK, resp)
}

// diagnosticsHandler handles POST /api/agi/diagnostics. Synchronous
// calls return the final seed inline. async=true returns 202 with a
// provisional seed; the final seed is published on the bus when
// collection completes and never equals the provisional one.
func (s *Server) diagnosticsHandler(c *gin.Context) {
	traceID := "diag:" + uuid.NewString()

	if c.Query("async") == "true" {
		provisional := diagnosticsSeed()
		s.pub.StageStarted("", traceID, bus.ToolDiagnostics, map[string]any{
			"provisional_seed": provisional,
		})
		go s.runDiagnostics(traceID, provisional)
		c.JSON(http.StatusAccepted, diagnosticsAccepted{
			Status:          "accepted",
			TraceID:         traceID,
			ProvisionalSeed: provisional,
		})
		return
	}

	report, seed := s.collectDiagnostics()
	c.JSON(http.StatusOK, diagnosticsReport{
		Status:  "complete",
		TraceID: traceID,
		Seed:    seed,
		Report:  report,
	})
}

// runDiagnostics collects in the background and publishes the final
// seed. The provisional seed rides along so clients can correlate.
func (s *Server) runDiagnostics(traceID, provisional string) {
	start := time.Now()
	report, seed := s.collectDiagnostics()
	s.pub.StageEnded("", traceID, bus.ToolDiagnostics, true, start, "", map[string]any{
		"provisional_seed": provisional,
		"seed":             seed,
		"report":           report,
	})
}

// collectDiagnostics snapshots the backend's own components. External
// collaborators are deliberately absent; their health is theirs.
func (s *Server) collectDiagnostics() (map[string]any, string) {
	stats := s.bus.Stats()
	report := map[string]any{
		"uptime_s":        int(time.Since(s.startedAt).Seconds()),
		"env":             string(s.cfg.Server.Env),
		"queue_depth":     s.orch.QueueDepth(),
		"bus_published":   stats.Published,
		"bus_buffered":    stats.Buffered,
		"bus_dropped":     stats.Dropped,
		"bus_subscribers": stats.Subscribers,
		"limiter_keys":    s.apiLimiter.liveKeys(),
	}
	return report, diagnosticsSeed()
}

// diagnosticsSeed returns a short random hex seed.
func diagnosticsSeed() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// safetyMode labels an adapter run for metrics by which screens it
// passes through.
func safetyMode(req *models.AdapterRunRequest) string {
	switch {
	case req.RoboticsSafety != nil && req.ConstraintPackID != "":
		return "robotics+pack"
	case req.RoboticsSafety != nil:
		return "robotics"
	case req.ConstraintPackID != "":
		return "pack"
	default:
		return "actions"
	}
}
