package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/latticelabs/helix/pkg/version"
)

const (
	healthStatusHealthy   = "healthy"
	healthStatusDegraded  = "degraded"
	healthStatusUnhealthy = "unhealthy"

	healthCheckTimeout = 5 * time.Second
)

// healthHandler handles GET /healthz. The store is the only hard
// dependency: an unreachable store makes the service unhealthy (503).
// A saturated ask queue degrades but keeps serving. The generator and
// lattice are deliberately not probed; their failures surface per-run.
func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := healthStatusHealthy
	checks := map[string]healthCheck{}

	if err := s.store.Ping(ctx); err != nil {
		status = healthStatusUnhealthy
		checks["store"] = healthCheck{Status: healthStatusUnhealthy, Message: err.Error()}
	} else {
		checks["store"] = healthCheck{Status: healthStatusHealthy}
	}

	if s.orch != nil {
		depth := s.orch.QueueDepth()
		queueCheck := healthCheck{Status: healthStatusHealthy}
		if limit := s.cfg.Ask.QueueLimit; limit > 0 && depth >= limit {
			queueCheck = healthCheck{
				Status:  healthStatusDegraded,
				Message: fmt.Sprintf("queue full: %d/%d", depth, limit),
			}
			if status == healthStatusHealthy {
				status = healthStatusDegraded
			}
		}
		checks["ask_queue"] = queueCheck
	}

	if s.bus != nil {
		stats := s.bus.Stats()
		checks["bus"] = healthCheck{
			Status:  healthStatusHealthy,
			Message: fmt.Sprintf("%d subscribers", stats.Subscribers),
		}
	}

	code := http.StatusOK
	if status == healthStatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, healthResponse{
		Status:  status,
		Version: version.GitCommit,
		Checks:  checks,
	})
}

// versionHandler handles GET /api/version.
func (s *Server) versionHandler(c *gin.Context) {
	c.JSON(http.StatusOK, versionResponse{
		Name:    version.AppName,
		Version: version.GitCommit,
	})
}
