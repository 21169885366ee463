package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/latticelabs/helix/pkg/models"
)

const (
	defaultTraceExportLimit = 500
	maxTraceExportLimit     = 5000
)

// exportTracesHandler handles GET /api/training-trace/export. Rows are
// returned in seq order after the ?since= cursor; the response's
// nextSince is ready to use as the next page's cursor.
func (s *Server) exportTracesHandler(c *gin.Context) {
	if !s.cfg.Gates.EnableTraceAPI {
		c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{Error: models.ReasonForbidden})
		return
	}

	tenant, err := s.tenantFor(c)
	if err != nil {
		s.mapError(c, err)
		return
	}

	var since uint64
	if v := c.Query("since"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
				Error:  models.ReasonInvalidRequest,
				Detail: "since must be a non-negative integer",
			})
			return
		}
		since = n
	}

	limit := defaultTraceExportLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
				Error:  models.ReasonInvalidRequest,
				Detail: "limit must be a non-negative integer",
			})
			return
		}
		if n > 0 {
			limit = n
		}
	}
	if limit > maxTraceExportLimit {
		limit = maxTraceExportLimit
	}

	rows, err := s.store.ExportTracesSince(c.Request.Context(), tenant, since, limit)
	if err != nil {
		s.mapError(c, err)
		return
	}
	if rows == nil {
		rows = []*models.TrainingTrace{}
	}

	next := since
	if len(rows) > 0 {
		next = rows[len(rows)-1].Seq
	}
	c.JSON(http.StatusOK, traceExportResponse{
		Traces:    rows,
		Count:     len(rows),
		NextSince: next,
	})
}
