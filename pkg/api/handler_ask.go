package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/latticelabs/helix/pkg/ask"
	"github.com/latticelabs/helix/pkg/models"
)

// askHandler handles POST /api/agi/ask. Successful replies are appended
// to the named chat session as a question/answer exchange.
func (s *Server) askHandler(c *gin.Context) {
	owner, err := s.ownerFor(c)
	if err != nil {
		s.mapError(c, err)
		return
	}

	var req models.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
			Error:  models.ReasonInvalidRequest,
			Detail: err.Error(),
		})
		return
	}

	start := time.Now()
	result, err := s.orch.Ask(c.Request.Context(), &req)
	if outcome := askOutcome(err); outcome != "" && s.metrics != nil {
		s.metrics.RecordAskRun(outcome, time.Since(start).Seconds())
	}
	if err != nil {
		s.mapError(c, err)
		return
	}

	if req.SessionID != "" {
		s.appendExchange(c.Request.Context(), owner, req.SessionID, req.Question, result.Text)
	}

	c.JSON(http.StatusOK, result)
}

// stopAskHandler handles POST /api/agi/ask/stop. An empty trace targets
// every active run; stopping a finished run is a no-op.
func (s *Server) stopAskHandler(c *gin.Context) {
	var req struct {
		TraceID string `json:"traceId"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
				Error:  models.ReasonInvalidRequest,
				Detail: err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, stopResponse{
		Stopped: s.orch.Stop(req.TraceID),
		TraceID: req.TraceID,
	})
}

// askOutcome labels a finished run for metrics. Rejections and client
// cancellations never started a run, so they are not counted as one.
func askOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ask.ErrQueueFull), errors.Is(err, context.Canceled):
		return ""
	default:
		return ask.ReasonOf(err)
	}
}

// appendExchange records the question/answer pair on the session. The
// reply is already generated, so append failures only log.
func (s *Server) appendExchange(ctx context.Context, owner, sessionID, question, answer string) {
	now := time.Now().UTC()
	_, err := s.store.UpsertSession(ctx, owner, models.UpsertSessionRequest{
		SessionID: sessionID,
		Messages: []models.ChatMessage{
			{Role: models.RoleUser, Content: question, TS: now},
			{Role: models.RoleAssistant, Content: answer, TS: now},
		},
	})
	if err != nil {
		s.logger.Warn("session append failed",
			"session_id", sessionID,
			"owner_id", owner,
			"error", err)
	}
}
