package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/latticelabs/helix/pkg/ask"
	"github.com/latticelabs/helix/pkg/config"
	"github.com/latticelabs/helix/pkg/models"
	"github.com/latticelabs/helix/pkg/safety"
	"github.com/latticelabs/helix/pkg/store"
)

// statusClientClosedRequest is the nginx convention for a client that
// went away before the response. Cancellation is not an error; nothing
// useful can be sent.
const statusClientClosedRequest = 499

// mapError maps service-layer errors to HTTP rejections carrying the
// stable reason strings of the error taxonomy.
func (s *Server) mapError(c *gin.Context, err error) {
	var hashErr *store.HashMismatchError
	var validErr *store.ValidationError
	var runErr *ask.RunError

	switch {
	case safety.IsBoundaryViolation(err):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
			Error: models.ReasonControllerBoundary,
		})

	case errors.Is(err, ask.ErrQueueFull):
		if s.metrics != nil {
			s.metrics.RecordRejection(models.ReasonConcurrencyExhausted)
		}
		inFlight := 0
		if s.orch != nil {
			inFlight = s.orch.QueueDepth()
		}
		c.AbortWithStatusJSON(http.StatusTooManyRequests, concurrencyResponse{
			Error:    models.ReasonConcurrencyExhausted,
			InFlight: inFlight,
		})

	case errors.As(err, &hashErr):
		c.AbortWithStatusJSON(http.StatusConflict, hashMismatchResponse{
			Error:     models.ReasonHashMismatch,
			SessionID: hashErr.SessionID,
			Expected:  hashErr.Expected,
		})

	case errors.Is(err, store.ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{
			Error: models.ReasonForbidden,
		})

	case errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, errorResponse{
			Error: models.ReasonNotFound,
		})

	case errors.Is(err, store.ErrInvalidInput), errors.As(err, &validErr),
		errors.Is(err, config.ErrPackNotFound):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
			Error:  models.ReasonInvalidRequest,
			Detail: err.Error(),
		})

	case errors.As(err, &runErr):
		s.respondRunError(c, runErr)

	case errors.Is(err, context.Canceled):
		c.AbortWithStatus(statusClientClosedRequest)

	default:
		s.logger.Error("unexpected service error", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{
			Error: "internal",
		})
	}
}

// respondRunError maps an ask run failure by its reason. Pipeline-stage
// failures are server errors; everything else is the caller's.
func (s *Server) respondRunError(c *gin.Context, runErr *ask.RunError) {
	switch runErr.Reason {
	case models.ReasonInvalidRequest:
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
			Error:  models.ReasonInvalidRequest,
			Detail: runErr.Error(),
		})
	case models.ReasonForbidden:
		c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{
			Error: models.ReasonForbidden,
		})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{
			Error: runErr.Reason,
		})
	}
}
