package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/latticelabs/helix/pkg/models"
)

// listSessionsHandler handles GET /api/chat/sessions. Sessions are
// scoped to the resolved owner; messages are included only on request.
func (s *Server) listSessionsHandler(c *gin.Context) {
	owner, err := s.ownerFor(c)
	if err != nil {
		s.mapError(c, err)
		return
	}

	var filters models.SessionFilters
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
				Error:  models.ReasonInvalidRequest,
				Detail: "limit must be a non-negative integer",
			})
			return
		}
		filters.Limit = n
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
				Error:  models.ReasonInvalidRequest,
				Detail: "offset must be a non-negative integer",
			})
			return
		}
		filters.Offset = n
	}
	filters.IncludeMessages = c.Query("includeMessages") == "true"

	list, err := s.store.ListSessions(c.Request.Context(), owner, filters)
	if err != nil {
		s.mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// getSessionHandler handles GET /api/chat/sessions/:id. The read
// verifies the session's integrity hash; a mismatch is a 409 carrying
// the recomputed hash.
func (s *Server) getSessionHandler(c *gin.Context) {
	owner, err := s.ownerFor(c)
	if err != nil {
		s.mapError(c, err)
		return
	}

	sess, err := s.store.GetSession(c.Request.Context(), owner, c.Param("id"))
	if err != nil {
		s.mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// upsertSessionHandler handles POST /api/chat/sessions: creates the
// session on first use and appends the request's messages. Existing
// messages are never rewritten.
func (s *Server) upsertSessionHandler(c *gin.Context) {
	owner, err := s.ownerFor(c)
	if err != nil {
		s.mapError(c, err)
		return
	}

	var req models.UpsertSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
			Error:  models.ReasonInvalidRequest,
			Detail: err.Error(),
		})
		return
	}

	sess, err := s.store.UpsertSession(c.Request.Context(), owner, req)
	if err != nil {
		s.mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// deleteSessionHandler handles DELETE /api/chat/sessions/:id.
func (s *Server) deleteSessionHandler(c *gin.Context) {
	owner, err := s.ownerFor(c)
	if err != nil {
		s.mapError(c, err)
		return
	}

	if err := s.store.DeleteSession(c.Request.Context(), owner, c.Param("id")); err != nil {
		s.mapError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
