package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/latticelabs/helix/pkg/bus"
	"github.com/latticelabs/helix/pkg/models"
)

// streamHeartbeat is the SSE keep-alive comment interval.
const streamHeartbeat = 15 * time.Second

// Mock stream frame-rate bounds, frames per second.
const (
	mockRateDefault = 4.0
	mockRateMax     = 50.0
)

// streamLogsHandler handles GET /api/tool-logs/stream: an SSE stream of
// tool-log events matching the sessionId/traceId filter. Buffered
// events are replayed first (capped by limit), then live events follow;
// a heartbeat comment keeps idle connections open through proxies.
func (s *Server) streamLogsHandler(c *gin.Context) {
	sub := s.bus.Subscribe(streamFilter(c))
	defer sub.Close()

	if s.metrics != nil {
		s.metrics.StreamOpened()
		defer s.metrics.StreamClosed()
	}

	writeSSEHeaders(c.Writer)

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	var missed uint64
	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return

		case evt, ok := <-sub.Events():
			if !ok {
				return
			}
			// A slow consumer loses its oldest pending events; tell it
			// how many so it can resync via /api/tool-logs/since.
			if m := sub.Missed(); m > missed {
				if err := writeSSEJSON(c.Writer, missedNotice{MissedEvents: m - missed}); err != nil {
					return
				}
				missed = m
			}
			if err := writeSSEJSON(c.Writer, evt); err != nil {
				return
			}

		case <-heartbeat.C:
			if _, err := io.WriteString(c.Writer, ": ping\n\n"); err != nil {
				return
			}
		}
		c.Writer.Flush()
	}
}

// sinceLogsHandler handles GET /api/tool-logs/since: a JSON catch-up
// read for clients resyncing after a dropped stream.
func (s *Server) sinceLogsHandler(c *gin.Context) {
	var afterSeq uint64
	if v := c.Query("seq"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
				Error:  models.ReasonInvalidRequest,
				Detail: "seq must be a non-negative integer",
			})
			return
		}
		afterSeq = n
	}

	max := 0
	if v := c.Query("max"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
				Error:  models.ReasonInvalidRequest,
				Detail: "max must be a non-negative integer",
			})
			return
		}
		max = n
	}

	events := s.bus.Since(afterSeq, streamFilter(c), max)
	if events == nil {
		events = []*models.ToolLogEvent{}
	}
	c.JSON(http.StatusOK, sinceResponse{Events: events, Count: len(events)})
}

// mockStreamHandler handles GET /api/tool-logs/mock-stream: synthesized
// frames for client development. Outside development the endpoint
// requires the mock gate or a loopback peer.
func (s *Server) mockStreamHandler(c *gin.Context) {
	if !s.mockStreamAllowed(c) {
		c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{
			Error: models.ReasonForbidden,
		})
		return
	}

	rate := mockRateDefault
	if v := c.Query("rate"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 || f > mockRateMax {
			c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
				Error:  models.ReasonInvalidRequest,
				Detail: fmt.Sprintf("rate must be in (0, %v]", mockRateMax),
			})
			return
		}
		rate = f
	}

	writeSSEHeaders(c.Writer)

	ticker := time.NewTicker(time.Duration(float64(time.Second) / rate))
	defer ticker.Stop()

	traceID := "mock:" + uuid.NewString()
	var seq uint64
	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			seq++
			evt := &models.ToolLogEvent{
				ID:      uuid.NewString(),
				Seq:     seq,
				TS:      time.Now().UTC(),
				TraceID: traceID,
				Tool:    bus.ToolMock,
				Stage:   models.StageChunk,
				Text:    fmt.Sprintf("mock frame %d", seq),
			}
			if err := writeSSEJSON(c.Writer, evt); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}

// mockStreamAllowed permits the mock stream in development, behind the
// explicit gate, or for loopback clients.
func (s *Server) mockStreamAllowed(c *gin.Context) bool {
	if s.cfg.IsDev() || s.cfg.Gates.AllowMockStream {
		return true
	}
	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return false
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// streamFilter parses the subscription filter from query params.
func streamFilter(c *gin.Context) bus.Filter {
	f := bus.Filter{
		SessionID: c.Query("sessionId"),
		TraceID:   c.Query("traceId"),
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			f.Limit = n
		}
	}
	return f
}

// writeSSEHeaders marks the response as an event stream and tells
// proxies not to buffer it. The status line goes out immediately so
// clients see the stream open before the first event.
func writeSSEHeaders(w gin.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache, no-transform")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	w.Flush()
}

// writeSSEJSON writes one data frame: `data: <JSON>\n\n`.
func writeSSEJSON(w io.Writer, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}
