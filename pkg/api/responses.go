package api

import "github.com/latticelabs/helix/pkg/models"

// errorResponse is the uniform error body. Error carries one of the
// stable reason strings from pkg/models; clients branch on it.
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// rateLimitedResponse is the 429 body for a limiter rejection.
type rateLimitedResponse struct {
	Error        string `json:"error"`
	RetryAfterMs int64  `json:"retryAfterMs"`
}

// concurrencyResponse is the 429 body for a guard or queue rejection.
type concurrencyResponse struct {
	Error    string `json:"error"`
	InFlight int    `json:"inFlight"`
}

// hashMismatchResponse carries the recomputed hash so clients can
// resync a corrupted session.
type hashMismatchResponse struct {
	Error     string `json:"error"`
	SessionID string `json:"sessionId"`
	Expected  string `json:"expected"`
}

// stopResponse is returned by POST /api/agi/ask/stop.
type stopResponse struct {
	Stopped bool   `json:"stopped"`
	TraceID string `json:"traceId,omitempty"`
}

// sinceResponse is the catch-up read of buffered tool-log events.
type sinceResponse struct {
	Events []*models.ToolLogEvent `json:"events"`
	Count  int                    `json:"count"`
}

// missedNotice tells a slow stream subscriber how many events were
// evicted before delivery; clients resync via /api/tool-logs/since.
type missedNotice struct {
	MissedEvents uint64 `json:"missedEvents"`
}

// traceExportResponse pages training-trace rows. NextSince feeds the
// next request's since parameter.
type traceExportResponse struct {
	Traces    []*models.TrainingTrace `json:"traces"`
	Count     int                     `json:"count"`
	NextSince uint64                  `json:"nextSince"`
}

// diagnosticsAccepted is the 202 body for async diagnostics. The
// provisional seed is only a correlation handle; the final seed arrives
// on the bus.
type diagnosticsAccepted struct {
	Status          string `json:"status"`
	TraceID         string `json:"traceId"`
	ProvisionalSeed string `json:"provisionalSeed"`
}

// diagnosticsReport is the synchronous diagnostics reply.
type diagnosticsReport struct {
	Status  string         `json:"status"`
	TraceID string         `json:"traceId"`
	Seed    string         `json:"seed"`
	Report  map[string]any `json:"report"`
}

// healthCheck is one component's health entry.
type healthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// healthResponse is returned by GET /healthz.
type healthResponse struct {
	Status  string                 `json:"status"`
	Version string                 `json:"version"`
	Checks  map[string]healthCheck `json:"checks"`
}

// versionResponse is returned by GET /api/version.
type versionResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}
