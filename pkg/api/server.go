// Package api is the HTTP surface: the gin router, sliding-window rate
// limiting, per-route concurrency guarding, and the handlers for ask
// runs, tool-log streaming, adapter safety runs, chat sessions, and
// training-trace export.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/latticelabs/helix/pkg/ask"
	"github.com/latticelabs/helix/pkg/bus"
	"github.com/latticelabs/helix/pkg/config"
	"github.com/latticelabs/helix/pkg/metrics"
	"github.com/latticelabs/helix/pkg/safety"
	"github.com/latticelabs/helix/pkg/store"
)

// Server wires the HTTP surface to the backend components.
type Server struct {
	cfg     *config.Config
	orch    *ask.Orchestrator
	store   store.Store
	gate    *safety.Gate
	bus     *bus.Bus
	pub     *bus.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger

	apiLimiter *rateLimiter
	askLimiter *rateLimiter
	guard      *concurrencyGuard

	heartbeat time.Duration
	startedAt time.Time

	httpServer *http.Server
}

// NewServer creates the API server. The orchestrator, gate, and bus are
// owned by the caller; the server only routes to them.
func NewServer(cfg *config.Config, orch *ask.Orchestrator, st store.Store, gate *safety.Gate, b *bus.Bus, m *metrics.Metrics) *Server {
	s := &Server{
		cfg:       cfg,
		orch:      orch,
		store:     st,
		gate:      gate,
		bus:       b,
		pub:       bus.NewPublisher(b),
		metrics:   m,
		logger:    slog.With("component", "api.server"),
		heartbeat: streamHeartbeat,
		startedAt: time.Now(),
	}
	s.apiLimiter = newRateLimiter(cfg.RateLimit, cfg.RateLimit.APIMax, m)
	s.askLimiter = newRateLimiter(cfg.RateLimit, cfg.RateLimit.AskJobsMax, m)
	s.guard = newConcurrencyGuard(cfg.RateLimit.ConcurrencyMax, m)
	return s
}

// Router builds the route table. The AGI surface is registered only
// when its gate is on; the limiter covers /api and the concurrency
// guard covers ask submissions.
func (s *Server) Router() *gin.Engine {
	if !s.cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(recovery(s.logger), securityHeaders(), requestMetrics(s.metrics))

	r.GET("/healthz", s.healthHandler)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := r.Group("/api")
	api.Use(s.apiLimiter.middleware())

	api.GET("/version", s.versionHandler)

	logs := api.Group("/tool-logs")
	logs.GET("/stream", s.streamLogsHandler)
	logs.GET("/since", s.sinceLogsHandler)
	logs.GET("/mock-stream", s.mockStreamHandler)

	chat := api.Group("/chat")
	chat.GET("/sessions", s.listSessionsHandler)
	chat.POST("/sessions", s.upsertSessionHandler)
	chat.GET("/sessions/:id", s.getSessionHandler)
	chat.DELETE("/sessions/:id", s.deleteSessionHandler)

	api.GET("/training-trace/export", s.exportTracesHandler)

	if s.cfg.Gates.EnableAGI {
		agi := api.Group("/agi")
		agi.POST("/ask", s.askLimiter.middleware(), s.guard.middleware(), s.askHandler)
		agi.POST("/ask/stop", s.stopAskHandler)
		agi.POST("/adapter/run", s.adapterRunHandler)
		agi.POST("/diagnostics", s.diagnosticsHandler)
	}

	return r
}

// Start begins serving and blocks until the listener closes.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("http server listening", "addr", s.httpServer.Addr, "env", string(s.cfg.Server.Env))
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the sweep timers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.apiLimiter.stop()
	s.askLimiter.stop()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
