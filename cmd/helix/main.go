// Helix backend server — answers repository questions through a local
// model runtime, streams tool-log events, and gates adapter runs behind
// the constraint checks.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/latticelabs/helix/pkg/api"
	"github.com/latticelabs/helix/pkg/ask"
	"github.com/latticelabs/helix/pkg/bus"
	"github.com/latticelabs/helix/pkg/cleanup"
	"github.com/latticelabs/helix/pkg/config"
	"github.com/latticelabs/helix/pkg/lattice"
	"github.com/latticelabs/helix/pkg/llm"
	"github.com/latticelabs/helix/pkg/metrics"
	"github.com/latticelabs/helix/pkg/retrieval"
	"github.com/latticelabs/helix/pkg/safety"
	"github.com/latticelabs/helix/pkg/store"
	"github.com/latticelabs/helix/pkg/version"
)

func main() {
	// Load the optional .env before anything reads the environment.
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded environment from .env")
	}

	ctx := context.Background()

	// 1. Initialize configuration
	cfg, err := config.Initialize(ctx)
	if err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting helix",
		"version", version.GitCommit,
		"port", cfg.Server.Port,
		"env", string(cfg.Server.Env))

	// 2. Open the session/trace store
	st, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		slog.Error("Failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// 3. Tool-log bus
	b := bus.New(
		bus.WithBufferSize(cfg.Bus.BufferSize),
		bus.WithOutboxSize(cfg.Bus.OutboxSize),
	)

	// 4. Ask pipeline: retrieval, generator, lattice collaborators
	assembler := retrieval.NewAssembler(cfg.Ask.Budgets)
	generator := llm.NewLocalClient(cfg.Generator)
	planner := lattice.NewPlanner(cfg.Lattice.PlannerURL)
	executor := lattice.NewExecutor(cfg.Lattice.ExecutorURL)
	search := lattice.NewSearch(cfg.Lattice.SearchURL)

	orch := ask.New(cfg.Ask, assembler, generator, planner, executor, search, bus.NewPublisher(b))
	orch.Start(ctx)

	// 5. Adapter safety gate
	gate := safety.NewGate(cfg.PackRegistry, cfg.Lattice.ReportsDir, st)

	// 6. Metrics
	m := metrics.New(nil)
	m.SetBuildInfo(version.AppName, version.GitCommit)
	m.ObserveQueueDepth(func() float64 { return float64(orch.QueueDepth()) })
	m.ObserveBus(
		func() float64 { return float64(b.Stats().Published) },
		func() float64 { return float64(b.Stats().Dropped) },
		func() float64 { return float64(b.Stats().Subscribers) },
	)

	// 7. Retention sweeper
	sweeper := cleanup.NewService(cfg.Retention, st)
	sweeper.Start(ctx)

	// 8. Start HTTP server (non-blocking)
	server := api.NewServer(cfg, orch, st, gate, b, m)
	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- err
		}
	}()

	// 9. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	// 10. Graceful shutdown: stop accepting requests, let the active ask
	// run finish, then detach stream subscribers.
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	orch.Shutdown()
	b.Shutdown()
	sweeper.Stop()

	slog.Info("Shutdown complete")
}

// openStore connects to Postgres when a database URL is configured and
// falls back to the in-memory store otherwise. The returned closer
// releases the connection pool.
func openStore(ctx context.Context, cfg *config.StoreConfig) (store.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		slog.Info("No database configured, using in-memory store")
		return store.NewMemory(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	pg := store.NewPostgres(pool)
	if err := pg.Init(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	slog.Info("Connected to PostgreSQL store")
	return pg, pool.Close, nil
}
