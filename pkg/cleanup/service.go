// Package cleanup enforces the data retention policy.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/latticelabs/helix/pkg/config"
	"github.com/latticelabs/helix/pkg/store"
)

// sweepTimeout bounds a single sweep so a hung store cannot stall
// shutdown or pile up overlapping runs.
const sweepTimeout = 2 * time.Minute

// Service periodically deletes sessions and training-trace rows older
// than the configured retention window. With RetentionDays zero the
// loop never starts and everything is kept.
type Service struct {
	config *config.RetentionConfig
	store  store.Store

	now    func() time.Time
	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a new cleanup service over the given store.
func NewService(cfg *config.RetentionConfig, st store.Store) *Service {
	return &Service{
		config: cfg,
		store:  st,
		now:    time.Now,
	}
}

// Start launches the background sweep loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	if s.config.RetentionDays <= 0 {
		slog.Info("Retention sweeping disabled, keeping all data")
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("Cleanup service started",
		"retention_days", s.config.RetentionDays,
		"interval", s.config.SweepInterval)
}

// Stop signals the sweep loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	slog.Info("Cleanup service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.sweep()

	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep runs under its own context so a shutdown mid-sweep does not
// abort an in-flight delete.
func (s *Service) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	cutoff := s.now().UTC().AddDate(0, 0, -s.config.RetentionDays)
	removed, err := s.store.SweepOlderThan(ctx, cutoff)
	if err != nil {
		slog.Error("Retention sweep failed", "error", err)
		return
	}
	if removed > 0 {
		slog.Info("Retention sweep removed expired rows", "count", removed, "cutoff", cutoff)
	}
}
