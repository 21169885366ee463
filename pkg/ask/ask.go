// Package ask runs the question pipeline: interpret the question,
// optionally plan and execute a tool chain through the lattice, build a
// token-budgeted prompt, stream a generation, and sanitize the reply.
// Every stage transition is published to the tool-log bus under the
// run's trace id.
//
// Runs are strictly serial. One run is active at a time; waiting
// submissions sit in a bounded FIFO and overflow is rejected, never
// dropped silently. Cancellation flows through the run's context: a
// canceled generation surfaces the streamed text captured so far
// instead of an error.
package ask

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/latticelabs/helix/pkg/bus"
	"github.com/latticelabs/helix/pkg/config"
	"github.com/latticelabs/helix/pkg/lattice"
	"github.com/latticelabs/helix/pkg/llm"
	"github.com/latticelabs/helix/pkg/models"
	"github.com/latticelabs/helix/pkg/retrieval"
)

// Orchestrator owns the ask queue and the single run loop.
type Orchestrator struct {
	cfg       *config.AskConfig
	assembler *retrieval.Assembler
	generator llm.Generator
	planner   *lattice.Planner
	executor  *lattice.Executor
	search    *lattice.Search
	pub       *bus.Publisher
	logger    *slog.Logger

	queue    chan *submission
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu     sync.Mutex
	active map[string]*activeRun
}

// submission is one queued ask. ctx belongs to the submitter; the run
// is abandoned if it dies while the ask is queued and canceled if it
// dies mid-run.
type submission struct {
	ctx      context.Context
	req      *models.AskRequest
	traceID  string
	depth    int // queue depth observed at submission
	queuedAt time.Time
	done     chan outcome
}

type outcome struct {
	result *models.AskResult
	err    error
}

// activeRun tracks an in-flight run so Stop can cancel it. userStop
// distinguishes a caller-initiated stop from every other abort.
type activeRun struct {
	cancel   context.CancelFunc
	userStop atomic.Bool
}

// New creates an orchestrator. Call Start before submitting asks.
func New(cfg *config.AskConfig, assembler *retrieval.Assembler, generator llm.Generator, planner *lattice.Planner, executor *lattice.Executor, search *lattice.Search, publisher *bus.Publisher) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		assembler: assembler,
		generator: generator,
		planner:   planner,
		executor:  executor,
		search:    search,
		pub:       publisher,
		logger:    slog.With("component", "ask.orchestrator"),
		queue:     make(chan *submission, cfg.QueueLimit),
		stopCh:    make(chan struct{}),
		active:    make(map[string]*activeRun),
	}
}

// Start launches the run loop.
func (o *Orchestrator) Start(ctx context.Context) {
	o.wg.Add(1)
	go o.loop(ctx)
	o.logger.Info("ask orchestrator started", "queue_limit", cap(o.queue))
}

// Shutdown stops the run loop after the active run finishes. Safe to
// call more than once; queued submissions that never ran see their
// submitter context expire.
func (o *Orchestrator) Shutdown() {
	o.stopOnce.Do(func() { close(o.stopCh) })
	o.wg.Wait()
	o.logger.Info("ask orchestrator stopped")
}

func (o *Orchestrator) loop(ctx context.Context) {
	defer o.wg.Done()
	for {
		select {
		case <-o.stopCh:
			return
		case <-ctx.Done():
			return
		case sub := <-o.queue:
			o.process(sub)
		}
	}
}

// QueueDepth reports how many submissions are waiting to run.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Ask queues one question and blocks until its run completes or ctx
// expires. Submissions run in FIFO order; a full queue fails fast with
// ErrQueueFull.
func (o *Orchestrator) Ask(ctx context.Context, req *models.AskRequest) (*models.AskResult, error) {
	if req == nil || strings.TrimSpace(req.Question) == "" {
		return nil, &RunError{Reason: models.ReasonInvalidRequest, Stage: bus.ToolAskStart, Err: errors.New("question is required")}
	}
	if req.Mode != "" && req.Mode != models.AskModeGrounded && req.Mode != models.AskModeExecute {
		return nil, &RunError{Reason: models.ReasonInvalidRequest, Stage: bus.ToolAskStart, Err: fmt.Errorf("unknown mode %q", req.Mode)}
	}

	traceID := req.TraceID
	if traceID == "" {
		traceID = "ask:" + uuid.NewString()
	}

	sub := &submission{
		ctx:      ctx,
		req:      req,
		traceID:  traceID,
		depth:    len(o.queue),
		queuedAt: time.Now(),
		done:     make(chan outcome, 1),
	}
	select {
	case o.queue <- sub:
	default:
		return nil, ErrQueueFull
	}

	select {
	case out := <-sub.done:
		return out.result, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stop cancels a run as a user-initiated stop and reports whether any
// run was canceled. An empty traceID targets every active run;
// stopping an unknown or finished run is a no-op.
func (o *Orchestrator) Stop(traceID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	stopped := false
	for id, run := range o.active {
		if traceID != "" && id != traceID {
			continue
		}
		run.userStop.Store(true)
		run.cancel()
		stopped = true
	}
	return stopped
}

func (o *Orchestrator) register(traceID string, cancel context.CancelFunc) *activeRun {
	run := &activeRun{cancel: cancel}
	o.mu.Lock()
	o.active[traceID] = run
	o.mu.Unlock()
	return run
}

func (o *Orchestrator) unregister(traceID string) {
	o.mu.Lock()
	delete(o.active, traceID)
	o.mu.Unlock()
}
