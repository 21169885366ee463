package ask

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/latticelabs/helix/pkg/bus"
	"github.com/latticelabs/helix/pkg/lattice"
	"github.com/latticelabs/helix/pkg/llm"
	"github.com/latticelabs/helix/pkg/models"
	"github.com/latticelabs/helix/pkg/retrieval"
)

// stoppedReply is the whole reply when the caller stopped a run before
// any usable text streamed.
const stoppedReply = "Generation stopped."

// searchConcurrency caps parallel lattice search queries per run.
const searchConcurrency = 4

// runState carries one submission through its stages.
type runState struct {
	req          *models.AskRequest
	traceID      string
	mode         string
	useKnowledge bool
	useSearch    bool
	system       string
	format       retrieval.AnswerFormat
	sources      []string
	debug        *models.AskDebug
	run          *activeRun
	aborted      bool
	startedAt    time.Time
}

func (o *Orchestrator) process(sub *submission) {
	// The submitter may have given up while this ask sat in the queue.
	if err := sub.ctx.Err(); err != nil {
		sub.done <- outcome{err: err}
		return
	}

	runCtx, cancel := context.WithCancel(sub.ctx)
	defer cancel()

	st := &runState{
		req:     sub.req,
		traceID: sub.traceID,
		mode:    sub.req.Mode,
		debug: &models.AskDebug{
			PromptBudget: o.cfg.Budgets.PromptBudget(),
			QueueDepth:   sub.depth,
		},
		startedAt: time.Now(),
	}
	if st.mode == "" {
		st.mode = string(o.cfg.Mode)
	}
	st.useKnowledge = sub.req.UseKnowledge == nil || *sub.req.UseKnowledge
	st.useSearch = o.cfg.SearchFallback && o.search.Enabled() &&
		(sub.req.UseSearchFallback == nil || *sub.req.UseSearchFallback)

	st.run = o.register(st.traceID, cancel)
	defer o.unregister(st.traceID)

	o.pub.StageNote(st.req.SessionID, st.traceID, bus.ToolAskStart, "", map[string]any{
		"mode":        st.mode,
		"queue_depth": sub.depth,
		"queued_ms":   time.Since(sub.queuedAt).Milliseconds(),
	})

	result, err := o.runStages(runCtx, st)
	if err != nil {
		reason := ReasonOf(err)
		o.pub.StageEnded(st.req.SessionID, st.traceID, bus.ToolAskEnd, false, st.startedAt, err.Error(), map[string]any{"reason": reason})
		o.logger.Warn("ask failed", "trace_id", st.traceID, "reason", reason, "error", err)
		sub.done <- outcome{err: err}
		return
	}

	o.pub.StageEnded(st.req.SessionID, st.traceID, bus.ToolAskEnd, true, st.startedAt, "", map[string]any{
		"aborted":           st.aborted,
		"streamed_fallback": result.StreamedFallback,
	})
	o.logger.Info("ask complete",
		"trace_id", st.traceID,
		"intent", st.debug.Intent,
		"aborted", st.aborted,
		"duration_ms", time.Since(st.startedAt).Milliseconds(),
		"chars", len(result.Text))
	sub.done <- outcome{result: result}
}

func (o *Orchestrator) runStages(ctx context.Context, st *runState) (*models.AskResult, error) {
	o.interpret(st)

	// Plan when the lattice can contribute: execute mode needs a tool
	// chain, grounded mode wants knowledge context.
	var plan *lattice.PlanResult
	needPlan := o.planner.Enabled() && st.grounded() &&
		(st.mode == models.AskModeExecute || st.useKnowledge)
	if needPlan {
		var err error
		plan, err = o.plan(ctx, st)
		if err != nil {
			// A stage timeout is a plan failure; only the run context
			// dying is an abort.
			if ctx.Err() != nil {
				return o.abortedResult(st, ""), nil
			}
			return nil, err
		}
	}

	if st.mode == models.AskModeExecute && o.executor.Enabled() {
		reply, err := o.execute(ctx, st, plan)
		if err != nil {
			if ctx.Err() != nil {
				return o.abortedResult(st, ""), nil
			}
			return nil, err
		}
		return o.emitReply(st, reply, false), nil
	}
	if st.mode == models.AskModeExecute {
		// No executor configured; fall through and answer grounded.
		o.logger.Warn("execute mode without executor, answering grounded", "trace_id", st.traceID)
	}

	knowledge := o.gatherKnowledge(ctx, st, plan)
	if ctx.Err() != nil {
		return o.abortedResult(st, ""), nil
	}
	res := o.buildContext(st, knowledge, o.cfg.Budgets.PromptBudget(), bus.ToolAskBuildContext)

	maxTokens := st.req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = o.cfg.Budgets.OutputTokens
	}

	raw, genErr := o.generate(ctx, st, res.Plan.Text(), maxTokens)
	if genErr != nil && !canceled(genErr) && ctx.Err() == nil && llm.IsOverflow(genErr) {
		// One retry with a reduced budget; a second overflow is final.
		st.debug.OverflowRetryApplied = true
		reduced := o.cfg.Budgets.ReducedPromptBudget()
		res = o.buildContext(st, knowledge, reduced, bus.ToolAskReduceContext)
		raw, genErr = o.generate(ctx, st, res.Plan.Text(), maxTokens)
	}

	if genErr != nil {
		if canceled(genErr) || ctx.Err() != nil {
			return o.abortedResult(st, raw), nil
		}
		if llm.IsOverflow(genErr) {
			return nil, &RunError{Reason: models.ReasonContextOverflow, Stage: bus.ToolAskGenerate, Err: genErr}
		}
		if raw != "" {
			// The stream died mid-reply; captured text is still a reply.
			return o.emitReply(st, raw, true), nil
		}
		return nil, &RunError{Reason: models.ReasonGenerationFailed, Stage: bus.ToolAskGenerate, Err: genErr}
	}
	return o.emitReply(st, raw, false), nil
}

func (st *runState) grounded() bool { return st.debug.Intent == intentGrounded }

func (o *Orchestrator) interpret(st *runState) {
	st.debug.Intent = intentGeneral
	st.system = retrieval.SystemPromptGeneral
	if isRepoGrounded(st.req.Question) {
		st.debug.Intent = intentGrounded
		st.system = retrieval.SystemPromptGrounded
	}
	st.format = retrieval.DecideFormat(st.req.Question)
	st.debug.Format = formatLabel(st.format)

	o.pub.StageNote(st.req.SessionID, st.traceID, bus.ToolAskInterpret, "", map[string]any{
		"intent": st.debug.Intent,
		"format": st.debug.Format,
	})
}

func (o *Orchestrator) plan(ctx context.Context, st *runState) (*lattice.PlanResult, error) {
	planCtx, cancel := context.WithTimeout(ctx, o.cfg.PlanTimeout)
	defer cancel()

	started := time.Now()
	o.pub.StageStarted(st.req.SessionID, st.traceID, bus.ToolAskPlan, map[string]any{"use_knowledge": st.useKnowledge})

	req := lattice.PlanRequest{
		Question:     st.req.Question,
		SessionID:    st.req.SessionID,
		TraceID:      st.traceID,
		UseKnowledge: st.useKnowledge,
	}
	result, err := o.planner.Plan(planCtx, req)
	if err != nil && req.UseKnowledge && lattice.IsKnowledgeRejected(err) {
		st.debug.PlanRetriedNoContext = true
		req.UseKnowledge = false
		result, err = o.planner.Plan(planCtx, req)
	}
	if err != nil {
		o.pub.StageEnded(st.req.SessionID, st.traceID, bus.ToolAskPlan, false, started, err.Error(), nil)
		return nil, &RunError{Reason: models.ReasonPlanFailed, Stage: bus.ToolAskPlan, Err: err}
	}

	o.pub.StageEnded(st.req.SessionID, st.traceID, bus.ToolAskPlan, true, started, result.Summary, map[string]any{
		"steps":                     len(result.Steps),
		"knowledge_projects":        len(result.Knowledge),
		"retried_without_knowledge": st.debug.PlanRetriedNoContext,
	})
	return result, nil
}

// execute runs the planned tool chain under the trace id the planner
// assigned, so lattice-side logs line up with ours.
func (o *Orchestrator) execute(ctx context.Context, st *runState, plan *lattice.PlanResult) (string, error) {
	execCtx, cancel := context.WithTimeout(ctx, o.cfg.ExecuteTimeout)
	defer cancel()

	req := lattice.ExecuteRequest{TraceID: st.traceID}
	if plan != nil {
		if plan.TraceID != "" {
			req.TraceID = plan.TraceID
		}
		req.Steps = plan.Steps
	}

	started := time.Now()
	o.pub.StageStarted(st.req.SessionID, st.traceID, bus.ToolAskExecute, map[string]any{"steps": len(req.Steps)})

	result, err := o.executor.Execute(execCtx, req)
	if err != nil {
		o.pub.StageEnded(st.req.SessionID, st.traceID, bus.ToolAskExecute, false, started, err.Error(), nil)
		return "", &RunError{Reason: models.ReasonExecuteFailed, Stage: bus.ToolAskExecute, Err: err}
	}

	summary := result.Summarize()
	o.pub.StageEnded(st.req.SessionID, st.traceID, bus.ToolAskExecute, true, started, summary, map[string]any{"outputs": len(result.Outputs)})
	return summary, nil
}

// gatherKnowledge merges planner knowledge with lattice search results,
// planner files first, deduplicated by path. The search fan-out is the
// only blocking part of context building and is bounded by the context
// timeout; queries that miss it contribute nothing.
func (o *Orchestrator) gatherKnowledge(ctx context.Context, st *runState, plan *lattice.PlanResult) []models.KnowledgeFile {
	var files []models.KnowledgeFile
	if plan != nil {
		for _, project := range plan.Knowledge {
			files = append(files, project.Files...)
		}
	}
	if !st.useSearch || !st.grounded() {
		return files
	}

	searchCtx, cancel := context.WithTimeout(ctx, o.cfg.ContextTimeout)
	defer cancel()
	return mergeFiles(files, o.searchLattice(searchCtx, st))
}

func (o *Orchestrator) searchLattice(ctx context.Context, st *runState) []models.KnowledgeFile {
	queries := retrieval.DeriveQueries(st.req.Question, o.cfg.SearchQueryLimit)
	st.debug.SearchQueries = queries
	if len(queries) == 0 {
		return nil
	}

	// Indexed results keep the merge deterministic in query order.
	results := make([][]models.KnowledgeFile, len(queries))
	g, searchCtx := errgroup.WithContext(ctx)
	g.SetLimit(searchConcurrency)
	for i, query := range queries {
		i, query := i, query
		g.Go(func() error {
			files, err := o.search.Query(searchCtx, query, o.cfg.Budgets.ContextFiles)
			if err != nil {
				// Best effort: a failed query contributes nothing.
				o.logger.Debug("lattice search failed", "trace_id", st.traceID, "query", query, "error", err)
				return nil
			}
			results[i] = files
			return nil
		})
	}
	_ = g.Wait()

	var merged []models.KnowledgeFile
	for _, files := range results {
		merged = append(merged, files...)
	}
	return merged
}

// mergeFiles appends extra files whose paths are not already present.
func mergeFiles(base, extra []models.KnowledgeFile) []models.KnowledgeFile {
	seen := make(map[string]struct{}, len(base))
	for _, f := range base {
		seen[f.Path] = struct{}{}
	}
	for _, f := range extra {
		if _, dup := seen[f.Path]; dup {
			continue
		}
		seen[f.Path] = struct{}{}
		base = append(base, f)
	}
	return base
}

// buildContext assembles the prompt under the given budget. Assembly is
// pure computation; the tool name distinguishes the first build from
// the reduced-budget rebuild.
func (o *Orchestrator) buildContext(st *runState, knowledge []models.KnowledgeFile, budget int, tool string) *retrieval.Result {
	started := time.Now()
	res := o.assembler.Build(retrieval.Input{
		Question:     st.req.Question,
		Resonance:    st.req.Resonance,
		Knowledge:    knowledge,
		RequireMatch: true,
		PromptBudget: budget,
	})

	st.debug.PromptTokens = retrieval.EstimateTokens(res.Plan.Text())
	st.debug.PromptBudget = budget
	st.debug.SelectedFiles = res.SelectedPaths
	st.sources = res.Plan.Sources

	o.pub.StageNote(st.req.SessionID, st.traceID, tool, "", map[string]any{
		"prompt_tokens": st.debug.PromptTokens,
		"budget":        budget,
		"files":         res.FileCount,
		"patch_id":      res.PatchID,
		"duration_ms":   time.Since(started).Milliseconds(),
	})
	return res
}

// generate streams the completion, republishing every chunk on the bus
// and accumulating the text. On failure the captured text is returned
// alongside the error so abort paths can fall back to it.
func (o *Orchestrator) generate(ctx context.Context, st *runState, prompt string, maxTokens int) (string, error) {
	genCtx, cancel := context.WithTimeout(ctx, o.cfg.GenerateTimeout)
	defer cancel()

	started := time.Now()
	o.pub.StageStarted(st.req.SessionID, st.traceID, bus.ToolAskGenerate, map[string]any{"max_tokens": maxTokens})

	chunks, errs := o.generator.Generate(genCtx, llm.Request{
		TraceID:   st.traceID,
		System:    st.system,
		Prompt:    prompt,
		MaxTokens: maxTokens,
	})

	var text strings.Builder
	for chunk := range chunks {
		if chunk.Text == "" {
			continue
		}
		text.WriteString(chunk.Text)
		o.pub.StreamDelta(st.req.SessionID, st.traceID, chunk.Text)
	}
	if err := <-errs; err != nil {
		o.pub.StageEnded(st.req.SessionID, st.traceID, bus.ToolAskGenerate, false, started, err.Error(), map[string]any{"chars": text.Len()})
		return text.String(), err
	}

	o.pub.StageEnded(st.req.SessionID, st.traceID, bus.ToolAskGenerate, true, started, "", map[string]any{"chars": text.Len()})
	return text.String(), nil
}

func (o *Orchestrator) emitReply(st *runState, raw string, streamed bool) *models.AskResult {
	text := retrieval.CleanAnswer(raw, st.req.Question, st.format)
	if text == "" {
		text = strings.TrimSpace(raw)
	}

	result := &models.AskResult{
		Text:             text,
		Envelope:         retrieval.ParseEnvelope(text),
		Sources:          st.sources,
		TraceID:          st.traceID,
		StreamedFallback: streamed,
	}
	if result.Sources == nil {
		result.Sources = []string{}
	}
	if st.req.Debug {
		result.Debug = st.debug
	}

	o.pub.StageNote(st.req.SessionID, st.traceID, bus.ToolAskEmitReply, text, map[string]any{
		"sources":           len(result.Sources),
		"streamed_fallback": streamed,
	})
	return result
}

// abortedResult closes out a canceled run. A user-initiated stop always
// replies "Generation stopped."; any other abort falls back to the
// streamed text captured before cancellation when there is any.
func (o *Orchestrator) abortedResult(st *runState, partial string) *models.AskResult {
	st.aborted = true
	userStop := st.run.userStop.Load()
	o.pub.StageNote(st.req.SessionID, st.traceID, bus.ToolAskAborted, "", map[string]any{"user_stop": userStop})

	if userStop || strings.TrimSpace(partial) == "" {
		result := &models.AskResult{Text: stoppedReply, Sources: []string{}, TraceID: st.traceID}
		if st.sources != nil {
			result.Sources = st.sources
		}
		if st.req.Debug {
			result.Debug = st.debug
		}
		o.pub.StageNote(st.req.SessionID, st.traceID, bus.ToolAskEmitReply, result.Text, map[string]any{"user_stop": userStop})
		return result
	}
	return o.emitReply(st, partial, true)
}

// canceled reports whether err is a context cancellation rather than a
// generator failure. Checked before IsOverflow: a deadline error's text
// ("context deadline exceeded") would otherwise read as an overflow and
// trigger a pointless rebuild.
func canceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func formatLabel(format retrieval.AnswerFormat) string {
	if format.Kind == retrieval.FormatSteps && format.StageTags {
		return "steps+tags"
	}
	return format.Kind
}
