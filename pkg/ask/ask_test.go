package ask

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticelabs/helix/pkg/bus"
	"github.com/latticelabs/helix/pkg/config"
	"github.com/latticelabs/helix/pkg/lattice"
	"github.com/latticelabs/helix/pkg/llm"
	"github.com/latticelabs/helix/pkg/llm/llmtest"
	"github.com/latticelabs/helix/pkg/models"
	"github.com/latticelabs/helix/pkg/retrieval"
)

type harness struct {
	orch *Orchestrator
	bus  *bus.Bus
	gen  *llmtest.Scripted
}

func newHarness(t *testing.T, cfg *config.AskConfig, gen *llmtest.Scripted, plannerURL, executorURL, searchURL string) *harness {
	t.Helper()
	b := bus.New()
	orch := New(cfg, retrieval.NewAssembler(cfg.Budgets), gen,
		lattice.NewPlanner(plannerURL), lattice.NewExecutor(executorURL), lattice.NewSearch(searchURL),
		bus.NewPublisher(b))
	orch.Start(context.Background())
	t.Cleanup(func() {
		orch.Shutdown()
		b.Shutdown()
	})
	return &harness{orch: orch, bus: b, gen: gen}
}

func testConfig() *config.AskConfig {
	cfg := config.DefaultAskConfig()
	cfg.PlanTimeout = 5 * time.Second
	cfg.ExecuteTimeout = 5 * time.Second
	cfg.GenerateTimeout = 5 * time.Second
	return cfg
}

// tools returns the bus event tool names for one trace, oldest first.
func (h *harness) tools(traceID string) []string {
	events := h.bus.Since(0, bus.Filter{TraceID: traceID}, 0)
	tools := make([]string, 0, len(events))
	for _, evt := range events {
		tools = append(tools, evt.Tool)
	}
	return tools
}

func (h *harness) eventsFor(traceID, tool string) []*models.ToolLogEvent {
	var out []*models.ToolLogEvent
	for _, evt := range h.bus.Since(0, bus.Filter{TraceID: traceID}, 0) {
		if evt.Tool == tool {
			out = append(out, evt)
		}
	}
	return out
}

func TestAsk_GroundedHappyPath(t *testing.T) {
	cfg := testConfig()
	gen := llmtest.NewScripted().AddText("FINAL: The radius comes from the shell solver.")
	h := newHarness(t, cfg, gen, "", "", "")

	result, err := h.orch.Ask(context.Background(), &models.AskRequest{
		Question: "How does the warp module pick the bubble radius?",
		Debug:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, "The radius comes from the shell solver.", result.Text)
	assert.True(t, strings.HasPrefix(result.TraceID, "ask:"))
	assert.False(t, result.StreamedFallback)
	assert.Equal(t, []string{}, result.Sources)
	assert.Nil(t, result.Envelope)

	require.NotNil(t, result.Debug)
	assert.Equal(t, "grounded", result.Debug.Intent)
	assert.Equal(t, 0, result.Debug.QueueDepth)
	assert.Positive(t, result.Debug.PromptTokens)
	assert.Equal(t, cfg.Budgets.PromptBudget(), result.Debug.PromptBudget)
	assert.False(t, result.Debug.OverflowRetryApplied)

	reqs := gen.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, retrieval.SystemPromptGrounded, reqs[0].System)
	assert.Equal(t, result.TraceID, reqs[0].TraceID)
	assert.Equal(t, cfg.Budgets.OutputTokens, reqs[0].MaxTokens)
	assert.Contains(t, reqs[0].Prompt, "How does the warp module pick the bubble radius?")

	assert.Equal(t, []string{
		bus.ToolAskStart,
		bus.ToolAskInterpret,
		bus.ToolAskBuildContext,
		bus.ToolAskGenerate,
		bus.ToolAskStream,
		bus.ToolAskGenerate,
		bus.ToolAskEmitReply,
		bus.ToolAskEnd,
	}, h.tools(result.TraceID))

	ends := h.eventsFor(result.TraceID, bus.ToolAskEnd)
	require.Len(t, ends, 1)
	require.NotNil(t, ends[0].OK)
	assert.True(t, *ends[0].OK)
	assert.Equal(t, false, ends[0].Meta["aborted"])
}

func TestAsk_GeneralQuestionSkipsLattice(t *testing.T) {
	var plannerCalls, searchCalls atomic.Int32
	planner := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		plannerCalls.Add(1)
		_ = json.NewEncoder(w).Encode(lattice.PlanResult{TraceID: "unexpected"})
	}))
	defer planner.Close()
	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		searchCalls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"files": []models.KnowledgeFile{}})
	}))
	defer search.Close()

	gen := llmtest.NewScripted().AddText("Rayleigh scattering of sunlight.")
	h := newHarness(t, testConfig(), gen, planner.URL, "", search.URL)

	result, err := h.orch.Ask(context.Background(), &models.AskRequest{
		Question: "Why is the sky blue at noon?",
		Debug:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, "Rayleigh scattering of sunlight.", result.Text)
	assert.Equal(t, "general", result.Debug.Intent)
	assert.Empty(t, result.Debug.SearchQueries)
	assert.Equal(t, retrieval.SystemPromptGeneral, gen.Requests()[0].System)
	assert.Zero(t, plannerCalls.Load())
	assert.Zero(t, searchCalls.Load())
}

func TestAsk_PlannerKnowledgeMergesWithSearch(t *testing.T) {
	planner := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req lattice.PlanRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.UseKnowledge)
		_ = json.NewEncoder(w).Encode(lattice.PlanResult{
			TraceID: "lattice-plan-1",
			Summary: "inspect the warp module",
			Knowledge: []models.KnowledgeProjectExport{{
				Project: "helix-desktop",
				Files: []models.KnowledgeFile{{
					Path:    "warp/warp-module.ts",
					Preview: "export function bubbleRadius(theta: number) { return shellProfile(theta); }",
				}},
			}},
		})
	}))
	defer planner.Close()

	var searchCalls atomic.Int32
	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		searchCalls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"files": []models.KnowledgeFile{
			{Path: "desktop/desktop.tsx", Preview: "const pill = useWarpPill(bubble);"},
			{Path: "warp/warp-module.ts", Preview: "duplicate of the planner file"},
		}})
	}))
	defer search.Close()

	gen := llmtest.NewScripted().AddText("FINAL: The desktop pill reads the bubble radius from warp-module.")
	h := newHarness(t, testConfig(), gen, planner.URL, "", search.URL)

	result, err := h.orch.Ask(context.Background(), &models.AskRequest{
		Question: "Where does the warp module size the bubble for the desktop pill?",
		Debug:    true,
	})
	require.NoError(t, err)

	require.NotNil(t, result.Debug)
	assert.NotEmpty(t, result.Debug.SearchQueries)
	assert.LessOrEqual(t, len(result.Debug.SearchQueries), config.DefaultSearchQueryLimit)
	assert.Positive(t, searchCalls.Load())

	// duplicate path collapses; both remaining files are selected and cited
	assert.ElementsMatch(t, []string{"warp/warp-module.ts", "desktop/desktop.tsx"}, result.Debug.SelectedFiles)
	assert.ElementsMatch(t, []string{"search: warp/warp-module.ts", "search: desktop/desktop.tsx"}, result.Sources)

	prompt := gen.Requests()[0].Prompt
	assert.Contains(t, prompt, "warp/warp-module.ts")
	assert.Contains(t, prompt, "bubbleRadius")
}

func TestAsk_PlanRetriedWithoutKnowledge(t *testing.T) {
	var mu sync.Mutex
	var calls []lattice.PlanRequest
	planner := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req lattice.PlanRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		calls = append(calls, req)
		n := len(calls)
		mu.Unlock()
		if n == 1 {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"knowledge_projects_disabled"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(lattice.PlanResult{TraceID: "plan-2", Summary: "planned without knowledge"})
	}))
	defer planner.Close()

	gen := llmtest.NewScripted().AddText("FINAL: Sessions are stored in Postgres.")
	h := newHarness(t, testConfig(), gen, planner.URL, "", "")

	result, err := h.orch.Ask(context.Background(), &models.AskRequest{
		Question: "Where are chat sessions stored?",
		Debug:    true,
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, calls, 2)
	assert.True(t, calls[0].UseKnowledge)
	assert.False(t, calls[1].UseKnowledge)
	assert.True(t, result.Debug.PlanRetriedNoContext)
}

func TestAsk_PlanFailure(t *testing.T) {
	planner := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "lattice down", http.StatusBadGateway)
	}))
	defer planner.Close()

	gen := llmtest.NewScripted()
	h := newHarness(t, testConfig(), gen, planner.URL, "", "")

	_, err := h.orch.Ask(context.Background(), &models.AskRequest{
		Question: "Summarize the warp module",
		TraceID:  "ask:plan-fail",
	})
	require.Error(t, err)
	assert.Equal(t, models.ReasonPlanFailed, ReasonOf(err))
	assert.Zero(t, gen.CallCount())

	ends := h.eventsFor("ask:plan-fail", bus.ToolAskEnd)
	require.Len(t, ends, 1)
	require.NotNil(t, ends[0].OK)
	assert.False(t, *ends[0].OK)
	assert.Equal(t, models.ReasonPlanFailed, ends[0].Meta["reason"])
}

func TestAsk_ExecuteMode(t *testing.T) {
	planner := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(lattice.PlanResult{
			TraceID: "lattice-plan-7",
			Steps:   []lattice.PlanStep{{ID: "s1", Kind: "fs.scan", Label: "scan reports"}},
		})
	}))
	defer planner.Close()

	executor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req lattice.ExecuteRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		// executor runs keyed by the planner's trace id
		assert.Equal(t, "lattice-plan-7", req.TraceID)
		assert.Len(t, req.Steps, 1)
		_ = json.NewEncoder(w).Encode(lattice.ExecuteResult{
			TraceID: req.TraceID,
			Outputs: []lattice.StepOutput{
				{StepID: "s1", OK: true, Text: "scanned 14 reports"},
				{StepID: "s2", OK: false, Text: "denied"},
			},
		})
	}))
	defer executor.Close()

	gen := llmtest.NewScripted()
	h := newHarness(t, testConfig(), gen, planner.URL, executor.URL, "")

	result, err := h.orch.Ask(context.Background(), &models.AskRequest{
		Question: "Run the warp diagnostics pipeline end to end",
		Mode:     models.AskModeExecute,
		TraceID:  "ask:exec-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "scanned 14 reports", result.Text)
	assert.Zero(t, gen.CallCount(), "execute mode must not generate")

	assert.Equal(t, []string{
		bus.ToolAskStart,
		bus.ToolAskInterpret,
		bus.ToolAskPlan,
		bus.ToolAskPlan,
		bus.ToolAskExecute,
		bus.ToolAskExecute,
		bus.ToolAskEmitReply,
		bus.ToolAskEnd,
	}, h.tools("ask:exec-1"))
}

func TestAsk_ExecuteFailure(t *testing.T) {
	planner := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(lattice.PlanResult{TraceID: "p1", Steps: []lattice.PlanStep{{ID: "s1", Kind: "fs.scan"}}})
	}))
	defer planner.Close()
	executor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "executor crashed", http.StatusInternalServerError)
	}))
	defer executor.Close()

	h := newHarness(t, testConfig(), llmtest.NewScripted(), planner.URL, executor.URL, "")

	_, err := h.orch.Ask(context.Background(), &models.AskRequest{
		Question: "Run the warp diagnostics pipeline",
		Mode:     models.AskModeExecute,
	})
	require.Error(t, err)
	assert.Equal(t, models.ReasonExecuteFailed, ReasonOf(err))
}

func TestAsk_OverflowRetriesOnceReduced(t *testing.T) {
	cfg := testConfig()
	gen := llmtest.NewScripted().
		AddError(errors.New("prompt is 5000 tokens which exceeds the context window")).
		AddText("FINAL: Trimmed answer.")
	h := newHarness(t, cfg, gen, "", "", "")

	result, err := h.orch.Ask(context.Background(), &models.AskRequest{
		Question: "Explain the warp solver pipeline",
		Debug:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, "Trimmed answer.", result.Text)
	assert.Equal(t, 2, gen.CallCount())
	require.NotNil(t, result.Debug)
	assert.True(t, result.Debug.OverflowRetryApplied)
	assert.Equal(t, cfg.Budgets.ReducedPromptBudget(), result.Debug.PromptBudget)
	assert.Contains(t, h.tools(result.TraceID), bus.ToolAskReduceContext)
}

func TestAsk_SecondOverflowIsFinal(t *testing.T) {
	gen := llmtest.NewScripted().
		AddError(errors.New("context window exceeded")).
		AddError(errors.New("context window exceeded again"))
	h := newHarness(t, testConfig(), gen, "", "", "")

	_, err := h.orch.Ask(context.Background(), &models.AskRequest{Question: "Explain the warp solver"})
	require.Error(t, err)
	assert.Equal(t, models.ReasonContextOverflow, ReasonOf(err))
	assert.Equal(t, 2, gen.CallCount())
}

func TestAsk_GenerationFailure(t *testing.T) {
	gen := llmtest.NewScripted().AddError(errors.New("model runtime unavailable"))
	h := newHarness(t, testConfig(), gen, "", "", "")

	_, err := h.orch.Ask(context.Background(), &models.AskRequest{Question: "Explain the warp solver"})
	require.Error(t, err)
	assert.Equal(t, models.ReasonGenerationFailed, ReasonOf(err))
	assert.Equal(t, 1, gen.CallCount())
}

func TestAsk_MidStreamFailureKeepsCapturedText(t *testing.T) {
	gen := llmtest.NewScripted().Add(llmtest.ScriptEntry{
		Chunks: []llm.Chunk{{Text: "The bubble is sized by "}, {Text: "the shell profile."}},
		Err:    errors.New("connection reset by peer"),
	})
	h := newHarness(t, testConfig(), gen, "", "", "")

	result, err := h.orch.Ask(context.Background(), &models.AskRequest{Question: "How is the warp bubble sized?"})
	require.NoError(t, err)

	assert.Equal(t, "The bubble is sized by the shell profile.", result.Text)
	assert.True(t, result.StreamedFallback)
	assert.Empty(t, h.eventsFor(result.TraceID, bus.ToolAskAborted))
}

func TestAsk_UserStopRepliesStopped(t *testing.T) {
	onBlock := make(chan struct{}, 1)
	gen := llmtest.NewScripted().Add(llmtest.ScriptEntry{
		Chunks:             []llm.Chunk{{Text: "partial thoughts "}},
		BlockUntilCanceled: true,
		OnBlock:            onBlock,
	})
	h := newHarness(t, testConfig(), gen, "", "", "")

	done := make(chan struct{})
	var result *models.AskResult
	var askErr error
	go func() {
		defer close(done)
		result, askErr = h.orch.Ask(context.Background(), &models.AskRequest{
			Question: "Explain the warp solver loop",
			TraceID:  "ask:stop-me",
		})
	}()

	select {
	case <-onBlock:
	case <-time.After(5 * time.Second):
		t.Fatal("generator never started streaming")
	}
	assert.True(t, h.orch.Stop("ask:stop-me"))
	// a second stop while the run winds down is harmless
	h.orch.Stop("ask:stop-me")

	<-done
	require.NoError(t, askErr)
	assert.Equal(t, "Generation stopped.", result.Text)
	assert.False(t, result.StreamedFallback, "a user stop discards streamed text")

	aborts := h.eventsFor("ask:stop-me", bus.ToolAskAborted)
	require.Len(t, aborts, 1)
	assert.Equal(t, true, aborts[0].Meta["user_stop"])

	// once the run is gone, stop becomes a no-op
	assert.Eventually(t, func() bool { return !h.orch.Stop("ask:stop-me") },
		time.Second, 10*time.Millisecond)
}

func TestAsk_CanceledGenerationFallsBackToStream(t *testing.T) {
	cfg := testConfig()
	cfg.GenerateTimeout = 150 * time.Millisecond
	gen := llmtest.NewScripted().Add(llmtest.ScriptEntry{
		Chunks:             []llm.Chunk{{Text: "Partial physics answer"}},
		BlockUntilCanceled: true,
	})
	h := newHarness(t, cfg, gen, "", "", "")

	result, err := h.orch.Ask(context.Background(), &models.AskRequest{Question: "Describe the warp shell"})
	require.NoError(t, err)

	assert.Equal(t, "Partial physics answer", result.Text)
	assert.True(t, result.StreamedFallback)
	assert.Equal(t, 1, gen.CallCount(), "a deadline error must not trigger the overflow retry")

	aborts := h.eventsFor(result.TraceID, bus.ToolAskAborted)
	require.Len(t, aborts, 1)
	assert.Equal(t, false, aborts[0].Meta["user_stop"])
}

func TestAsk_QueueOverflow(t *testing.T) {
	release := make(chan struct{})
	onBlock := make(chan struct{}, 1)
	gen := llmtest.NewScripted().
		Add(llmtest.ScriptEntry{Text: "FINAL: first", WaitCh: release, OnBlock: onBlock}).
		AddText("FINAL: second")

	cfg := testConfig()
	cfg.QueueLimit = 1
	h := newHarness(t, cfg, gen, "", "", "")

	type res struct {
		result *models.AskResult
		err    error
	}
	askAsync := func(question string) chan res {
		ch := make(chan res, 1)
		go func() {
			r, err := h.orch.Ask(context.Background(), &models.AskRequest{Question: question})
			ch <- res{r, err}
		}()
		return ch
	}

	first := askAsync("How big is the warp bubble?")
	select {
	case <-onBlock:
	case <-time.After(5 * time.Second):
		t.Fatal("first ask never reached the generator")
	}

	second := askAsync("Where is the warp solver?")
	require.Eventually(t, func() bool { return h.orch.QueueDepth() == 1 },
		time.Second, 5*time.Millisecond)

	_, err := h.orch.Ask(context.Background(), &models.AskRequest{Question: "What is the warp metric?"})
	require.ErrorIs(t, err, ErrQueueFull)

	close(release)
	firstRes := <-first
	require.NoError(t, firstRes.err)
	assert.Equal(t, "first", firstRes.result.Text)
	secondRes := <-second
	require.NoError(t, secondRes.err)
	assert.Equal(t, "second", secondRes.result.Text)
}

func TestAsk_AbandonedWhileQueued(t *testing.T) {
	release := make(chan struct{})
	onBlock := make(chan struct{}, 1)
	gen := llmtest.NewScripted().
		Add(llmtest.ScriptEntry{Text: "FINAL: active", WaitCh: release, OnBlock: onBlock}).
		AddText("FINAL: after")
	h := newHarness(t, testConfig(), gen, "", "", "")

	first := make(chan error, 1)
	go func() {
		_, err := h.orch.Ask(context.Background(), &models.AskRequest{Question: "Inspect the warp shell file"})
		first <- err
	}()
	select {
	case <-onBlock:
	case <-time.After(5 * time.Second):
		t.Fatal("first ask never reached the generator")
	}

	ctx, cancel := context.WithCancel(context.Background())
	second := make(chan error, 1)
	go func() {
		_, err := h.orch.Ask(ctx, &models.AskRequest{Question: "List the schema files"})
		second <- err
	}()
	require.Eventually(t, func() bool { return h.orch.QueueDepth() == 1 },
		time.Second, 5*time.Millisecond)
	cancel()
	require.ErrorIs(t, <-second, context.Canceled)

	close(release)
	require.NoError(t, <-first)

	// the abandoned submission is discarded and the loop keeps serving
	result, err := h.orch.Ask(context.Background(), &models.AskRequest{Question: "Where is the warp config module?"})
	require.NoError(t, err)
	assert.Equal(t, "after", result.Text)
}

func TestAsk_InvalidRequest(t *testing.T) {
	h := newHarness(t, testConfig(), llmtest.NewScripted(), "", "", "")

	tests := []struct {
		name string
		req  *models.AskRequest
	}{
		{name: "nil request", req: nil},
		{name: "blank question", req: &models.AskRequest{Question: "   "}},
		{name: "unknown mode", req: &models.AskRequest{Question: "hello", Mode: "interactive"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.orch.Ask(context.Background(), tc.req)
			require.Error(t, err)
			assert.Equal(t, models.ReasonInvalidRequest, ReasonOf(err))
		})
	}
	assert.Zero(t, h.orch.QueueDepth())
	assert.Zero(t, h.gen.CallCount())
}

func TestStop_NoActiveRun(t *testing.T) {
	h := newHarness(t, testConfig(), llmtest.NewScripted(), "", "", "")
	assert.False(t, h.orch.Stop(""))
	assert.False(t, h.orch.Stop("ask:never-ran"))
}

func TestReasonOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "run error",
			err:  &RunError{Reason: models.ReasonPlanFailed, Stage: bus.ToolAskPlan},
			want: models.ReasonPlanFailed,
		},
		{
			name: "wrapped run error",
			err:  errors.Join(errors.New("outer"), &RunError{Reason: models.ReasonContextOverflow, Stage: bus.ToolAskGenerate}),
			want: models.ReasonContextOverflow,
		},
		{
			name: "untyped error",
			err:  errors.New("boom"),
			want: models.ReasonGenerationFailed,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ReasonOf(tc.err))
		})
	}
}

func TestIsRepoGrounded(t *testing.T) {
	tests := []struct {
		question string
		want     bool
	}{
		{"Where does desktop.tsx mount the status pill?", true},
		{"Where are chat sessions stored?", true},
		{"How does the warp bubble collapse?", true},
		{"Which endpoint streams tool logs?", true},
		{"Is there a README.md for the solver package?", true},
		{"Why is the sky blue at noon?", false},
		{"Who wrote the general theory of relativity?", false},
	}
	for _, tc := range tests {
		t.Run(tc.question, func(t *testing.T) {
			assert.Equal(t, tc.want, isRepoGrounded(tc.question))
		})
	}
}

func TestMergeFiles(t *testing.T) {
	base := []models.KnowledgeFile{{Path: "a.ts"}, {Path: "b.ts"}}
	extra := []models.KnowledgeFile{{Path: "b.ts"}, {Path: "c.ts"}, {Path: "c.ts"}}

	merged := mergeFiles(base, extra)
	paths := make([]string, 0, len(merged))
	for _, f := range merged {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"a.ts", "b.ts", "c.ts"}, paths)
}

func TestFormatLabel(t *testing.T) {
	assert.Equal(t, "steps+tags", formatLabel(retrieval.AnswerFormat{Kind: retrieval.FormatSteps, StageTags: true}))
	assert.Equal(t, "steps", formatLabel(retrieval.AnswerFormat{Kind: retrieval.FormatSteps}))
	assert.Equal(t, "brief", formatLabel(retrieval.AnswerFormat{Kind: retrieval.FormatBrief}))
}
