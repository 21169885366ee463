package lattice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanner_Plan(t *testing.T) {
	var got PlanRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(PlanResult{
			TraceID: "plan:7",
			Steps:   []PlanStep{{ID: "s1", Kind: "inspect", Label: "read module"}},
		})
	}))
	defer server.Close()

	p := NewPlanner(server.URL)
	require.True(t, p.Enabled())

	result, err := p.Plan(context.Background(), PlanRequest{Question: "how", UseKnowledge: true})
	require.NoError(t, err)
	assert.Equal(t, "plan:7", result.TraceID)
	require.Len(t, result.Steps, 1)
	assert.True(t, got.UseKnowledge)
}

func TestPlanner_KnowledgeRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"knowledge_projects_disabled"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := NewPlanner(server.URL).Plan(context.Background(), PlanRequest{Question: "how", UseKnowledge: true})
	require.Error(t, err)
	assert.True(t, IsKnowledgeRejected(err))

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.Status)
}

func TestIsKnowledgeRejected(t *testing.T) {
	assert.True(t, IsKnowledgeRejected(errors.New("planner returned HTTP 400: bad_request")))
	assert.True(t, IsKnowledgeRejected(errors.New("KNOWLEDGE_PROJECTS_DISABLED")))
	assert.False(t, IsKnowledgeRejected(errors.New("connection refused")))
	assert.False(t, IsKnowledgeRejected(nil))
}

func TestExecutor_Execute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var got ExecuteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "plan:7", got.TraceID)
		json.NewEncoder(w).Encode(ExecuteResult{
			TraceID: "plan:7",
			Outputs: []StepOutput{
				{StepID: "s1", OK: true, Text: "module inspected"},
				{StepID: "s2", OK: false, Text: "skipped"},
			},
		})
	}))
	defer server.Close()

	result, err := NewExecutor(server.URL).Execute(context.Background(), ExecuteRequest{TraceID: "plan:7"})
	require.NoError(t, err)
	assert.Equal(t, "module inspected", result.Summarize(), "only successful outputs are summarized")
}

func TestExecuteResult_Summarize(t *testing.T) {
	r := &ExecuteResult{Summary: "done"}
	assert.Equal(t, "done", r.Summarize(), "explicit summary wins")

	r = &ExecuteResult{Outputs: []StepOutput{{OK: true, Text: "a"}, {OK: true, Text: "b"}}}
	assert.Equal(t, "a\nb", r.Summarize())

	assert.Empty(t, (&ExecuteResult{}).Summarize())
}

func TestSearch_Query(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var got searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "warp", got.Query)
		assert.Equal(t, 5, got.Limit)
		w.Write([]byte(`{"files":[{"path":"modules/warp/warp-module.ts","preview":"field"}]}`))
	}))
	defer server.Close()

	files, err := NewSearch(server.URL).Query(context.Background(), "warp", 5)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "modules/warp/warp-module.ts", files[0].Path)
}

func TestSearch_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewSearch(server.URL).Query(context.Background(), "warp", 5)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.Status)
	assert.Equal(t, "search", statusErr.Capability)
}
