package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/planmesh/core"
)

// -------------------- Test Doubles --------------------

type stubAgent struct {
	id           string
	name         string
	capabilities []string
	result       core.TaskResult
	err          error
	lastTask     core.Task
}

func (s *stubAgent) ID() string              { return s.id }
func (s *stubAgent) Name() string            { return s.name }
func (s *stubAgent) Capabilities() []string  { return s.capabilities }
func (s *stubAgent) Execute(_ context.Context, task core.Task) (core.TaskResult, error) {
	s.lastTask = task
	return s.result, s.err
}

func echoTool(_ context.Context, params map[string]any) (map[string]any, error) {
	return map[string]any{"status": "success", "echo": params["value"]}, nil
}

// -------------------- Registration & Lookup Tests --------------------

func TestRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	r.Register(Config{Name: "echo", FunctionName: "echo_fn", Description: "echoes"}, echoTool)

	cfg, ok := r.Lookup("echo")
	require.True(t, ok)
	assert.Equal(t, "echo_fn", cfg.FunctionName)

	_, ok = r.Lookup("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"echo"}, r.Names())
}

func TestRegisterLastWriteWins(t *testing.T) {
	r := NewRegistry()
	r.Register(Config{Name: "echo", FunctionName: "v1", Description: "first"}, echoTool)
	r.Register(Config{Name: "echo", FunctionName: "v2", Description: "second"}, echoTool)

	cfg, ok := r.Lookup("echo")
	require.True(t, ok)
	assert.Equal(t, "v2", cfg.FunctionName)
	assert.Equal(t, []string{"echo"}, r.Names())
}

func TestRegisterHierarchicalForcesFlag(t *testing.T) {
	r := NewRegistry()
	agent := &stubAgent{id: "a1", name: "Agent", capabilities: []string{"research"}}

	r.RegisterHierarchical(Config{Name: "research_workflow"}, agent)

	cfg, ok := r.Lookup("research_workflow")
	require.True(t, ok)
	assert.True(t, cfg.Hierarchical)
	assert.True(t, r.Hierarchical("research_workflow"))
	assert.Equal(t, []string{"research"}, r.Capabilities("research_workflow"))
}

// -------------------- Invocation Tests --------------------

func TestInvokePlainTool(t *testing.T) {
	r := NewRegistry()
	r.Register(Config{Name: "echo", FunctionName: "echo_fn"}, echoTool)

	out, err := r.Invoke(context.Background(), "echo", map[string]any{"value": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", out["echo"])
}

func TestInvokeUnknownToolReturnsNotFound(t *testing.T) {
	r := NewRegistry()

	_, err := r.Invoke(context.Background(), "ghost", nil)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "ghost", notFound.Tool)
}

func TestInvokeWrapsToolFailure(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("boom")
	r.Register(Config{Name: "flaky", FunctionName: "flaky_fn"}, func(context.Context, map[string]any) (map[string]any, error) {
		return nil, boom
	})

	_, err := r.Invoke(context.Background(), "flaky", nil)
	var invocation *InvocationError
	require.ErrorAs(t, err, &invocation)
	assert.Equal(t, "flaky", invocation.Tool)
	assert.ErrorIs(t, err, boom)
}

func TestInvokeHierarchicalBuildsTask(t *testing.T) {
	r := NewRegistry()
	agent := &stubAgent{
		id:     "a1",
		name:   "Research Agent",
		result: core.TaskResult{AgentID: "a1", Status: "completed"},
	}
	r.RegisterHierarchical(Config{Name: "research_workflow"}, agent)

	out, err := r.Invoke(context.Background(), "research_workflow", map[string]any{
		"task_type": "domain_analysis",
		"query":     "go generics",
	})
	require.NoError(t, err)

	assert.Equal(t, "success", out["status"])
	assert.Equal(t, "research_workflow", out["tool"])
	assert.Equal(t, "Research Agent", out["agent"])
	assert.Equal(t, core.TaskType("domain_analysis"), agent.lastTask.Type)
	assert.Equal(t, "go generics", agent.lastTask.Data["query"])
	assert.Contains(t, agent.lastTask.ID, "tool_research_workflow_")
}

func TestInvokeHierarchicalDefaultsTaskType(t *testing.T) {
	r := NewRegistry()
	agent := &stubAgent{id: "a1", name: "Agent", result: core.TaskResult{Status: "completed"}}
	r.RegisterHierarchical(Config{Name: "web_analysis"}, agent)

	_, err := r.Invoke(context.Background(), "web_analysis", map[string]any{"url": "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, core.TaskGeneric, agent.lastTask.Type)
}

func TestInvokeHierarchicalReportsAgentFailure(t *testing.T) {
	r := NewRegistry()
	agent := &stubAgent{id: "a1", name: "Agent", result: core.TaskResult{Status: "error", Error: "bad input"}}
	r.RegisterHierarchical(Config{Name: "data_processing"}, agent)

	out, err := r.Invoke(context.Background(), "data_processing", nil)
	require.NoError(t, err)
	assert.Equal(t, "error", out["status"])
}

// -------------------- Selection Optimization Tests --------------------

func TestOptimizeSelectionScoresAndRanks(t *testing.T) {
	r := NewRegistry()
	r.Register(Config{Name: "advanced_calculator", FunctionName: "calc", Capabilities: []string{"arithmetic", "calculation"}}, echoTool)
	r.Register(Config{Name: "web_search_serper", FunctionName: "search", Capabilities: []string{"web search", "information retrieval"}}, echoTool)
	agent := &stubAgent{id: "a1", name: "Agent", capabilities: []string{"research", "analysis"}}
	r.RegisterHierarchical(Config{Name: "research_workflow"}, agent)

	selection := r.OptimizeSelection("research the latest analysis", []string{"advanced_calculator", "web_search_serper", "research_workflow"})

	// "research" and "analysis" each match one capability, plus the
	// hierarchical bonus.
	assert.Equal(t, 4, selection.Scores["research_workflow"])
	assert.Equal(t, 0, selection.Scores["advanced_calculator"])
	require.NotEmpty(t, selection.Recommended)
	assert.Equal(t, "research_workflow", selection.Recommended[0])
	assert.NotContains(t, selection.Recommended, "advanced_calculator")
}

func TestOptimizeSelectionTiesBrokenByRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(Config{Name: "first", FunctionName: "f1", Capabilities: []string{"data"}}, echoTool)
	r.Register(Config{Name: "second", FunctionName: "f2", Capabilities: []string{"data"}}, echoTool)

	selection := r.OptimizeSelection("data", []string{"second", "first"})
	assert.Equal(t, []string{"first", "second"}, selection.Recommended)
}

func TestOptimizeSelectionCapsRecommendationsAtThree(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"t1", "t2", "t3", "t4"} {
		r.Register(Config{Name: name, FunctionName: name, Capabilities: []string{"match"}}, echoTool)
	}

	selection := r.OptimizeSelection("match", []string{"t1", "t2", "t3", "t4"})
	assert.Len(t, selection.Recommended, 3)
}
