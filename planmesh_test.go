package planmesh

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/executor"
	"github.com/hupe1980/planmesh/memory"
	"github.com/hupe1980/planmesh/model"
	"github.com/hupe1980/planmesh/planner"
)

const calculationPlanJSON = `{
  "intent": "execute_plan",
  "plan": {
    "description": "Calculate the expression",
    "steps": [
      {
        "id": "calculate",
        "type": "TOOL_CALL",
        "tool": "advanced_calculator",
        "description": "Evaluate the expression",
        "parameters": {"expression": "6*7"},
        "dependencies": []
      }
    ]
  },
  "memory_update": {"action": "save", "data": {"last_calculation": "6*7"}}
}`

func lightweightPlannerOptions(o *Options) {
	o.PlannerOptions = append(o.PlannerOptions, func(po *planner.Options) {
		po.EnableSelfCorrection = false
		po.EnableToolOptimization = false
	})
}

// -------------------- Kernel Setup Tests --------------------

func TestRegisterDefaultsWiresToolsAndAgents(t *testing.T) {
	k := New()
	require.NoError(t, k.RegisterDefaults())

	names := k.Registry().Names()
	for _, expected := range []string{
		"advanced_calculator",
		"wikipedia_search",
		"read_webpage",
		"search_user_documents",
		"research_workflow",
		"web_analysis",
		"data_processing",
		"complex_executor",
	} {
		assert.Contains(t, names, expected)
	}

	assert.True(t, k.Registry().Hierarchical("web_analysis"))
	assert.False(t, k.Registry().Hierarchical("advanced_calculator"))

	status := k.Agents().SystemStatus()
	assert.Equal(t, 5, status["total_agents"])
	assert.Equal(t, 1, status["hierarchies"])
}

func TestDefaultHierarchyExecutes(t *testing.T) {
	k := New()
	require.NoError(t, k.RegisterDefaults())

	result, err := k.Agents().ExecuteHierarchical(context.Background(), "research_workflow", core.Task{
		ID:   "t1",
		Type: core.TaskLoadBalancing,
	})
	require.NoError(t, err)

	assert.Equal(t, "coord_001", result.AgentID)
	assert.Len(t, result.Children, 4)
}

// -------------------- Request Handling Tests --------------------

func TestHandleRequestExecutesPlan(t *testing.T) {
	caller := model.NewMockCaller()
	caller.Script(calculationPlanJSON)

	store := memory.NewInMemoryRetriever()
	k := New(func(o *Options) {
		o.Caller = caller
		o.Retriever = store
		lightweightPlannerOptions(o)
	})
	require.NoError(t, k.RegisterDefaults())

	result, err := k.HandleRequest(context.Background(), "u1", "what is 6*7", model.Config{Name: "mock"})
	require.NoError(t, err)

	assert.NotEmpty(t, result.RequestID)
	assert.Equal(t, core.IntentExecutePlan, result.Plan.Intent)
	require.NotNil(t, result.Report)
	assert.Equal(t, executor.StateCompleted, result.Report.Status)
	require.Len(t, result.Report.Results, 1)
	assert.Equal(t, "success", result.Report.Results[0].Status)
	assert.InDelta(t, 42.0, result.Report.Results[0].Output["result"], 0.001)

	assert.Contains(t, result.Answer, "calculate: 42")
	assert.Empty(t, result.Failures)

	// The requested memory update was persisted.
	memories, err := store.RetrieveRelevantMemories(context.Background(), "u1", `{"last_calculation":"6*7"}`, nil)
	require.NoError(t, err)
	require.Len(t, memories, 1)
	assert.Equal(t, "context", memories[0].Type)
}

func TestHandleRequestDirectAnswer(t *testing.T) {
	caller := model.NewMockCaller()
	caller.Script(
		`{"intent": "direct_answer", "plan": {"description": "Answer", "steps": []}, "memory_update": {"action": "none", "data": {}}}`,
		"Go is a statically typed language.",
	)

	k := New(func(o *Options) {
		o.Caller = caller
		lightweightPlannerOptions(o)
	})
	require.NoError(t, k.RegisterDefaults())

	result, err := k.HandleRequest(context.Background(), "u1", "what is go", model.Config{})
	require.NoError(t, err)

	assert.Nil(t, result.Report)
	assert.Equal(t, "Go is a statically typed language.", result.Answer)
}

func TestHandleRequestCollectsStepFailures(t *testing.T) {
	caller := model.NewMockCaller()
	caller.Script(`{
  "intent": "execute_plan",
  "plan": {
    "description": "Bad expression",
    "steps": [
      {"id": "calc", "type": "TOOL_CALL", "tool": "advanced_calculator", "description": "d", "parameters": {"expression": "2+abc"}, "dependencies": []}
    ]
  },
  "memory_update": {"action": "none", "data": {}}
}`)

	k := New(func(o *Options) {
		o.Caller = caller
		lightweightPlannerOptions(o)
	})
	require.NoError(t, k.RegisterDefaults())

	result, err := k.HandleRequest(context.Background(), "u1", "calc nonsense", model.Config{})
	require.NoError(t, err)

	require.NotNil(t, result.Report)
	assert.Equal(t, executor.StateCompleted, result.Report.Status)
	require.Len(t, result.Failures, 1)
	assert.Contains(t, result.Failures[0], "step calc failed")
	assert.Equal(t, "The plan could not produce an answer; all steps failed.", result.Answer)
}

// -------------------- Answer Composition Tests --------------------

func TestComposeAnswerSummarizesOutputs(t *testing.T) {
	report := &executor.Report{
		Results: []executor.StepResult{
			{StepID: "s1", Status: "success", Output: map[string]any{"formatted_result": "42"}},
			{StepID: "s2", Status: "completed", Output: map[string]any{"message": "done"}},
			{StepID: "s3", Status: "error", Error: "boom"},
		},
	}

	answer, failures := composeAnswer(report)

	assert.Contains(t, answer, "s1: 42")
	assert.Contains(t, answer, "s2: done")
	require.Len(t, failures, 1)
	assert.Equal(t, "step s3 failed: boom", failures[0])
}
