package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/internal/testutil"
	"github.com/hupe1980/planmesh/tool"
	"github.com/hupe1980/planmesh/tool/builtin"
)

func newTestRegistry(t *testing.T) *tool.Registry {
	t.Helper()

	registry := tool.NewRegistry()
	registry.Register(builtin.CalculatorConfig(), builtin.Calculate)
	registry.Register(tool.Config{
		Name:         "echo",
		FunctionName: "echo",
		Description:  "Echoes its parameters back",
	}, func(_ context.Context, params map[string]any) (map[string]any, error) {
		return map[string]any{"status": "success", "echo": params}, nil
	})
	registry.Register(tool.Config{
		Name:         "broken",
		FunctionName: "broken",
		Description:  "Always fails",
	}, func(_ context.Context, _ map[string]any) (map[string]any, error) {
		return nil, errors.New("backend unavailable")
	})
	return registry
}

// -------------------- Validation Tests --------------------

func TestExecuteRejectsEmptyPlan(t *testing.T) {
	e := New(newTestRegistry(t))

	report, err := e.Execute(context.Background(), core.Plan{Intent: core.IntentExecutePlan})
	require.NoError(t, err)

	assert.Equal(t, StateValidationFailed, report.Status)
	require.Len(t, report.ValidationIssues, 1)
	assert.Equal(t, "empty_plan", report.ValidationIssues[0].Type)
	assert.Empty(t, report.Results)
}

func TestExecuteCollectsAllValidationIssues(t *testing.T) {
	e := New(newTestRegistry(t))

	plan := testutil.NewPlanBuilder().Steps(
		core.Step{ID: "", Type: core.StepToolCall, Tool: "advanced_calculator"},
		core.Step{ID: "s2", Type: "", Tool: "advanced_calculator"},
		core.Step{ID: "s3", Type: core.StepToolCall},
		core.Step{ID: "s4", Type: core.StepToolCall, Tool: "no_such_tool"},
	).Build()

	report, err := e.Execute(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, StateValidationFailed, report.Status)
	types := make([]string, len(report.ValidationIssues))
	for i, issue := range report.ValidationIssues {
		types[i] = issue.Type
	}
	assert.Contains(t, types, "missing_step_id")
	assert.Contains(t, types, "missing_step_type")
	assert.Contains(t, types, "missing_tool_name")
	assert.Contains(t, types, "tool_not_found")
}

func TestExecuteRejectsCircularDependencies(t *testing.T) {
	e := New(newTestRegistry(t))

	plan := testutil.NewPlanBuilder().Steps(
		testutil.NewStepBuilder("a").Tool("echo").DependsOn("b").Build(),
		testutil.NewStepBuilder("b").Tool("echo").DependsOn("a").Build(),
	).Build()

	report, err := e.Execute(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, StateValidationFailed, report.Status)
	require.Len(t, report.ValidationIssues, 1)
	assert.Equal(t, "circular_dependency", report.ValidationIssues[0].Type)
	assert.Equal(t, "critical", report.ValidationIssues[0].Severity)
}

// -------------------- Execution Tests --------------------

func TestExecuteRunsStepsInDependencyOrder(t *testing.T) {
	e := New(newTestRegistry(t))

	plan := testutil.NewPlanBuilder().Steps(
		testutil.NewStepBuilder("second").Tool("echo").Param("x", "2").DependsOn("first").Build(),
		testutil.NewStepBuilder("first").Tool("advanced_calculator").Param("expression", "2+2").Build(),
	).Build()

	report, err := e.Execute(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, report.Status)
	require.Len(t, report.Results, 2)
	assert.Equal(t, "first", report.Results[0].StepID)
	assert.Equal(t, "second", report.Results[1].StepID)
	assert.InDelta(t, 4.0, report.Results[0].Output["result"], 0.001)
	assert.InDelta(t, 1.0, report.SuccessRate, 0.001)
}

func TestExecuteResolvesParameterDependencies(t *testing.T) {
	e := New(newTestRegistry(t))

	plan := testutil.NewPlanBuilder().Steps(
		testutil.NewStepBuilder("calc").Tool("advanced_calculator").Param("expression", "3*3").Build(),
		testutil.NewStepBuilder("relay").Tool("echo").Param("input", "{{calc}}").DependsOn("calc").Build(),
	).Build()

	report, err := e.Execute(context.Background(), plan)
	require.NoError(t, err)

	relay := report.Results[1]
	resolved, ok := relay.Parameters["input"].(map[string]any)
	require.True(t, ok, "placeholder should be replaced with the step output")
	assert.InDelta(t, 9.0, resolved["result"], 0.001)
}

func TestExecuteKeepsUnresolvablePlaceholderLiteral(t *testing.T) {
	e := New(newTestRegistry(t))

	plan := testutil.NewPlanBuilder().Steps(
		testutil.NewStepBuilder("relay").Tool("echo").Param("input", "{{missing}}").Build(),
	).Build()

	report, err := e.Execute(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, "{{missing}}", report.Results[0].Parameters["input"])
}

func TestExecuteContinuesPastStepFailures(t *testing.T) {
	e := New(newTestRegistry(t))

	plan := testutil.NewPlanBuilder().Steps(
		testutil.NewStepBuilder("bad").Tool("broken").Build(),
		testutil.NewStepBuilder("good").Tool("advanced_calculator").Param("expression", "1+1").Build(),
	).Build()

	report, err := e.Execute(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, report.Status)
	require.Len(t, report.Results, 2)
	assert.Equal(t, "error", report.Results[0].Status)
	assert.Contains(t, report.Results[0].Error, "backend unavailable")
	assert.Equal(t, "success", report.Results[1].Status)
	assert.InDelta(t, 0.5, report.SuccessRate, 0.001)
	assert.Equal(t, 1, report.QualityMetrics.StepsFailed)
}

func TestExecuteDirectAnswerStep(t *testing.T) {
	e := New(newTestRegistry(t))

	plan := testutil.NewPlanBuilder().Steps(
		testutil.NewStepBuilder("answer").Type(core.StepDirectAnswer).Build(),
	).Build()

	report, err := e.Execute(context.Background(), plan)
	require.NoError(t, err)

	result := report.Results[0]
	assert.Equal(t, "completed", result.Status)
	assert.Contains(t, result.Output["message"], "Direct answer step")
}

func TestExecuteTreatsToolErrorPayloadAsStepStatus(t *testing.T) {
	registry := newTestRegistry(t)
	registry.Register(tool.Config{
		Name:         "flaky",
		FunctionName: "flaky",
	}, func(_ context.Context, _ map[string]any) (map[string]any, error) {
		return map[string]any{"status": "error", "error": "domain failure"}, nil
	})
	e := New(registry)

	plan := testutil.NewPlanBuilder().Steps(
		testutil.NewStepBuilder("s1").Tool("flaky").Build(),
	).Build()

	report, err := e.Execute(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, "error", report.Results[0].Status)
	assert.Equal(t, 1, report.QualityMetrics.StepsFailed)
}

// -------------------- Quality Score Tests --------------------

func TestQualityScore(t *testing.T) {
	tests := []struct {
		name    string
		metrics QualityMetrics
		want    float64
	}{
		{
			name:    "no steps",
			metrics: QualityMetrics{},
			want:    0.0,
		},
		{
			name: "all fast successes",
			metrics: QualityMetrics{
				StepsCompleted:     4,
				TotalExecutionTime: 400 * time.Millisecond,
			},
			want: 10.0,
		},
		{
			name: "all failures",
			metrics: QualityMetrics{
				StepsFailed:        3,
				TotalExecutionTime: 300 * time.Millisecond,
			},
			want: 2.0,
		},
		{
			name: "half successes with slow steps",
			metrics: QualityMetrics{
				StepsCompleted:     1,
				StepsFailed:        1,
				TotalExecutionTime: 12 * time.Second,
			},
			want: 4.5,
		},
		{
			name: "slowest bracket gets no bonus",
			metrics: QualityMetrics{
				StepsCompleted:     1,
				TotalExecutionTime: 15 * time.Second,
			},
			want: 8.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, qualityScore(tt.metrics), 0.001)
		})
	}
}

// -------------------- Single Tool Tests --------------------

func TestExecuteSingleTool(t *testing.T) {
	e := New(newTestRegistry(t))

	result, err := e.ExecuteSingleTool(context.Background(), "advanced_calculator", map[string]any{"expression": "10/4"})
	require.NoError(t, err)

	assert.Equal(t, "advanced_calculator", result["tool"])
	assert.Equal(t, "success", result["status"])
	output := result["result"].(map[string]any)
	assert.InDelta(t, 2.5, output["result"], 0.001)
}

func TestExecuteSingleToolUnknownTool(t *testing.T) {
	e := New(newTestRegistry(t))

	_, err := e.ExecuteSingleTool(context.Background(), "ghost", nil)
	var notFound *tool.NotFoundError
	require.ErrorAs(t, err, &notFound)
}
