package critic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/internal/testutil"
	"github.com/hupe1980/planmesh/model"
	"github.com/hupe1980/planmesh/tool"
)

// -------------------- Critique Tests --------------------

func TestCritiqueParsesModelResponse(t *testing.T) {
	caller := model.NewMockCaller()
	caller.Script(`Here is my critique:
` + "```json" + `
{
  "overall_score": 8.5,
  "is_plan_valid": true,
  "confidence_level": 0.9,
  "issues_found": [
    {
      "category": "cost_optimization",
      "severity": "low",
      "description": "Expensive tool used for a simple lookup",
      "step_id": "s1",
      "suggestion": "Use a cheaper tool"
    }
  ],
  "suggestions": [],
  "improved_plan": {
    "description": "Leaner plan",
    "steps": [
      {"id": "s1", "type": "TOOL_CALL", "tool": "wikipedia_search", "description": "look it up", "parameters": {"query": "go"}, "dependencies": []}
    ],
    "memory_update": {"action": "none", "data": {}}
  },
  "summary": "Minor cost issue"
}
` + "```")

	plan := testutil.NewPlanBuilder().
		Description("original").
		Steps(testutil.NewStepBuilder("s1").Tool("web_search_serper").Build()).
		Build()

	c := New(caller)
	result := c.Critique(context.Background(), "what is go", nil, plan, nil, model.Config{Name: "mock-critic"})

	assert.False(t, result.CritiqueError)
	assert.InDelta(t, 8.5, result.OverallScore, 0.001)
	assert.True(t, result.IsPlanValid)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, core.IssueCostOptimization, result.Issues[0].Category)
	assert.Equal(t, "mock-critic", result.Model)
	assert.NotZero(t, result.TokensUsed)
	require.NotNil(t, result.ImprovedPlan)
	assert.Equal(t, plan.Intent, result.ImprovedPlan.Intent)
	assert.Equal(t, "wikipedia_search", result.ImprovedPlan.Steps[0].Tool)
	assert.InDelta(t, EstimatePlanQuality(plan), result.OriginalPlanScore, 0.001)
}

func TestCritiqueFallsBackOnUnparsableResponse(t *testing.T) {
	caller := model.NewMockCaller()
	caller.Script("I refuse to answer in JSON.")

	plan := testutil.NewPlanBuilder().
		Steps(testutil.NewStepBuilder("s1").Tool("advanced_calculator").Build()).
		Build()

	c := New(caller)
	result := c.Critique(context.Background(), "calc", nil, plan, nil, model.Config{Name: "mock"})

	assert.True(t, result.CritiqueError)
	assert.InDelta(t, 7.0, result.OverallScore, 0.001)
	assert.True(t, result.IsPlanValid)
	assert.InDelta(t, 0.5, result.ConfidenceLevel, 0.001)
	require.NotNil(t, result.ImprovedPlan)
	assert.Equal(t, plan.StepIDs(), result.ImprovedPlan.StepIDs())
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "Plan critique could not be completed", result.Issues[0].Description)
}

func TestCritiqueFallsBackOnModelError(t *testing.T) {
	caller := model.NewMockCaller()
	caller.Fail(errors.New("model down"))

	plan := testutil.NewPlanBuilder().Build()

	c := New(caller)
	result := c.Critique(context.Background(), "q", nil, plan, nil, model.Config{})

	assert.True(t, result.CritiqueError)
	assert.Equal(t, "Critique system encountered an error, using original plan", result.Summary)
}

// -------------------- Plan Quality Tests --------------------

func TestEstimatePlanQuality(t *testing.T) {
	tests := []struct {
		name string
		plan core.Plan
		want float64
	}{
		{
			name: "empty plan",
			plan: core.Plan{},
			want: 3.0,
		},
		{
			name: "described valid plan",
			plan: testutil.NewPlanBuilder().
				Description("d").
				Steps(testutil.NewStepBuilder("s1").Tool("t").Build()).
				Build(),
			want: 7.0,
		},
		{
			name: "described valid plan saving memory",
			plan: testutil.NewPlanBuilder().
				Description("d").
				Steps(testutil.NewStepBuilder("s1").Tool("t").Build()).
				SaveMemory(map[string]any{"k": "v"}).
				Build(),
			want: 7.5,
		},
		{
			name: "duplicate ids without description",
			plan: testutil.NewPlanBuilder().
				Steps(
					testutil.NewStepBuilder("s1").Tool("t").Build(),
					testutil.NewStepBuilder("s1").Tool("t").Build(),
				).
				Build(),
			want: 4.0,
		},
		{
			name: "missing step ids",
			plan: testutil.NewPlanBuilder().
				Steps(testutil.NewStepBuilder("").Tool("t").Build()).
				Build(),
			want: 3.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, EstimatePlanQuality(tt.plan), 0.001)
		})
	}
}

// -------------------- Tool Usage Validation Tests --------------------

func toolInventory() []tool.Config {
	return []tool.Config{
		{
			Name:        "web_search_serper",
			Description: "Web search",
			PriceUSD:    0.02,
			Parameters: map[string]any{
				"query":       map[string]any{"type": "string", "required": true},
				"max_results": map[string]any{"type": "integer"},
			},
		},
		{
			Name:        "wikipedia_search",
			Description: "Wikipedia lookup",
			Parameters: map[string]any{
				"query": map[string]any{"type": "string", "required": true},
			},
		},
	}
}

func TestValidateToolUsageUnknownTool(t *testing.T) {
	report := ValidateToolUsage("ghost_tool", nil, toolInventory())

	assert.False(t, report.IsValid)
	assert.Equal(t, "tool_not_found", report.IssueType)
	assert.Contains(t, report.Message, "ghost_tool")
}

func TestValidateToolUsageCollectsAllIssues(t *testing.T) {
	report := ValidateToolUsage("web_search_serper", map[string]any{
		"max_results": "five",
	}, toolInventory())

	assert.False(t, report.IsValid)
	require.Len(t, report.Issues, 2)

	byParam := map[string]string{}
	for _, issue := range report.Issues {
		byParam[issue.Parameter] = issue.Issue
	}
	assert.Equal(t, "required_parameter_missing", byParam["query"])
	assert.Equal(t, "incorrect_type", byParam["max_results"])
}

func TestValidateToolUsageSuggestions(t *testing.T) {
	report := ValidateToolUsage("web_search_serper", map[string]any{
		"query": "go",
	}, toolInventory())

	assert.True(t, report.IsValid)
	assert.Contains(t, report.Suggestions, "Consider if this tool is cost-effective for your use case")
	assert.Contains(t, report.Suggestions, "Query is very short, consider adding more specific terms")
}

// -------------------- Improvement Suggestion Tests --------------------

func TestImprovementSuggestionsOrderedBySeverity(t *testing.T) {
	result := core.CritiqueResult{
		Issues: []core.Issue{
			{Category: core.IssueCostOptimization, Severity: core.SeverityLow, Description: "pricey"},
			{Category: core.IssueLogicValidation, Severity: core.SeverityCritical, Description: "broken order"},
		},
	}

	suggestions := ImprovementSuggestions(result)
	require.Len(t, suggestions, 8)

	for i := 0; i < 4; i++ {
		assert.Equal(t, core.SeverityCritical, suggestions[i].Severity)
	}
	for i := 4; i < 8; i++ {
		assert.Equal(t, core.SeverityLow, suggestions[i].Severity)
	}
}
