package critic

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/internal/util"
	"github.com/hupe1980/planmesh/logging"
	"github.com/hupe1980/planmesh/model"
	"github.com/hupe1980/planmesh/tool"
)

const critiquePrompt = `You are an expert AI critique assistant. Your role is to analyze execution plans for potential issues and suggest improvements.

Your Response Format:
Return ONLY a valid JSON object with this exact structure:
{
    "overall_score": 1-10,
    "is_plan_valid": true/false,
    "confidence_level": 0.0-1.0,
    "issues_found": [
        {
            "category": "plan_optimization" | "tool_selection" | "logic_validation" | "cost_optimization",
            "severity": "low" | "medium" | "high" | "critical",
            "description": "Issue description",
            "step_id": "affected_step_id_or_null",
            "suggestion": "How to fix this issue"
        }
    ],
    "suggestions": [
        {
            "category": "improvement_area",
            "description": "Improvement description",
            "implementation_difficulty": "low" | "medium" | "high",
            "expected_benefit": "low" | "medium" | "high"
        }
    ],
    "improved_plan": {
        "description": "Improved plan description",
        "steps": [
            {
                "id": "step_id",
                "type": "TOOL_CALL" | "DIRECT_ANSWER",
                "tool": "tool_name_if_applicable",
                "description": "Improved description",
                "parameters": {},
                "dependencies": []
            }
        ],
        "memory_update": {
            "action": "save" | "none",
            "data": {}
        }
    },
    "summary": "Brief summary of findings and recommended changes"
}

Scoring Criteria:
- 10: Perfect plan, no issues found
- 8-9: Minor optimizations possible
- 6-7: Some improvements needed
- 4-5: Significant issues found
- 1-3: Plan has major problems

Available Tools Context:
{{.ToolsContext}}

Current User Query: {{.UserQuery}}
Current User Memory: {{.UserMemory}}
Generated Plan: {{.Plan}}

Now perform your critique:`

// Critic is an independent reviewer of execution plans.
type Critic struct {
	caller model.Caller
	logger logging.Logger
}

// Options holds the options for a Critic.
type Options struct {
	// Logger is the structured logger to use.
	Logger logging.Logger
}

// New creates a critic backed by the given model caller.
func New(caller model.Caller, optFns ...func(o *Options)) *Critic {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Critic{
		caller: caller,
		logger: opts.Logger,
	}
}

// Critique reviews a plan against the user's query and memory. It never
// fails: any model or parse error degrades to a fallback critique that
// keeps the original plan and marks CritiqueError.
func (c *Critic) Critique(ctx context.Context, userQuery string, userMemory map[string]any, plan core.Plan, availableTools []tool.Config, cfg model.Config) core.CritiqueResult {
	c.logger.Info("Starting plan critique", "query", truncate(userQuery, 100))

	memoryContext := "No memory available"
	if len(userMemory) > 0 {
		if encoded, err := json.MarshalIndent(userMemory, "", "  "); err == nil {
			memoryContext = string(encoded)
		}
	}

	planJSON, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return c.fallback(plan)
	}

	prompt, err := util.RenderTemplate(critiquePrompt, map[string]any{
		"ToolsContext": formatToolsContext(availableTools),
		"UserQuery":    userQuery,
		"UserMemory":   memoryContext,
		"Plan":         string(planJSON),
	})
	if err != nil {
		c.logger.Error("Failed to render critique prompt", "error", err.Error())
		return c.fallback(plan)
	}

	messages := []model.Message{
		{Role: "system", Content: prompt},
		{Role: "user", Content: fmt.Sprintf("Critique this plan for %s", userQuery)},
	}

	response, err := c.caller.Call(ctx, cfg, messages)
	if err != nil {
		c.logger.Error("Critique model call failed", "error", err.Error())
		return c.fallback(plan)
	}

	var result core.CritiqueResult
	if err := json.Unmarshal([]byte(util.ExtractJSONObject(response.Content)), &result); err != nil {
		c.logger.Error("Failed to parse critique response", "error", err.Error())
		return c.fallback(plan)
	}

	if result.ImprovedPlan != nil {
		result.ImprovedPlan.Intent = plan.Intent
	}
	result.TokensUsed = response.TokensUsed
	result.Model = cfg.Name
	result.OriginalPlanScore = EstimatePlanQuality(plan)

	c.logger.Info("Plan critique completed", "score", result.OverallScore)
	return result
}

// fallback returns a neutral passing critique carrying the original plan.
func (c *Critic) fallback(plan core.Plan) core.CritiqueResult {
	original := plan.Clone()
	return core.CritiqueResult{
		OverallScore:    7.0,
		IsPlanValid:     true,
		ConfidenceLevel: 0.5,
		Issues: []core.Issue{
			{
				Category:    core.IssuePlanOptimization,
				Severity:    core.SeverityLow,
				Description: "Plan critique could not be completed",
				Suggestion:  "Manual review recommended",
			},
		},
		Suggestions: []core.Suggestion{
			{
				Category:                 string(core.IssuePlanOptimization),
				Description:              "Manual validation of plan logic",
				ImplementationDifficulty: "medium",
				ExpectedBenefit:          "medium",
			},
		},
		ImprovedPlan:      &original,
		Summary:           "Critique system encountered an error, using original plan",
		CritiqueError:     true,
		OriginalPlanScore: EstimatePlanQuality(plan),
	}
}

// EstimatePlanQuality scores a plan with a fast deterministic heuristic,
// clamped to [1, 10]. It is attached to critiques for traceability and used
// as a sanity baseline; it never replaces the model's score.
func EstimatePlanQuality(plan core.Plan) float64 {
	if len(plan.Steps) == 0 {
		return 3.0
	}

	score := 5.0

	if plan.Description != "" {
		score += 1.0
	}

	valid := true
	seen := make(map[string]struct{}, len(plan.Steps))
	duplicate := false
	for _, step := range plan.Steps {
		if step.ID == "" || step.Type == "" {
			valid = false
		}
		if _, ok := seen[step.ID]; ok {
			duplicate = true
		}
		seen[step.ID] = struct{}{}
	}
	if valid {
		score += 1.0
	}
	if duplicate {
		score -= 2.0
	}

	if plan.MemoryUpdate.Action == core.MemoryActionSave {
		score += 0.5
	}

	if score < 1.0 {
		return 1.0
	}
	if score > 10.0 {
		return 10.0
	}
	return score
}

// ParameterIssue is one problem with a tool invocation's parameters.
type ParameterIssue struct {
	Parameter string `json:"parameter"`
	Issue     string `json:"issue"`
	Message   string `json:"message"`
}

// ToolUsageReport is the result of validating one tool invocation before
// execution. All parameter issues are collected, not just the first.
type ToolUsageReport struct {
	IsValid     bool             `json:"is_valid"`
	ToolName    string           `json:"tool_name"`
	IssueType   string           `json:"issue_type,omitempty"`
	Message     string           `json:"message,omitempty"`
	Issues      []ParameterIssue `json:"validation_issues,omitempty"`
	Suggestions []string         `json:"suggestions,omitempty"`
}

// ValidateToolUsage checks a tool invocation against the tool's declared
// parameter schema: required parameters must be present and provided values
// must match their declared types.
func ValidateToolUsage(toolName string, parameters map[string]any, availableTools []tool.Config) ToolUsageReport {
	var found *tool.Config
	for i := range availableTools {
		if availableTools[i].Name == toolName {
			found = &availableTools[i]
			break
		}
	}
	if found == nil {
		return ToolUsageReport{
			IsValid:   false,
			ToolName:  toolName,
			IssueType: "tool_not_found",
			Message:   fmt.Sprintf("Tool '%s' is not available", toolName),
		}
	}

	var issues []ParameterIssue

	for name, rawSchema := range found.Parameters {
		schema, ok := rawSchema.(map[string]any)
		if !ok {
			continue
		}
		if required, _ := schema["required"].(bool); required {
			if _, present := parameters[name]; !present {
				issues = append(issues, ParameterIssue{
					Parameter: name,
					Issue:     "required_parameter_missing",
					Message:   fmt.Sprintf("Required parameter '%s' is missing", name),
				})
			}
		}
	}

	for name, value := range parameters {
		rawSchema, ok := found.Parameters[name]
		if !ok {
			continue
		}
		schema, ok := rawSchema.(map[string]any)
		if !ok {
			continue
		}
		expectedType, _ := schema["type"].(string)
		if expectedType == "" {
			expectedType = "string"
		}
		if !util.MatchesSchemaType(value, expectedType) {
			issues = append(issues, ParameterIssue{
				Parameter: name,
				Issue:     "incorrect_type",
				Message:   fmt.Sprintf("Parameter '%s' should be of type %s", name, expectedType),
			})
		}
	}

	return ToolUsageReport{
		IsValid:     len(issues) == 0,
		ToolName:    toolName,
		Issues:      issues,
		Suggestions: usageSuggestions(*found, parameters),
	}
}

// usageSuggestions returns advisory hints for a tool invocation.
func usageSuggestions(cfg tool.Config, parameters map[string]any) []string {
	var suggestions []string

	if cfg.PriceUSD > 0.01 {
		suggestions = append(suggestions, "Consider if this tool is cost-effective for your use case")
	}

	switch cfg.Name {
	case "web_search_serper":
		suggestions = append(suggestions, "For simple queries, consider using wikipedia_search for faster results")
		if query, ok := parameters["query"].(string); ok {
			if len(query) < 5 {
				suggestions = append(suggestions, "Query is very short, consider adding more specific terms")
			} else if len(query) > 100 {
				suggestions = append(suggestions, "Query is very long, consider making it more concise")
			}
		}
	case "wikipedia_search":
		suggestions = append(suggestions, "For real-time information, web_search_serper might be more current")
	}

	return suggestions
}

// formatToolsContext renders the tool inventory the critique prompt sees.
func formatToolsContext(tools []tool.Config) string {
	var lines []string
	for _, cfg := range tools {
		lines = append(lines, fmt.Sprintf("- %s: %s", cfg.Name, cfg.Description))
		if len(cfg.Parameters) > 0 {
			names := make([]string, 0, len(cfg.Parameters))
			for name := range cfg.Parameters {
				names = append(names, name)
			}
			sort.Strings(names)
			params := make([]string, len(names))
			for i, name := range names {
				params[i] = fmt.Sprintf("%s: %v", name, cfg.Parameters[name])
			}
			lines = append(lines, "  Parameters: "+strings.Join(params, ", "))
		}
		if cfg.PriceUSD > 0 {
			lines = append(lines, fmt.Sprintf("  Cost: $%g", cfg.PriceUSD))
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
