package planner

import (
	"fmt"

	"github.com/hupe1980/planmesh/core"
)

// LogicIssue is one structural problem found in a plan.
type LogicIssue struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	StepID      string `json:"step_id,omitempty"`
	Severity    string `json:"severity"`
}

// LogicReport is the result of structural plan validation.
type LogicReport struct {
	IsValid         bool         `json:"is_valid"`
	Issues          []LogicIssue `json:"issues,omitempty"`
	Recommendations []string     `json:"recommendations,omitempty"`
}

// ValidateLogic checks a plan's structural integrity: unique step IDs,
// dependencies that resolve within the plan, and an acyclic dependency
// graph. All issues are collected, not just the first.
func ValidateLogic(plan core.Plan) LogicReport {
	report := LogicReport{IsValid: true}

	seen := make(map[string]struct{}, len(plan.Steps))
	duplicate := false
	for _, step := range plan.Steps {
		if _, ok := seen[step.ID]; ok {
			duplicate = true
		}
		seen[step.ID] = struct{}{}
	}
	if duplicate {
		report.Issues = append(report.Issues, LogicIssue{
			Type:        "duplicate_step_ids",
			Description: "Found duplicate step IDs",
			Severity:    "high",
		})
		report.IsValid = false
	}

	for _, step := range plan.Steps {
		for _, dep := range step.Dependencies {
			if _, ok := seen[dep]; !ok {
				report.Issues = append(report.Issues, LogicIssue{
					Type:        "invalid_dependency",
					Description: fmt.Sprintf("Step %s depends on non-existent step %s", step.ID, dep),
					StepID:      step.ID,
					Severity:    "high",
				})
				report.IsValid = false
			}
		}
	}

	if core.HasCycle(plan.Steps) {
		report.Issues = append(report.Issues, LogicIssue{
			Type:        "circular_dependency",
			Description: "Circular dependency detected in plan",
			Severity:    "critical",
		})
		report.IsValid = false
	}

	if len(plan.Steps) > 10 {
		report.Recommendations = append(report.Recommendations, "Plan has many steps, consider breaking into smaller tasks")
	}

	return report
}
