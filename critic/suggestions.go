package critic

import (
	"sort"
	"strings"

	"github.com/hupe1980/planmesh/core"
)

// improvementLibrary maps issue categories to canned remediation advice.
var improvementLibrary = map[core.IssueCategory][]string{
	core.IssuePlanOptimization: {
		"Simplify complex steps",
		"Remove redundant operations",
		"Improve step dependencies",
		"Use more efficient tool combinations",
	},
	core.IssueToolSelection: {
		"Consider alternative tools that might be more suitable",
		"Check if there are more accurate or faster tools available",
		"Validate tool parameters and inputs",
		"Ensure tool compatibility with the use case",
	},
	core.IssueLogicValidation: {
		"Verify step sequence logic",
		"Check for logical inconsistencies",
		"Ensure dependencies are correctly ordered",
		"Validate business logic flow",
	},
	core.IssueCostOptimization: {
		"Identify expensive operations",
		"Suggest cost-effective alternatives",
		"Balance accuracy vs cost trade-offs",
		"Prioritize essential vs nice-to-have steps",
	},
}

var severityRank = map[core.Severity]int{
	core.SeverityCritical: 4,
	core.SeverityHigh:     3,
	core.SeverityMedium:   2,
	core.SeverityLow:      1,
}

// ActionableSuggestion is one concrete remediation derived from a critique
// issue, annotated with rough effort and impact estimates.
type ActionableSuggestion struct {
	IssueCategory    core.IssueCategory `json:"issue_category"`
	IssueDescription string             `json:"issue_description"`
	Suggestion       string             `json:"suggestion"`
	Severity         core.Severity      `json:"severity"`
	EstimatedEffort  string             `json:"estimated_effort"`
	ExpectedImpact   string             `json:"expected_impact"`
}

// ImprovementSuggestions expands the issues in a critique into actionable
// remediation items, sorted by severity then expected impact.
func ImprovementSuggestions(result core.CritiqueResult) []ActionableSuggestion {
	var suggestions []ActionableSuggestion

	for _, issue := range result.Issues {
		for _, advice := range improvementLibrary[issue.Category] {
			suggestions = append(suggestions, ActionableSuggestion{
				IssueCategory:    issue.Category,
				IssueDescription: issue.Description,
				Suggestion:       advice,
				Severity:         issue.Severity,
				EstimatedEffort:  estimateByKeywords(advice, effortKeywords, "medium"),
				ExpectedImpact:   estimateByKeywords(advice, impactKeywords, "medium"),
			})
		}
	}

	impactRank := map[string]int{"high": 3, "medium": 2, "low": 1}
	sort.SliceStable(suggestions, func(i, j int) bool {
		if severityRank[suggestions[i].Severity] != severityRank[suggestions[j].Severity] {
			return severityRank[suggestions[i].Severity] > severityRank[suggestions[j].Severity]
		}
		return impactRank[suggestions[i].ExpectedImpact] > impactRank[suggestions[j].ExpectedImpact]
	})

	return suggestions
}

var effortKeywords = []struct {
	level    string
	keywords []string
}{
	{"low", []string{"simplify", "remove", "basic", "quick"}},
	{"medium", []string{"improve", "optimize", "enhance", "adjust"}},
	{"high", []string{"restructure", "rebuild", "complex", "major"}},
}

var impactKeywords = []struct {
	level    string
	keywords []string
}{
	{"high", []string{"major", "critical", "essential", "significant"}},
	{"medium", []string{"improve", "enhance", "better", "optimize"}},
	{"low", []string{"minor", "nice-to-have", "optional", "simple"}},
}

func estimateByKeywords(text string, table []struct {
	level    string
	keywords []string
}, fallback string) string {
	lowered := strings.ToLower(text)
	for _, entry := range table {
		for _, keyword := range entry.keywords {
			if strings.Contains(lowered, keyword) {
				return entry.level
			}
		}
	}
	return fallback
}
