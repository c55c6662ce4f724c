package core

// IssueCategory groups critique findings by the kind of problem found.
type IssueCategory string

const (
	// IssuePlanOptimization covers step count, redundancy and sequencing.
	IssuePlanOptimization IssueCategory = "plan_optimization"
	// IssueToolSelection covers wrong or suboptimal tool choices.
	IssueToolSelection IssueCategory = "tool_selection"
	// IssueLogicValidation covers dependency and ordering mistakes.
	IssueLogicValidation IssueCategory = "logic_validation"
	// IssueCostOptimization covers unnecessarily expensive operations.
	IssueCostOptimization IssueCategory = "cost_optimization"
)

// Severity ranks how badly an issue affects a plan.
type Severity string

const (
	// SeverityLow marks cosmetic or minor findings.
	SeverityLow Severity = "low"
	// SeverityMedium marks findings worth fixing before execution.
	SeverityMedium Severity = "medium"
	// SeverityHigh marks findings that likely break the plan's outcome.
	SeverityHigh Severity = "high"
	// SeverityCritical marks findings that make the plan unexecutable.
	SeverityCritical Severity = "critical"
)

// Issue is a single problem the critic found in a plan.
type Issue struct {
	Category    IssueCategory `json:"category"`
	Severity    Severity      `json:"severity"`
	Description string        `json:"description"`
	StepID      string        `json:"step_id,omitempty"`
	Suggestion  string        `json:"suggestion,omitempty"`
}

// Suggestion is an improvement the critic proposes without flagging an issue.
type Suggestion struct {
	Category                 string `json:"category"`
	Description              string `json:"description"`
	ImplementationDifficulty string `json:"implementation_difficulty,omitempty"`
	ExpectedBenefit          string `json:"expected_benefit,omitempty"`
}

// CritiqueResult is a scored assessment of a plan, optionally carrying a
// replacement plan. Produced once per self-correction iteration; never
// persisted beyond the loop that requested it.
type CritiqueResult struct {
	OverallScore    float64      `json:"overall_score"`
	IsPlanValid     bool         `json:"is_plan_valid"`
	ConfidenceLevel float64      `json:"confidence_level"`
	Issues          []Issue      `json:"issues_found,omitempty"`
	Suggestions     []Suggestion `json:"suggestions,omitempty"`
	ImprovedPlan    *Plan        `json:"improved_plan,omitempty"`
	Summary         string       `json:"summary"`

	// CritiqueError marks a fallback critique produced after the model's
	// output could not be parsed. Self-correction treats it as "accept the
	// plan as-is", never as a hard failure.
	CritiqueError bool `json:"critique_error,omitempty"`

	// OriginalPlanScore is the deterministic heuristic estimate of the plan
	// under review. Attached for traceability; it never substitutes for the
	// model's OverallScore.
	OriginalPlanScore float64 `json:"original_plan_score"`

	TokensUsed int    `json:"critique_token_usage,omitempty"`
	Model      string `json:"critique_model,omitempty"`
}
