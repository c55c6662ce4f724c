package core

// Intent classifies what a plan intends to do with a request: answer it
// directly or execute an ordered set of tool steps.
type Intent string

const (
	// IntentDirectAnswer marks a request that can be answered without tools.
	IntentDirectAnswer Intent = "direct_answer"
	// IntentExecutePlan marks a request that requires tool execution.
	IntentExecutePlan Intent = "execute_plan"
)

// StepType is the closed set of step kinds a plan may contain. Dispatch on
// StepType is always a switch so the compiler flags unhandled variants.
type StepType string

const (
	// StepToolCall executes a named tool from the registry.
	StepToolCall StepType = "TOOL_CALL"
	// StepDirectAnswer marks a step whose answer is synthesized by the caller.
	StepDirectAnswer StepType = "DIRECT_ANSWER"
)

// MemoryAction indicates whether a plan requests a memory update.
type MemoryAction string

const (
	// MemoryActionSave requests persisting the attached data.
	MemoryActionSave MemoryAction = "save"
	// MemoryActionNone requests no memory change.
	MemoryActionNone MemoryAction = "none"
)

// Step is one unit of work in a plan: either a tool invocation or a marker
// for a direct answer.
//
// Invariants enforced by the executor: ID is unique within the plan, every
// entry in Dependencies names another step's ID in the same plan, no cycle
// exists among dependency edges, and Tool resolves in the registry whenever
// Type is StepToolCall.
type Step struct {
	ID           string         `json:"id"`
	Type         StepType       `json:"type"`
	Tool         string         `json:"tool,omitempty"`
	Description  string         `json:"description"`
	Parameters   map[string]any `json:"parameters,omitempty"`
	Dependencies []string       `json:"dependencies,omitempty"`

	// OriginalTool records the tool this step named before hierarchical
	// optimization substituted a recommended equivalent.
	OriginalTool string `json:"original_tool,omitempty"`
}

// Clone returns a deep copy of the step.
func (s Step) Clone() Step {
	cp := s
	if s.Parameters != nil {
		cp.Parameters = make(map[string]any, len(s.Parameters))
		for k, v := range s.Parameters {
			cp.Parameters[k] = v
		}
	}
	if s.Dependencies != nil {
		cp.Dependencies = append([]string(nil), s.Dependencies...)
	}
	return cp
}

// MemoryUpdate is the memory side effect a plan requests from the caller.
type MemoryUpdate struct {
	Action MemoryAction   `json:"action"`
	Data   map[string]any `json:"data,omitempty"`
}

// SelfCorrection captures the outcome of the planner's bounded critique loop.
// It is attached to every plan that went through self-correction gating,
// regardless of which branch the loop took.
type SelfCorrection struct {
	Applied    bool             `json:"applied"`
	Iterations int              `json:"iterations"`
	FinalScore float64          `json:"final_score"`
	History    []CritiqueResult `json:"history,omitempty"`
}

// MemoryEnhancementReason explains why memory enhancement did or did not fire.
type MemoryEnhancementReason string

const (
	// ReasonNoRelevantMemories means retrieval returned nothing at all.
	ReasonNoRelevantMemories MemoryEnhancementReason = "no_relevant_memories"
	// ReasonBelowThreshold means candidates existed but all scored under the
	// configured relevance threshold.
	ReasonBelowThreshold MemoryEnhancementReason = "below_threshold"
)

// MemoryEnhancement records how retrieved memories changed the plan.
type MemoryEnhancement struct {
	Applied          bool                    `json:"applied"`
	Reason           MemoryEnhancementReason `json:"reason,omitempty"`
	MemoriesUsed     int                     `json:"memories_used,omitempty"`
	AverageRelevance float64                 `json:"average_relevance,omitempty"`
	MaxRelevance     float64                 `json:"max_relevance,omitempty"`
	MemoryTypes      []string                `json:"memory_types,omitempty"`
}

// ToolOptimization records the advisory hierarchical tool substitution pass.
type ToolOptimization struct {
	Applied          bool           `json:"applied"`
	Reason           string         `json:"reason,omitempty"`
	RecommendedTools []string       `json:"recommended_tools,omitempty"`
	OptimizedSteps   int            `json:"optimized_steps,omitempty"`
	Scores           map[string]int `json:"tool_scores,omitempty"`
}

// Plan is the full intended action for one request. It is created by the
// planner, replaced (never edited in place) by critique improvements, and
// treated as immutable once handed to the executor.
type Plan struct {
	Intent       Intent       `json:"intent"`
	Description  string       `json:"description"`
	Steps        []Step       `json:"steps"`
	MemoryUpdate MemoryUpdate `json:"memory_update"`

	// Fallback is set when the planner recovered from unparsable model
	// output with a deterministic direct-answer plan.
	Fallback bool `json:"fallback,omitempty"`

	SelfCorrection    *SelfCorrection    `json:"self_correction,omitempty"`
	MemoryEnhancement *MemoryEnhancement `json:"memory_enhancement,omitempty"`
	ToolOptimization  *ToolOptimization  `json:"tool_optimization,omitempty"`
}

// Clone returns a deep copy of the plan's core fields. Annotations are copied
// by reference since they are written once and never mutated afterwards.
func (p Plan) Clone() Plan {
	cp := p
	if p.Steps != nil {
		cp.Steps = make([]Step, len(p.Steps))
		for i, s := range p.Steps {
			cp.Steps[i] = s.Clone()
		}
	}
	if p.MemoryUpdate.Data != nil {
		cp.MemoryUpdate.Data = make(map[string]any, len(p.MemoryUpdate.Data))
		for k, v := range p.MemoryUpdate.Data {
			cp.MemoryUpdate.Data[k] = v
		}
	}
	return cp
}

// StepIDs returns the IDs of all steps in declaration order.
func (p Plan) StepIDs() []string {
	ids := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		ids[i] = s.ID
	}
	return ids
}
