package core

import (
	"context"
	"time"
)

// TaskType is the closed set of work kinds a sub-agent can be asked to
// perform. Every agent dispatches on TaskType with a switch; unknown types
// fall through to the agent's generic handler.
type TaskType string

const (
	// TaskDomainAnalysis asks a specialist to analyze its domain input.
	TaskDomainAnalysis TaskType = "domain_analysis"
	// TaskDomainSynthesis asks a specialist to synthesize domain output.
	TaskDomainSynthesis TaskType = "domain_synthesis"
	// TaskDomainValidation asks a specialist to validate domain data.
	TaskDomainValidation TaskType = "domain_validation"

	// TaskAgentCoordination asks a coordinator to fan work out to children.
	TaskAgentCoordination TaskType = "agent_coordination"
	// TaskLoadBalancing asks a coordinator to report spare capacity.
	TaskLoadBalancing TaskType = "load_balancing"
	// TaskConflictResolution asks a coordinator to settle competing results.
	TaskConflictResolution TaskType = "conflict_resolution"

	// TaskDirect asks an executor agent to run the task in one shot.
	TaskDirect TaskType = "direct"
	// TaskToolBased asks an executor agent to run the named sub-tools.
	TaskToolBased TaskType = "tool_based"
	// TaskIterative asks an executor agent to iterate toward a target state.
	TaskIterative TaskType = "iterative"

	// TaskSubordinate is the derived task a hierarchy hands to child agents,
	// carrying the root agent's result.
	TaskSubordinate TaskType = "subordinate_task"
	// TaskGeneric is the catch-all used when a tool invocation does not name
	// a more specific task type.
	TaskGeneric TaskType = "general"
)

// CoordinationStrategy selects how a coordinator runs child assignments.
type CoordinationStrategy string

const (
	// StrategySequential runs assignments one at a time in listed order.
	StrategySequential CoordinationStrategy = "sequential"
	// StrategyParallel runs all assignments concurrently and joins them.
	StrategyParallel CoordinationStrategy = "parallel"
)

// Assignment binds a child agent to the task a coordinator hands it.
type Assignment struct {
	AgentID string `json:"agent_id"`
	Task    Task   `json:"task"`
}

// ToolRequest names a sub-tool an executor agent should run with the given
// parameters during tool-based execution.
type ToolRequest struct {
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Task is one unit of sub-agent work. Only the fields relevant to the task's
// type are populated; Data carries free-form input for domain handlers.
type Task struct {
	ID   string         `json:"id"`
	Type TaskType       `json:"type"`
	Data map[string]any `json:"data,omitempty"`

	// Coordination (TaskAgentCoordination).
	Strategy    CoordinationStrategy `json:"strategy,omitempty"`
	Assignments []Assignment         `json:"assignments,omitempty"`

	// Tool-based execution (TaskToolBased).
	Tools []ToolRequest `json:"tools,omitempty"`

	// Iterative execution (TaskIterative).
	InitialState map[string]any `json:"initial_state,omitempty"`
	TargetState  map[string]any `json:"target_state,omitempty"`

	// ParentResult carries the root agent's result on subordinate tasks.
	ParentResult *TaskResult `json:"parent_result,omitempty"`
}

// TaskResult is the outcome of one sub-agent execution.
type TaskResult struct {
	AgentID       string        `json:"agent_id"`
	AgentType     string        `json:"agent_type"`
	Status        string        `json:"status"` // "completed" or "error"
	Error         string        `json:"error,omitempty"`
	ExecutionTime time.Duration `json:"execution_time"`

	// Payload carries handler-specific output fields.
	Payload map[string]any `json:"payload,omitempty"`

	// Children holds per-child results for coordination tasks.
	Children []TaskResult `json:"children,omitempty"`

	// Iterative execution outcome.
	Iterations int  `json:"iterations,omitempty"`
	Converged  bool `json:"converged,omitempty"`
}

// Completed reports whether the execution finished without error.
func (r TaskResult) Completed() bool { return r.Status == "completed" }

// AgentRunner is the minimal sub-agent surface the tool registry needs to
// dispatch hierarchical tools. It exists in core so that the tool and agent
// packages can reference each other's behavior without an import cycle.
type AgentRunner interface {
	// ID returns the unique agent identifier.
	ID() string
	// Name returns the human-readable agent name.
	Name() string
	// Capabilities returns the capability tags used for tool scoring.
	Capabilities() []string
	// Execute runs one task. A returned error means the agent itself failed;
	// task-level failures are reported inside the TaskResult.
	Execute(ctx context.Context, task Task) (TaskResult, error)
}
