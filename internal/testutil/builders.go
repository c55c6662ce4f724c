// Package testutil contains helper builders used across tests to reduce
// boilerplate when constructing plans, steps and tasks. These helpers are
// intentionally minimal and avoid adding third-party dependencies. They are
// not intended for production usage.
package testutil

import (
	"github.com/hupe1980/planmesh/core"
)

// StepBuilder provides a fluent helper for constructing plan steps in tests.
// Example:
//
//	step := NewStepBuilder("s1").Tool("advanced_calculator").Param("expression", "2+2").Build()
//
// Chain only the parts you need; sensible defaults are applied.
type StepBuilder struct {
	step core.Step
}

// NewStepBuilder creates a builder for a TOOL_CALL step with the given ID.
func NewStepBuilder(id string) *StepBuilder {
	return &StepBuilder{step: core.Step{ID: id, Type: core.StepToolCall}}
}

// Type overrides the step type (chainable).
func (b *StepBuilder) Type(t core.StepType) *StepBuilder { b.step.Type = t; return b }

// Tool sets the tool name (chainable).
func (b *StepBuilder) Tool(name string) *StepBuilder { b.step.Tool = name; return b }

// Description sets the step description (chainable).
func (b *StepBuilder) Description(d string) *StepBuilder { b.step.Description = d; return b }

// Param adds one parameter (chainable).
func (b *StepBuilder) Param(key string, value any) *StepBuilder {
	if b.step.Parameters == nil {
		b.step.Parameters = make(map[string]any)
	}
	b.step.Parameters[key] = value
	return b
}

// DependsOn appends dependency step IDs (chainable).
func (b *StepBuilder) DependsOn(ids ...string) *StepBuilder {
	b.step.Dependencies = append(b.step.Dependencies, ids...)
	return b
}

// Build returns the constructed step.
func (b *StepBuilder) Build() core.Step { return b.step }

// PlanBuilder provides a fluent helper for constructing plans in tests.
type PlanBuilder struct {
	plan core.Plan
}

// NewPlanBuilder creates a builder for an execute_plan plan with a
// no-op memory update.
func NewPlanBuilder() *PlanBuilder {
	return &PlanBuilder{plan: core.Plan{
		Intent:       core.IntentExecutePlan,
		MemoryUpdate: core.MemoryUpdate{Action: core.MemoryActionNone},
	}}
}

// Intent overrides the plan intent (chainable).
func (b *PlanBuilder) Intent(i core.Intent) *PlanBuilder { b.plan.Intent = i; return b }

// Description sets the plan description (chainable).
func (b *PlanBuilder) Description(d string) *PlanBuilder { b.plan.Description = d; return b }

// Steps appends steps to the plan (chainable).
func (b *PlanBuilder) Steps(steps ...core.Step) *PlanBuilder {
	b.plan.Steps = append(b.plan.Steps, steps...)
	return b
}

// SaveMemory sets a memory-save update with the given data (chainable).
func (b *PlanBuilder) SaveMemory(data map[string]any) *PlanBuilder {
	b.plan.MemoryUpdate = core.MemoryUpdate{Action: core.MemoryActionSave, Data: data}
	return b
}

// Build returns the constructed plan.
func (b *PlanBuilder) Build() core.Plan { return b.plan }

// TaskBuilder provides a fluent helper for constructing agent tasks in tests.
type TaskBuilder struct {
	task core.Task
}

// NewTaskBuilder creates a builder for a generic task with the given ID.
func NewTaskBuilder(id string) *TaskBuilder {
	return &TaskBuilder{task: core.Task{ID: id, Type: core.TaskGeneric}}
}

// Type overrides the task type (chainable).
func (b *TaskBuilder) Type(t core.TaskType) *TaskBuilder { b.task.Type = t; return b }

// Data adds one data entry (chainable).
func (b *TaskBuilder) Data(key string, value any) *TaskBuilder {
	if b.task.Data == nil {
		b.task.Data = make(map[string]any)
	}
	b.task.Data[key] = value
	return b
}

// Strategy sets the coordination strategy (chainable).
func (b *TaskBuilder) Strategy(s core.CoordinationStrategy) *TaskBuilder {
	b.task.Strategy = s
	return b
}

// Assign appends a child assignment (chainable).
func (b *TaskBuilder) Assign(agentID string, task core.Task) *TaskBuilder {
	b.task.Assignments = append(b.task.Assignments, core.Assignment{AgentID: agentID, Task: task})
	return b
}

// RequestTool appends a tool request (chainable).
func (b *TaskBuilder) RequestTool(name string, params map[string]any) *TaskBuilder {
	b.task.Tools = append(b.task.Tools, core.ToolRequest{Name: name, Parameters: params})
	return b
}

// States sets the initial and target states for iterative tasks (chainable).
func (b *TaskBuilder) States(initial, target map[string]any) *TaskBuilder {
	b.task.InitialState = initial
	b.task.TargetState = target
	return b
}

// Build returns the constructed task.
func (b *TaskBuilder) Build() core.Task { return b.task }
