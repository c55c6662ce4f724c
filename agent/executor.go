package agent

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/logging"
)

// ToolInvoker abstracts the tool registry so the executor agent can invoke
// tools without depending on the registry implementation.
type ToolInvoker interface {
	Invoke(ctx context.Context, name string, params map[string]any) (map[string]any, error)
}

const maxIterations = 5

// Executor carries out concrete work: direct tasks, tool invocation
// sequences, and iterative refinement toward a target state.
type Executor struct {
	BaseAgent

	tools ToolInvoker
}

// NewExecutor creates an executor agent. The invoker may be nil, in which
// case tool_based tasks report per-tool errors.
func NewExecutor(id, name, description string, tools ToolInvoker, logger logging.Logger) *Executor {
	return &Executor{
		BaseAgent: NewBaseAgent(id, TypeExecutor, name, description, logger),
		tools:     tools,
	}
}

// Capabilities implements core.AgentRunner.
func (e *Executor) Capabilities() []string {
	return []string{
		"direct task execution",
		"tool-based execution",
		"iterative refinement",
		"state convergence",
	}
}

// Execute runs one execution task.
func (e *Executor) Execute(ctx context.Context, task core.Task) (core.TaskResult, error) {
	if err := ctx.Err(); err != nil {
		return core.TaskResult{}, err
	}

	e.setStatus(StatusBusy)
	start := time.Now()

	var (
		payload    map[string]any
		iterations int
		converged  bool
	)

	switch task.Type {
	case core.TaskDirect:
		payload = e.executeDirect(task)
	case core.TaskToolBased:
		payload = e.executeWithTools(ctx, task)
	case core.TaskIterative:
		payload, iterations, converged = e.executeIterative(ctx, task)
	default:
		payload = map[string]any{
			"execution_type": "generic",
			"message":        "Generic execution task completed",
		}
	}

	result := e.finish(task, start, payload, nil)
	result.Iterations = iterations
	result.Converged = converged
	return result, nil
}

func (e *Executor) executeDirect(task core.Task) map[string]any {
	return map[string]any{
		"execution_type": "direct",
		"task_data":      task.Data,
		"result":         "Direct task executed successfully",
	}
}

// executeWithTools invokes each requested tool in order. Tool failures are
// captured in the per-tool result entry and never abort the sequence.
func (e *Executor) executeWithTools(ctx context.Context, task core.Task) map[string]any {
	toolResults := make([]map[string]any, 0, len(task.Tools))
	for _, req := range task.Tools {
		entry := map[string]any{"tool": req.Name}

		if e.tools == nil {
			entry["error"] = "no tool invoker configured"
			toolResults = append(toolResults, entry)
			continue
		}

		output, err := e.tools.Invoke(ctx, req.Name, req.Parameters)
		if err != nil {
			e.logger.Warn("Tool invocation failed", "tool", req.Name, "error", err.Error())
			entry["error"] = err.Error()
		} else {
			entry["result"] = output
		}
		toolResults = append(toolResults, entry)
	}

	return map[string]any{
		"execution_type": "tool_based",
		"tools_used":     len(task.Tools),
		"tool_results":   toolResults,
	}
}

// executeIterative refines the task state toward the target state, stopping
// on convergence, context cancellation, or the iteration cap.
func (e *Executor) executeIterative(ctx context.Context, task core.Task) (map[string]any, int, bool) {
	state := make(map[string]any, len(task.InitialState))
	for k, v := range task.InitialState {
		state[k] = v
	}

	iterations := 0
	converged := false
	for iterations < maxIterations {
		if ctx.Err() != nil {
			break
		}
		iterations++
		state[fmt.Sprintf("iteration_%d", iterations)] = true

		if task.TargetState != nil && reflect.DeepEqual(stateSubset(state, task.TargetState), task.TargetState) {
			converged = true
			break
		}
	}

	payload := map[string]any{
		"execution_type": "iterative",
		"iterations":     iterations,
		"converged":      converged,
		"final_state":    state,
	}
	return payload, iterations, converged
}

// stateSubset projects state onto the keys of target, so convergence compares
// only the fields the target actually constrains.
func stateSubset(state, target map[string]any) map[string]any {
	subset := make(map[string]any, len(target))
	for k := range target {
		if v, ok := state[k]; ok {
			subset[k] = v
		}
	}
	return subset
}
