package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/logging"
)

// Coordinator manages a set of child agents and fans work out to them.
//
// The parallel strategy launches every assignment concurrently and joins all
// of them before returning; a failing child never cancels its siblings, and
// failed results are filtered out of the result set. The sequential strategy
// runs assignments one at a time in listed order and accumulates every
// result, errors included, with no early exit.
type Coordinator struct {
	BaseAgent

	mu      sync.RWMutex
	managed map[string]core.AgentRunner
	order   []string
}

// NewCoordinator creates a coordinator with no managed agents.
func NewCoordinator(id, name, description string, logger logging.Logger) *Coordinator {
	return &Coordinator{
		BaseAgent: NewBaseAgent(id, TypeCoordinator, name, description, logger),
		managed:   make(map[string]core.AgentRunner),
	}
}

// ManageAgent registers a child agent for coordination.
func (c *Coordinator) ManageAgent(a core.AgentRunner) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.managed[a.ID()]; !exists {
		c.order = append(c.order, a.ID())
	}
	c.managed[a.ID()] = a
	c.logger.Info("Registered agent with coordinator", "coordinator", c.name, "agent", a.Name())
}

// ManagedCount returns the number of registered child agents.
func (c *Coordinator) ManagedCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.managed)
}

func (c *Coordinator) managedAgent(id string) (core.AgentRunner, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.managed[id]
	return a, ok
}

// Capabilities implements core.AgentRunner.
func (c *Coordinator) Capabilities() []string {
	return []string{
		"multi-agent coordination",
		"load balancing",
		"conflict resolution",
		"task distribution",
		"agent management",
	}
}

// Execute runs one coordination task.
func (c *Coordinator) Execute(ctx context.Context, task core.Task) (core.TaskResult, error) {
	if err := ctx.Err(); err != nil {
		return core.TaskResult{}, err
	}

	c.setStatus(StatusBusy)
	start := time.Now()

	var (
		payload  map[string]any
		children []core.TaskResult
		err      error
	)

	switch task.Type {
	case core.TaskAgentCoordination:
		children, payload, err = c.coordinate(ctx, task)
	case core.TaskLoadBalancing:
		payload = c.balanceLoad()
	case core.TaskConflictResolution:
		payload = c.resolveConflicts(task)
	default:
		payload = map[string]any{
			"coordination_type": "generic",
			"message":           "Generic coordination task completed",
		}
	}

	result := c.finish(task, start, payload, err)
	result.Children = children
	return result, nil
}

// coordinate dispatches child assignments according to the task's strategy.
func (c *Coordinator) coordinate(ctx context.Context, task core.Task) ([]core.TaskResult, map[string]any, error) {
	var results []core.TaskResult

	switch task.Strategy {
	case core.StrategyParallel:
		results = c.runParallel(ctx, task.Assignments)
	case core.StrategySequential, "":
		results = c.runSequential(ctx, task.Assignments)
	default:
		return nil, nil, fmt.Errorf("unknown coordination strategy: %s", task.Strategy)
	}

	payload := map[string]any{
		"coordination_type":  "agent_coordination",
		"strategy":           string(task.Strategy),
		"coordinated_agents": len(task.Assignments),
	}
	return results, payload, nil
}

// runParallel executes all assignments concurrently and joins them.
// Individual failures are discarded rather than aborting the batch.
func (c *Coordinator) runParallel(ctx context.Context, assignments []core.Assignment) []core.TaskResult {
	slots := make([]*core.TaskResult, len(assignments))

	var wg sync.WaitGroup
	for i, assignment := range assignments {
		child, ok := c.managedAgent(assignment.AgentID)
		if !ok {
			c.logger.Warn("Skipping unknown child agent", "agent_id", assignment.AgentID)
			continue
		}

		wg.Add(1)
		go func(i int, child core.AgentRunner, childTask core.Task) {
			defer wg.Done()
			result, err := child.Execute(ctx, childTask)
			if err != nil {
				c.logger.Warn("Parallel child execution failed", "agent", child.Name(), "error", err.Error())
				return
			}
			slots[i] = &result
		}(i, child, assignment.Task)
	}
	wg.Wait()

	results := make([]core.TaskResult, 0, len(assignments))
	for _, slot := range slots {
		if slot != nil && slot.Completed() {
			results = append(results, *slot)
		}
	}
	return results
}

// runSequential executes assignments one at a time in listed order,
// accumulating all results without early exit on child failure.
func (c *Coordinator) runSequential(ctx context.Context, assignments []core.Assignment) []core.TaskResult {
	results := make([]core.TaskResult, 0, len(assignments))
	for _, assignment := range assignments {
		child, ok := c.managedAgent(assignment.AgentID)
		if !ok {
			c.logger.Warn("Skipping unknown child agent", "agent_id", assignment.AgentID)
			continue
		}
		result, err := child.Execute(ctx, assignment.Task)
		if err != nil {
			errResult := core.TaskResult{
				AgentID: child.ID(),
				Status:  "error",
				Error:   err.Error(),
			}
			if typed, ok := child.(Agent); ok {
				errResult.AgentType = string(typed.Type())
			}
			results = append(results, errResult)
			continue
		}
		results = append(results, result)
	}
	return results
}

// balanceLoad reports how many managed agents are currently idle. Agents
// that do not expose a status are counted as available.
func (c *Coordinator) balanceLoad() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	available := 0
	for _, a := range c.managed {
		if typed, ok := a.(Agent); ok {
			if typed.Status() == StatusBusy {
				continue
			}
		}
		available++
	}
	return map[string]any{
		"load_balancing":   true,
		"available_agents": available,
		"total_agents":     len(c.managed),
	}
}

func (c *Coordinator) resolveConflicts(task core.Task) map[string]any {
	conflicts, _ := task.Data["conflicts"].([]any)
	return map[string]any{
		"conflict_resolution": true,
		"conflicts_resolved":  len(conflicts),
		"resolution_strategy": "priority_based",
	}
}
