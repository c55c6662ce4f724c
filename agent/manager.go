package agent

import (
	"context"
	"sync"

	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/logging"
)

// Hierarchy names a root agent and its subordinate agents. When executed,
// the root receives the task first, then each child receives a follow-up
// task carrying the root's result.
type Hierarchy struct {
	Name     string
	RootID   string
	ChildIDs []string
}

// Manager is a thread-safe registry of agents and agent hierarchies.
type Manager struct {
	mu          sync.RWMutex
	agents      map[string]Agent
	hierarchies map[string]Hierarchy
	logger      logging.Logger
}

// ManagerOptions holds the options for a Manager.
type ManagerOptions struct {
	// Logger is the structured logger to use.
	Logger logging.Logger
}

// NewManager creates an empty agent manager.
func NewManager(optFns ...func(o *ManagerOptions)) *Manager {
	opts := ManagerOptions{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Manager{
		agents:      make(map[string]Agent),
		hierarchies: make(map[string]Hierarchy),
		logger:      opts.Logger,
	}
}

// RegisterAgent adds an agent to the manager. Re-registering an ID replaces
// the previous agent.
func (m *Manager) RegisterAgent(a Agent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.agents[a.ID()] = a
	m.logger.Info("Registered agent", "agent_id", a.ID(), "agent_type", string(a.Type()))
}

// Agent returns the agent with the given ID.
func (m *Manager) Agent(id string) (Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.agents[id]
	if !ok {
		return nil, &AgentNotFoundError{AgentID: id}
	}
	return a, nil
}

// AgentsByType returns all registered agents of the given type.
func (m *Manager) AgentsByType(agentType Type) []Agent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []Agent
	for _, a := range m.agents {
		if a.Type() == agentType {
			matched = append(matched, a)
		}
	}
	return matched
}

// CreateHierarchy records a named hierarchy. All referenced agents must
// already be registered.
func (m *Manager) CreateHierarchy(name, rootID string, childIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.agents[rootID]; !ok {
		return &AgentNotFoundError{AgentID: rootID}
	}
	for _, id := range childIDs {
		if _, ok := m.agents[id]; !ok {
			return &AgentNotFoundError{AgentID: id}
		}
	}

	m.hierarchies[name] = Hierarchy{
		Name:     name,
		RootID:   rootID,
		ChildIDs: append([]string(nil), childIDs...),
	}
	m.logger.Info("Created agent hierarchy", "hierarchy", name, "root", rootID, "children", len(childIDs))
	return nil
}

// ExecuteHierarchical runs a task through a named hierarchy. The root agent
// executes the task, then each child executes a subordinate task carrying
// the root's result. Child failures do not abort the remaining children.
func (m *Manager) ExecuteHierarchical(ctx context.Context, name string, task core.Task) (core.TaskResult, error) {
	m.mu.RLock()
	hierarchy, ok := m.hierarchies[name]
	m.mu.RUnlock()
	if !ok {
		return core.TaskResult{}, &HierarchyNotFoundError{Hierarchy: name}
	}

	root, err := m.Agent(hierarchy.RootID)
	if err != nil {
		return core.TaskResult{}, err
	}

	rootResult, err := root.Execute(ctx, task)
	if err != nil {
		return core.TaskResult{}, err
	}

	totalTime := rootResult.ExecutionTime
	for _, childID := range hierarchy.ChildIDs {
		child, err := m.Agent(childID)
		if err != nil {
			return core.TaskResult{}, err
		}

		childTask := core.Task{
			ID:           task.ID + "_sub_" + childID,
			Type:         core.TaskSubordinate,
			Data:         task.Data,
			ParentResult: &rootResult,
		}
		childResult, err := child.Execute(ctx, childTask)
		if err != nil {
			m.logger.Warn("Subordinate execution failed", "hierarchy", name, "agent_id", childID, "error", err.Error())
			continue
		}
		totalTime += childResult.ExecutionTime
		rootResult.Children = append(rootResult.Children, childResult)
	}

	rootResult.ExecutionTime = totalTime
	return rootResult, nil
}

// SystemStatus reports agent counts per type and an overall health marker.
// Health degrades when any agent is in the error status.
func (m *Manager) SystemStatus() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int)
	health := "healthy"
	for _, a := range m.agents {
		counts[string(a.Type())]++
		if a.Status() == StatusError {
			health = "degraded"
		}
	}

	return map[string]any{
		"total_agents":   len(m.agents),
		"agents_by_type": counts,
		"hierarchies":    len(m.hierarchies),
		"system_health":  health,
	}
}
