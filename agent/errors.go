package agent

import "fmt"

// AgentNotFoundError is returned when an agent id does not resolve in the
// Manager's registry.
type AgentNotFoundError struct {
	AgentID string
}

// Error implements the error interface.
func (e *AgentNotFoundError) Error() string {
	return fmt.Sprintf("agent not found: %s", e.AgentID)
}

// HierarchyNotFoundError is returned when a hierarchy name does not resolve
// in the Manager's registry.
type HierarchyNotFoundError struct {
	Hierarchy string
}

// Error implements the error interface.
func (e *HierarchyNotFoundError) Error() string {
	return fmt.Sprintf("hierarchy not found: %s", e.Hierarchy)
}
