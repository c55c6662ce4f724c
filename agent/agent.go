package agent

import (
	"sync"
	"time"

	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/logging"
)

// Type classifies a sub-agent by its role in the hierarchy.
type Type string

const (
	// TypeSpecialist marks domain-specific agents.
	TypeSpecialist Type = "specialist"
	// TypeCoordinator marks agents that fan work out to other agents.
	TypeCoordinator Type = "coordinator"
	// TypeExecutor marks agents that run complex multi-step operations.
	TypeExecutor Type = "executor"
)

// Status is the last-execution marker of an agent. It is not a resource
// lock: concurrent Execute calls are allowed and the field reflects the most
// recent transition, guarded by the agent's mutex.
type Status string

const (
	// StatusIdle means the agent has not run since creation.
	StatusIdle Status = "idle"
	// StatusBusy means an execution is in flight.
	StatusBusy Status = "busy"
	// StatusCompleted means the most recent execution finished cleanly.
	StatusCompleted Status = "completed"
	// StatusError means the most recent execution failed.
	StatusError Status = "error"
)

// Agent is the full sub-agent surface: the runner contract plus typed
// introspection used by the Manager and by tests.
type Agent interface {
	core.AgentRunner
	Type() Type
	Status() Status
}

// maxHistory bounds the per-agent execution history ring.
const maxHistory = 10

// MemoryEntry is one timestamped value in an agent's private memory.
type MemoryEntry struct {
	Value       any       `json:"value"`
	Timestamp   time.Time `json:"timestamp"`
	AccessCount int       `json:"access_count"`
}

// HistoryEntry pairs a task with its result in the bounded history ring.
type HistoryEntry struct {
	Timestamp time.Time       `json:"timestamp"`
	Task      core.Task       `json:"task"`
	Result    core.TaskResult `json:"result"`
}

// BaseAgent bundles identity, the status state machine, private memory and
// the bounded execution history. Embed it in concrete agents and supply a
// dispatch method. All exported methods are goroutine-safe.
type BaseAgent struct {
	id          string
	name        string
	description string
	agentType   Type

	mu      sync.Mutex
	status  Status
	memory  map[string]MemoryEntry
	history []HistoryEntry

	logger logging.Logger
}

// NewBaseAgent constructs a BaseAgent in the idle state.
func NewBaseAgent(id string, agentType Type, name, description string, logger logging.Logger) BaseAgent {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return BaseAgent{
		id:          id,
		name:        name,
		description: description,
		agentType:   agentType,
		status:      StatusIdle,
		memory:      make(map[string]MemoryEntry),
		logger:      logger,
	}
}

// ID returns the unique agent identifier.
func (b *BaseAgent) ID() string { return b.id }

// Name returns the human-readable agent name.
func (b *BaseAgent) Name() string { return b.name }

// Description returns the agent's purpose description.
func (b *BaseAgent) Description() string { return b.description }

// Type returns the agent's role in the hierarchy.
func (b *BaseAgent) Type() Type { return b.agentType }

// Status returns the last-execution marker.
func (b *BaseAgent) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// setStatus records a state transition. Last transition wins under
// concurrent execution.
func (b *BaseAgent) setStatus(status Status) {
	b.mu.Lock()
	old := b.status
	b.status = status
	b.mu.Unlock()
	b.logger.Debug("Agent status transition", "agent", b.name, "from", string(old), "to", string(status))
}

// Remember stores a value in the agent's private memory, preserving the
// access count across overwrites of the same key.
func (b *BaseAgent) Remember(key string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry := b.memory[key]
	b.memory[key] = MemoryEntry{
		Value:       value,
		Timestamp:   time.Now(),
		AccessCount: entry.AccessCount + 1,
	}
}

// Recall reads a value from the agent's private memory, bumping its access
// count. The second return value reports whether the key existed.
func (b *BaseAgent) Recall(key string) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.memory[key]
	if !ok {
		return nil, false
	}
	entry.AccessCount++
	b.memory[key] = entry
	return entry.Value, true
}

// History returns a copy of the bounded execution history, oldest first.
func (b *BaseAgent) History() []HistoryEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]HistoryEntry(nil), b.history...)
}

// recordExecution appends a task/result pair, dropping the oldest entry once
// the ring holds maxHistory items.
func (b *BaseAgent) recordExecution(task core.Task, result core.TaskResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = append(b.history, HistoryEntry{Timestamp: time.Now(), Task: task, Result: result})
	if len(b.history) > maxHistory {
		b.history = b.history[len(b.history)-maxHistory:]
	}
}

// finish assembles the common result envelope for a completed dispatch,
// transitions the status machine and records the execution.
func (b *BaseAgent) finish(task core.Task, start time.Time, payload map[string]any, err error) core.TaskResult {
	result := core.TaskResult{
		AgentID:       b.id,
		AgentType:     string(b.agentType),
		ExecutionTime: time.Since(start),
	}
	if err != nil {
		result.Status = "error"
		result.Error = err.Error()
		b.setStatus(StatusError)
	} else {
		result.Status = "completed"
		result.Payload = payload
		b.setStatus(StatusCompleted)
	}
	b.recordExecution(task, result)
	return result
}
