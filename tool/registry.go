package tool

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/logging"
)

// Selection is the advisory output of OptimizeSelection. It never mutates a
// plan by itself; the planner decides whether to act on it.
type Selection struct {
	TaskDescription string         `json:"task_description"`
	Scores          map[string]int `json:"tool_scores"`
	Recommended     []string       `json:"recommended_tools"`
}

// Registry maps tool names to callable functions and configuration, and a
// subset of hierarchical tool names to sub-agents.
//
// Concurrency: the name maps are read-mostly after startup registration.
// Reads and writes are guarded by an RWMutex so late registration remains
// safe, though the intended lifecycle is registration-phase-only writes.
type Registry struct {
	mu      sync.RWMutex
	configs map[string]Config
	funcs   map[string]Func             // keyed by Config.FunctionName
	agents  map[string]core.AgentRunner // hierarchical tools, keyed by tool name
	order   []string                    // registration order, used for tie-breaking
	logger  logging.Logger
}

// RegistryOptions configure a Registry.
type RegistryOptions struct {
	Logger logging.Logger
}

// NewRegistry creates an empty tool registry.
func NewRegistry(optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Registry{
		configs: make(map[string]Config),
		funcs:   make(map[string]Func),
		agents:  make(map[string]core.AgentRunner),
		logger:  opts.Logger,
	}
}

// Register stores a tool config and its callable. Last write wins on name
// collision; the previous binding is replaced wholesale.
func (r *Registry) Register(cfg Config, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.configs[cfg.Name]; !exists {
		r.order = append(r.order, cfg.Name)
	}
	delete(r.agents, cfg.Name) // re-registering as plain drops any agent binding
	r.configs[cfg.Name] = cfg
	r.funcs[cfg.FunctionName] = fn

	r.logger.Info("Registered tool", "tool", cfg.Name)
}

// RegisterHierarchical stores a tool config and binds it to a sub-agent
// instead of a plain function. Last write wins on name collision.
func (r *Registry) RegisterHierarchical(cfg Config, agent core.AgentRunner) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.configs[cfg.Name]; !exists {
		r.order = append(r.order, cfg.Name)
	}
	cfg.Hierarchical = true
	r.configs[cfg.Name] = cfg
	r.agents[cfg.Name] = agent

	r.logger.Info("Registered hierarchical tool", "tool", cfg.Name, "agent", agent.Name())
}

// Lookup returns the config for a tool name. It has no side effects.
func (r *Registry) Lookup(name string) (Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[name]
	return cfg, ok
}

// Names returns all registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Hierarchical reports whether the named tool is bound to a sub-agent.
func (r *Registry) Hierarchical(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.agents[name]
	return ok
}

// Capabilities returns the capability tags for a tool: the bound agent's
// capabilities for hierarchical tools, the config's tags otherwise.
func (r *Registry) Capabilities(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if agent, ok := r.agents[name]; ok {
		return agent.Capabilities()
	}
	if cfg, ok := r.configs[name]; ok {
		return append([]string(nil), cfg.Capabilities...)
	}
	return nil
}

// Invoke runs the named tool with the given parameters.
//
// Plain tools call their registered function directly. Hierarchical tools
// wrap the parameters into a task and delegate to the bound sub-agent,
// returning a payload of the shape {status, tool, agent, result}.
//
// A *NotFoundError is returned when the name resolves in neither map; any
// failure inside the tool is wrapped in *InvocationError.
func (r *Registry) Invoke(ctx context.Context, name string, params map[string]any) (map[string]any, error) {
	r.mu.RLock()
	cfg, known := r.configs[name]
	agent, hierarchical := r.agents[name]
	var fn Func
	if known && !hierarchical {
		fn = r.funcs[cfg.FunctionName]
	}
	r.mu.RUnlock()

	if !known {
		return nil, &NotFoundError{Tool: name}
	}

	start := time.Now()

	if hierarchical {
		payload, err := r.invokeHierarchical(ctx, name, agent, params)
		r.logger.Info("Hierarchical tool invoked", "tool", name, "duration", time.Since(start), "success", err == nil)
		return payload, err
	}

	if fn == nil {
		return nil, &NotFoundError{Tool: name}
	}

	result, err := fn(ctx, params)
	if err != nil {
		r.logger.Error("Tool invocation failed", "tool", name, "error", err.Error())
		return nil, &InvocationError{Tool: name, Err: err}
	}

	r.logger.Debug("Tool invoked", "tool", name, "duration", time.Since(start))
	return result, nil
}

// invokeHierarchical builds the agent task for a hierarchical tool call and
// delegates to the bound sub-agent.
func (r *Registry) invokeHierarchical(ctx context.Context, name string, agent core.AgentRunner, params map[string]any) (map[string]any, error) {
	taskType := core.TaskGeneric
	if raw, ok := params["task_type"].(string); ok && raw != "" {
		taskType = core.TaskType(raw)
	}

	task := core.Task{
		ID:   "tool_" + name + "_" + uuid.NewString(),
		Type: taskType,
		Data: params,
	}

	result, err := agent.Execute(ctx, task)
	if err != nil {
		return nil, &InvocationError{Tool: name, Err: err}
	}

	status := "success"
	if !result.Completed() {
		status = "error"
	}

	return map[string]any{
		"status":         status,
		"tool":           name,
		"agent":          agent.Name(),
		"result":         result,
		"execution_time": result.ExecutionTime.Seconds(),
	}, nil
}

// OptimizeSelection scores each available tool by counting case-insensitive
// keyword overlaps between the task description's tokens and the tool's
// capability tags, with a fixed +2 bonus for hierarchical tools. Tools are
// ranked descending (ties broken by registration order) and at most three
// with a positive score are recommended. Advisory only.
func (r *Registry) OptimizeSelection(taskDescription string, availableTools []string) Selection {
	keywords := strings.Fields(strings.ToLower(taskDescription))

	r.mu.RLock()
	position := make(map[string]int, len(r.order))
	for i, name := range r.order {
		position[name] = i
	}
	r.mu.RUnlock()

	scores := make(map[string]int, len(availableTools))
	for _, name := range availableTools {
		score := 0
		for _, capability := range r.Capabilities(name) {
			lowered := strings.ToLower(capability)
			for _, keyword := range keywords {
				if strings.Contains(lowered, keyword) {
					score++
				}
			}
		}
		if r.Hierarchical(name) {
			score += 2
		}
		scores[name] = score
	}

	ranked := append([]string(nil), availableTools...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if scores[ranked[i]] != scores[ranked[j]] {
			return scores[ranked[i]] > scores[ranked[j]]
		}
		return position[ranked[i]] < position[ranked[j]]
	})

	recommended := make([]string, 0, 3)
	for _, name := range ranked {
		if len(recommended) == 3 {
			break
		}
		if scores[name] > 0 {
			recommended = append(recommended, name)
		}
	}

	return Selection{
		TaskDescription: taskDescription,
		Scores:          scores,
		Recommended:     recommended,
	}
}
