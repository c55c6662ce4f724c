// Package planmesh provides a high-level façade over the plan lifecycle
// engine: planning, critique-driven self-correction, dependency-ordered
// execution and hierarchical tool dispatch. Most applications interact with
// this package by:
//  1. Creating a Kernel via New() with a model caller
//  2. Registering tools and sub-agents (RegisterDefaults wires the built-in set)
//  3. Handling requests end to end via HandleRequest
//
// The façade delegates to the planner, critic and executor packages while
// keeping setup ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically supply a durable
// memory retriever and a structured logger.
package planmesh

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hupe1980/planmesh/agent"
	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/critic"
	"github.com/hupe1980/planmesh/executor"
	"github.com/hupe1980/planmesh/logging"
	"github.com/hupe1980/planmesh/memory"
	"github.com/hupe1980/planmesh/model"
	"github.com/hupe1980/planmesh/planner"
	"github.com/hupe1980/planmesh/tool"
	"github.com/hupe1980/planmesh/tool/builtin"
)

// MemoryStore extends retrieval with persistence. When the configured
// retriever also implements this interface, plans requesting a memory save
// are persisted after execution.
type MemoryStore interface {
	core.MemoryRetriever
	Store(userID, memoryType, content string, metadata map[string]any)
}

// Options configures the Kernel instance.
type Options struct {
	// Caller is the model backend used for planning and direct answers.
	Caller model.Caller
	// CriticCaller overrides the model backend for critiques. Defaults to
	// Caller.
	CriticCaller model.Caller
	// Retriever supplies relevant memories for plan enhancement. Defaults to
	// an in-process store.
	Retriever core.MemoryRetriever
	// SerperAPIKey authenticates the built-in web search tool.
	SerperAPIKey string
	// PlannerOptions are applied on top of the planner defaults.
	PlannerOptions []func(o *planner.Options)
	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// Kernel is the high-level façade aggregating the plan lifecycle components.
type Kernel struct {
	opts     Options
	registry *tool.Registry
	agents   *agent.Manager
	planner  *planner.Planner
	critic   *critic.Critic
	executor *executor.Executor
	logger   logging.Logger
}

// New creates a Kernel with optional overrides. A model caller must be
// supplied; everything else has an in-process default.
func New(optFns ...func(o *Options)) *Kernel {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Caller == nil {
		opts.Caller = model.NewMockCaller()
	}
	if opts.CriticCaller == nil {
		opts.CriticCaller = opts.Caller
	}
	if opts.Retriever == nil {
		opts.Retriever = memory.NewInMemoryRetriever()
	}

	registry := tool.NewRegistry(func(o *tool.RegistryOptions) {
		o.Logger = opts.Logger
	})

	reviewer := critic.New(opts.CriticCaller, func(o *critic.Options) {
		o.Logger = opts.Logger
	})

	plannerOpts := append([]func(o *planner.Options){func(o *planner.Options) {
		o.Retriever = opts.Retriever
		o.Logger = opts.Logger
	}}, opts.PlannerOptions...)

	return &Kernel{
		opts:     opts,
		registry: registry,
		agents: agent.NewManager(func(o *agent.ManagerOptions) {
			o.Logger = opts.Logger
		}),
		planner: planner.New(opts.Caller, reviewer, registry, plannerOpts...),
		critic:  reviewer,
		executor: executor.New(registry, func(o *executor.Options) {
			o.Logger = opts.Logger
		}),
		logger: opts.Logger,
	}
}

// Registry exposes the tool registry for custom tool registration.
func (k *Kernel) Registry() *tool.Registry { return k.registry }

// Agents exposes the agent manager for custom agents and hierarchies.
func (k *Kernel) Agents() *agent.Manager { return k.agents }

// Planner exposes the planner for direct use.
func (k *Kernel) Planner() *planner.Planner { return k.planner }

// Executor exposes the executor for direct use.
func (k *Kernel) Executor() *executor.Executor { return k.executor }

// RegisterDefaults wires the built-in tool set, the default sub-agents and
// hierarchy, and the hierarchical tools bound to those agents.
func (k *Kernel) RegisterDefaults(optFns ...func(o *builtin.Options)) error {
	fns := append([]func(o *builtin.Options){func(o *builtin.Options) {
		o.SerperAPIKey = k.opts.SerperAPIKey
	}}, optFns...)
	builtin.Register(k.registry, fns...)

	research := agent.NewSpecialist("research_001", "research", "Research Specialist", "Deep research and domain analysis", k.logger)
	web := agent.NewSpecialist("web_001", "web", "Web Specialist", "Web content analysis and extraction", k.logger)
	data := agent.NewSpecialist("data_001", "data", "Data Specialist", "Data processing and statistical analysis", k.logger)
	coordinator := agent.NewCoordinator("coord_001", "Coordinator", "Multi-agent coordination and load balancing", k.logger)
	runner := agent.NewExecutor("exec_001", "Task Executor", "Direct, tool-based and iterative execution", k.registry, k.logger)

	for _, a := range []agent.Agent{research, web, data, coordinator, runner} {
		k.agents.RegisterAgent(a)
	}
	for _, child := range []core.AgentRunner{research, web, data, runner} {
		coordinator.ManageAgent(child)
	}

	if err := k.agents.CreateHierarchy("research_workflow", "coord_001", []string{"research_001", "web_001", "data_001", "exec_001"}); err != nil {
		return fmt.Errorf("create default hierarchy: %w", err)
	}

	k.registry.RegisterHierarchical(tool.Config{
		Name:         "research_workflow",
		FunctionName: "research_workflow_tool",
		Description:  "Comprehensive research workflow using specialist agents",
		PriceUSD:     0.005,
		Capabilities: []string{"research", "analysis", "synthesis", "validation"},
	}, research)
	k.registry.RegisterHierarchical(tool.Config{
		Name:         "web_analysis",
		FunctionName: "web_analysis_tool",
		Description:  "Advanced web content analysis and processing",
		PriceUSD:     0.003,
		Capabilities: []string{"web_scraping", "content_analysis", "data_extraction"},
	}, web)
	k.registry.RegisterHierarchical(tool.Config{
		Name:         "data_processing",
		FunctionName: "data_processing_tool",
		Description:  "Complex data processing and analysis pipeline",
		PriceUSD:     0.004,
		Capabilities: []string{"data_cleaning", "statistical_analysis", "visualization"},
	}, data)
	k.registry.RegisterHierarchical(tool.Config{
		Name:         "complex_executor",
		FunctionName: "complex_task_executor",
		Description:  "Multi-step complex task execution coordinator",
		PriceUSD:     0.006,
		Capabilities: []string{"task_coordination", "multi_agent_execution", "workflow_optimization"},
	}, coordinator)

	return nil
}

// Result is the end-to-end outcome of one handled request.
type Result struct {
	RequestID string           `json:"request_id"`
	Plan      core.Plan        `json:"plan"`
	Report    *executor.Report `json:"report,omitempty"`
	Answer    string           `json:"answer"`
	Failures  []string         `json:"failures,omitempty"`
}

// HandleRequest runs one request through the full lifecycle: plan, enhance,
// self-correct, execute and compose an answer. Direct-answer plans are
// answered by the model; execution failures are collected per step and never
// abort the request.
func (k *Kernel) HandleRequest(ctx context.Context, userID, query string, cfg model.Config) (*Result, error) {
	requestID := uuid.NewString()
	k.logger.Info("Handling request", "request_id", requestID, "user_id", userID, "query", query)

	plan, err := k.planner.CreatePlan(ctx, userID, query, nil, k.registry.Names(), cfg)
	if err != nil {
		return nil, err
	}

	result := &Result{RequestID: requestID, Plan: plan}

	switch plan.Intent {
	case core.IntentExecutePlan:
		report, err := k.executor.Execute(ctx, plan)
		if err != nil {
			return nil, err
		}
		result.Report = report
		result.Answer, result.Failures = composeAnswer(report)
	default:
		answer, err := k.directAnswer(ctx, query, cfg)
		if err != nil {
			return nil, err
		}
		result.Answer = answer
	}

	k.persistMemory(userID, plan)

	k.logger.Info("Request handled", "request_id", requestID, "intent", string(plan.Intent), "failures", len(result.Failures))
	return result, nil
}

func (k *Kernel) directAnswer(ctx context.Context, query string, cfg model.Config) (string, error) {
	messages := []model.Message{
		{Role: "system", Content: "You are a helpful assistant. Answer the user's question directly and concisely."},
		{Role: "user", Content: query},
	}
	response, err := k.opts.Caller.Call(ctx, cfg, messages)
	if err != nil {
		return "", fmt.Errorf("direct answer: %w", err)
	}
	return response.Content, nil
}

// persistMemory stores the plan's requested memory update when the retriever
// supports writes.
func (k *Kernel) persistMemory(userID string, plan core.Plan) {
	if plan.MemoryUpdate.Action != core.MemoryActionSave || len(plan.MemoryUpdate.Data) == 0 {
		return
	}
	store, ok := k.opts.Retriever.(MemoryStore)
	if !ok {
		return
	}

	encoded, err := json.Marshal(plan.MemoryUpdate.Data)
	if err != nil {
		k.logger.Warn("Failed to encode memory update", "error", err.Error())
		return
	}
	store.Store(userID, "context", string(encoded), nil)
	k.logger.Info("Saved plan memory update", "user_id", userID)
}

// composeAnswer assembles a best-effort answer from step outputs and
// collects per-step failure descriptions.
func composeAnswer(report *executor.Report) (string, []string) {
	var parts []string
	var failures []string

	for _, step := range report.Results {
		switch step.Status {
		case "success", "completed":
			if summary := summarizeOutput(step); summary != "" {
				parts = append(parts, summary)
			}
		default:
			reason := step.Error
			if reason == "" {
				if msg, ok := step.Output["error"].(string); ok {
					reason = msg
				}
			}
			failures = append(failures, fmt.Sprintf("step %s failed: %s", step.StepID, reason))
		}
	}

	if len(parts) == 0 {
		if len(failures) > 0 {
			return "The plan could not produce an answer; all steps failed.", failures
		}
		return "", failures
	}
	return strings.Join(parts, "\n"), failures
}

func summarizeOutput(step executor.StepResult) string {
	if step.Output == nil {
		return ""
	}
	if formatted, ok := step.Output["formatted_result"].(string); ok {
		return fmt.Sprintf("%s: %s", step.StepID, formatted)
	}
	if msg, ok := step.Output["message"].(string); ok {
		return fmt.Sprintf("%s: %s", step.StepID, msg)
	}

	encoded, err := json.Marshal(step.Output)
	if err != nil {
		return ""
	}
	text := string(encoded)
	if len(text) > 500 {
		text = text[:500] + "..."
	}
	return fmt.Sprintf("%s: %s", step.StepID, text)
}
