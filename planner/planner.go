package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/critic"
	"github.com/hupe1980/planmesh/internal/util"
	"github.com/hupe1980/planmesh/logging"
	"github.com/hupe1980/planmesh/model"
	"github.com/hupe1980/planmesh/tool"
)

const planningPrompt = `You are an AI planning assistant. Your job is to analyze user requests and create detailed execution plans.

Available Tools:
{{.AvailableTools}}

Your Response Format:
Return ONLY a valid JSON object with this exact structure:
{
    "intent": "direct_answer" | "execute_plan",
    "plan": {
        "description": "Brief description of what needs to be done",
        "steps": [
            {
                "id": "step_1",
                "type": "TOOL_CALL" | "DIRECT_ANSWER",
                "tool": "tool_name_if_applicable",
                "description": "What this step does",
                "parameters": {},
                "dependencies": []
            }
        ]
    },
    "memory_update": {
        "action": "save" | "none",
        "data": {}
    }
}

Intent Types:
- "direct_answer": Simple question that can be answered without tools
- "execute_plan": Complex task requiring tool usage

Step Types:
- "TOOL_CALL": Execute a specific tool
- "DIRECT_ANSWER": Provide direct response without tools

Guidelines:
1. Analyze the request complexity first
2. For simple questions, use "direct_answer"
3. For tasks requiring information or computation, use "execute_plan"
4. Order steps logically with proper dependencies
5. Use memory updates sparingly - only when important context should be saved
6. Be specific in tool parameters and descriptions
7. Handle dependencies correctly (e.g., tool output as input to next step)

Examples:
Simple Question: "What's the weather today?"
Response:
{
    "intent": "direct_answer",
    "plan": {
        "description": "Answer weather question",
        "steps": []
    },
    "memory_update": {"action": "none", "data": {}}
}

Complex Task: "Search for Python tutorials and calculate 2+2"
Response:
{
    "intent": "execute_plan",
    "plan": {
        "description": "Search for Python tutorials and perform calculation",
        "steps": [
            {
                "id": "search_tutorials",
                "type": "TOOL_CALL",
                "tool": "web_search_serper",
                "description": "Search for Python learning resources",
                "parameters": {"query": "Python tutorials for beginners"},
                "dependencies": []
            },
            {
                "id": "calculate",
                "type": "TOOL_CALL",
                "tool": "advanced_calculator",
                "description": "Calculate 2+2",
                "parameters": {"expression": "2+2"},
                "dependencies": []
            }
        ]
    },
    "memory_update": {"action": "none", "data": {}}
}

Now analyze the following request:`

// hierarchicalAlternatives maps basic tools to the hierarchical tool that
// subsumes them. Substitution only happens when the alternative is among
// the recommended tools for the current request.
var hierarchicalAlternatives = map[string]string{
	"web_search_serper":     "web_analysis",
	"wikipedia_search":      "web_analysis",
	"advanced_calculator":   "data_processing",
	"search_user_documents": "research_workflow",
}

// Planner converts user requests into plans and runs them through the
// enhancement and self-correction pipeline.
type Planner struct {
	caller    model.Caller
	critic    *critic.Critic
	registry  *tool.Registry
	retriever core.MemoryRetriever

	maxCritiqueIterations   int
	critiqueThreshold       float64
	memoryThreshold         float64
	maxMemoryItems          int
	enableSelfCorrection    bool
	enableMemoryEnhancement bool
	enableToolOptimization  bool

	logger logging.Logger
}

// Options holds the options for a Planner.
type Options struct {
	// MaxCritiqueIterations bounds the self-correction loop.
	MaxCritiqueIterations int
	// CritiqueThreshold is the minimum critique score to accept a plan.
	CritiqueThreshold float64
	// MemoryThreshold is the minimum relevance for a memory to be used.
	MemoryThreshold float64
	// MaxMemoryItems caps how many memories enhance one plan.
	MaxMemoryItems int
	// EnableSelfCorrection toggles the critique loop.
	EnableSelfCorrection bool
	// EnableMemoryEnhancement toggles retrieval-based context injection.
	EnableMemoryEnhancement bool
	// EnableToolOptimization toggles hierarchical tool substitution.
	EnableToolOptimization bool
	// Retriever supplies relevant memories. Nil disables enhancement.
	Retriever core.MemoryRetriever
	// Logger is the structured logger to use.
	Logger logging.Logger
}

// New creates a planner backed by the given model caller, critic and tool
// registry.
func New(caller model.Caller, reviewer *critic.Critic, registry *tool.Registry, optFns ...func(o *Options)) *Planner {
	opts := Options{
		MaxCritiqueIterations:   2,
		CritiqueThreshold:       7.0,
		MemoryThreshold:         0.5,
		MaxMemoryItems:          5,
		EnableSelfCorrection:    true,
		EnableMemoryEnhancement: true,
		EnableToolOptimization:  true,
		Logger:                  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Planner{
		caller:                  caller,
		critic:                  reviewer,
		registry:                registry,
		retriever:               opts.Retriever,
		maxCritiqueIterations:   opts.MaxCritiqueIterations,
		critiqueThreshold:       opts.CritiqueThreshold,
		memoryThreshold:         opts.MemoryThreshold,
		maxMemoryItems:          opts.MaxMemoryItems,
		enableSelfCorrection:    opts.EnableSelfCorrection,
		enableMemoryEnhancement: opts.EnableMemoryEnhancement,
		enableToolOptimization:  opts.EnableToolOptimization,
		logger:                  opts.Logger,
	}
}

// CreatePlan produces the final plan for a request. Model failures and
// unparsable output degrade to a fallback direct-answer plan; the only
// returned error is context cancellation.
func (p *Planner) CreatePlan(ctx context.Context, userID, userQuery string, userMemory map[string]any, availableTools []string, cfg model.Config) (core.Plan, error) {
	if err := ctx.Err(); err != nil {
		return core.Plan{}, err
	}

	plan := p.generateInitialPlan(ctx, userQuery, userMemory, availableTools, cfg)

	if p.enableMemoryEnhancement && p.retriever != nil {
		plan = p.applyMemoryEnhancement(ctx, userID, userQuery, plan)
	}

	if p.enableToolOptimization && plan.Intent == core.IntentExecutePlan {
		plan = p.applyToolOptimization(userQuery, plan, availableTools)
	}

	if p.enableSelfCorrection && plan.Intent == core.IntentExecutePlan && p.critic != nil {
		plan = p.applySelfCorrection(ctx, userQuery, userMemory, plan, availableTools, cfg)
	} else {
		plan.SelfCorrection = &core.SelfCorrection{Applied: false}
	}

	return plan, nil
}

// planEnvelope mirrors the JSON structure the planning prompt requests.
type planEnvelope struct {
	Intent core.Intent `json:"intent"`
	Plan   struct {
		Description string      `json:"description"`
		Steps       []core.Step `json:"steps"`
	} `json:"plan"`
	MemoryUpdate core.MemoryUpdate `json:"memory_update"`
}

func (p *Planner) generateInitialPlan(ctx context.Context, userQuery string, userMemory map[string]any, availableTools []string, cfg model.Config) core.Plan {
	toolLines := make([]string, len(availableTools))
	for i, name := range availableTools {
		toolLines[i] = "- " + name
	}

	prompt, err := util.RenderTemplate(planningPrompt, map[string]any{
		"AvailableTools": strings.Join(toolLines, "\n"),
	})
	if err != nil {
		p.logger.Error("Failed to render planning prompt", "error", err.Error())
		return fallbackPlan("Error in planning, using fallback")
	}

	if len(userMemory) > 0 {
		if encoded, err := json.MarshalIndent(userMemory, "", "  "); err == nil {
			prompt += "\n\nUser Context:\n" + string(encoded)
		}
	}
	prompt += "\n\nUser Request: " + userQuery

	messages := []model.Message{
		{Role: "system", Content: prompt},
		{Role: "user", Content: userQuery},
	}

	p.logger.Info("Generating initial plan", "query", truncate(userQuery, 100))

	response, err := p.caller.Call(ctx, cfg, messages)
	if err != nil {
		p.logger.Error("Planning model call failed", "error", err.Error())
		return fallbackPlan("Error in planning, using fallback")
	}

	var envelope planEnvelope
	if err := json.Unmarshal([]byte(util.ExtractJSONObject(response.Content)), &envelope); err != nil {
		p.logger.Error("Failed to parse planning response", "error", err.Error())
		return fallbackPlan("Fallback direct answer due to planning error")
	}
	if envelope.Intent != core.IntentDirectAnswer && envelope.Intent != core.IntentExecutePlan {
		p.logger.Error("Planning response has unknown intent", "intent", string(envelope.Intent))
		return fallbackPlan("Fallback direct answer due to planning error")
	}

	plan := core.Plan{
		Intent:       envelope.Intent,
		Description:  envelope.Plan.Description,
		Steps:        envelope.Plan.Steps,
		MemoryUpdate: envelope.MemoryUpdate,
	}
	if plan.MemoryUpdate.Action == "" {
		plan.MemoryUpdate.Action = core.MemoryActionNone
	}

	p.logger.Info("Initial plan created", "intent", string(plan.Intent), "steps", len(plan.Steps))
	return plan
}

func fallbackPlan(description string) core.Plan {
	return core.Plan{
		Intent:       core.IntentDirectAnswer,
		Description:  description,
		MemoryUpdate: core.MemoryUpdate{Action: core.MemoryActionNone},
		Fallback:     true,
	}
}

// applyMemoryEnhancement injects relevant memories into the plan description.
// Retrieval failures leave the plan unchanged.
func (p *Planner) applyMemoryEnhancement(ctx context.Context, userID, userQuery string, plan core.Plan) core.Plan {
	memories, err := p.retriever.RetrieveRelevantMemories(ctx, userID, userQuery, nil)
	if err != nil {
		p.logger.Error("Memory retrieval failed", "error", err.Error())
		plan.MemoryEnhancement = &core.MemoryEnhancement{Applied: false, Reason: core.ReasonNoRelevantMemories}
		return plan
	}

	if len(memories) == 0 {
		p.logger.Info("No relevant memories found for enhancement")
		plan.MemoryEnhancement = &core.MemoryEnhancement{Applied: false, Reason: core.ReasonNoRelevantMemories}
		return plan
	}

	maxRelevance := 0.0
	var filtered []core.Memory
	for _, m := range memories {
		if m.RelevanceScore > maxRelevance {
			maxRelevance = m.RelevanceScore
		}
		if m.RelevanceScore >= p.memoryThreshold {
			filtered = append(filtered, m)
		}
	}

	if len(filtered) == 0 {
		p.logger.Info("No memories meet relevance threshold", "max_relevance", maxRelevance)
		plan.MemoryEnhancement = &core.MemoryEnhancement{
			Applied:      false,
			Reason:       core.ReasonBelowThreshold,
			MaxRelevance: maxRelevance,
		}
		return plan
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].RelevanceScore > filtered[j].RelevanceScore
	})
	if len(filtered) > p.maxMemoryItems {
		filtered = filtered[:p.maxMemoryItems]
	}

	plan.Description = plan.Description + "\n\nMemory Context:\n" + formatMemoryContext(filtered)

	sum := 0.0
	usedMax := 0.0
	typeSet := make(map[string]struct{})
	for _, m := range filtered {
		sum += m.RelevanceScore
		if m.RelevanceScore > usedMax {
			usedMax = m.RelevanceScore
		}
		typeSet[m.Type] = struct{}{}
	}
	types := make([]string, 0, len(typeSet))
	for t := range typeSet {
		types = append(types, t)
	}

	plan.MemoryEnhancement = &core.MemoryEnhancement{
		Applied:          true,
		MemoriesUsed:     len(filtered),
		AverageRelevance: sum / float64(len(filtered)),
		MaxRelevance:     usedMax,
		MemoryTypes:      types,
	}

	p.logger.Info("Enhanced plan with relevant memories", "memories_used", len(filtered), "average_relevance", plan.MemoryEnhancement.AverageRelevance)
	return plan
}

func formatMemoryContext(memories []core.Memory) string {
	lines := make([]string, len(memories))
	for i, m := range memories {
		content := m.Content
		if len(content) > 300 {
			content = content[:300] + "..."
		}
		lines[i] = fmt.Sprintf("%d. [%s] (relevance: %.3f) %s", i+1, m.Type, m.RelevanceScore, content)
	}
	return strings.Join(lines, "\n")
}

// applyToolOptimization substitutes recommended hierarchical tools for their
// basic equivalents. Advisory scoring comes from the registry; the original
// tool name is preserved on every substituted step.
func (p *Planner) applyToolOptimization(userQuery string, plan core.Plan, availableTools []string) core.Plan {
	selection := p.registry.OptimizeSelection(userQuery, availableTools)

	if len(selection.Recommended) == 0 {
		p.logger.Info("No optimized tools found")
		plan.ToolOptimization = &core.ToolOptimization{Applied: false, Reason: "no_recommendations"}
		return plan
	}

	recommended := make(map[string]struct{}, len(selection.Recommended))
	for _, name := range selection.Recommended {
		recommended[name] = struct{}{}
	}

	optimized := 0
	for i := range plan.Steps {
		step := &plan.Steps[i]
		if step.Type != core.StepToolCall {
			continue
		}
		if _, ok := recommended[step.Tool]; ok {
			optimized++
			continue
		}
		alternative, ok := hierarchicalAlternatives[step.Tool]
		if !ok {
			continue
		}
		if _, ok := recommended[alternative]; !ok {
			continue
		}
		step.OriginalTool = step.Tool
		step.Tool = alternative
		optimized++
	}

	plan.ToolOptimization = &core.ToolOptimization{
		Applied:          true,
		RecommendedTools: selection.Recommended,
		OptimizedSteps:   optimized,
		Scores:           selection.Scores,
	}

	p.logger.Info("Applied hierarchical tool optimization", "recommended_tools", len(selection.Recommended), "optimized_steps", optimized)
	return plan
}

// applySelfCorrection runs the bounded critique loop. The plan is replaced
// only by a distinct improved plan; annotations from earlier pipeline stages
// are carried over onto replacements.
func (p *Planner) applySelfCorrection(ctx context.Context, userQuery string, userMemory map[string]any, plan core.Plan, availableTools []string, cfg model.Config) core.Plan {
	p.logger.Info("Starting self-correction")

	criticCfg := criticModelConfig(cfg)
	toolConfigs := p.lookupToolConfigs(availableTools)

	current := plan
	var history []core.CritiqueResult
	iterations := 0
	finalScore := 0.0

	for iterations < p.maxCritiqueIterations {
		iterations++
		p.logger.Info("Critique iteration", "iteration", iterations)

		result := p.critic.Critique(ctx, userQuery, userMemory, current, toolConfigs, criticCfg)
		history = append(history, result)
		finalScore = result.OverallScore

		if result.OverallScore >= p.critiqueThreshold {
			p.logger.Info("Plan quality acceptable, stopping self-correction", "score", result.OverallScore)
			break
		}

		improved := result.ImprovedPlan
		if improved == nil || len(improved.Steps) == 0 || plansEquivalent(*improved, current) {
			p.logger.Info("No improvements found, stopping self-correction")
			break
		}

		p.logger.Info("Applying plan improvements from critique")
		next := improved.Clone()
		next.MemoryEnhancement = current.MemoryEnhancement
		next.ToolOptimization = current.ToolOptimization
		current = next
	}

	current.SelfCorrection = &core.SelfCorrection{
		Applied:    true,
		Iterations: iterations,
		FinalScore: finalScore,
		History:    history,
	}

	p.logger.Info("Self-correction completed", "iterations", iterations, "final_score", finalScore)
	return current
}

// criticModelConfig derives the critic's model configuration from the
// planner's: lower temperature for consistency, more tokens for detail.
func criticModelConfig(cfg model.Config) model.Config {
	criticCfg := cfg
	criticCfg.Temperature = 0.1
	if criticCfg.MaxTokens == 0 {
		criticCfg.MaxTokens = 4000
	}
	criticCfg.MaxTokens += 1000
	return criticCfg
}

func (p *Planner) lookupToolConfigs(names []string) []tool.Config {
	configs := make([]tool.Config, 0, len(names))
	for _, name := range names {
		if cfg, ok := p.registry.Lookup(name); ok {
			configs = append(configs, cfg)
		}
	}
	return configs
}

// plansEquivalent compares the executable content of two plans, ignoring
// pipeline annotations.
func plansEquivalent(a, b core.Plan) bool {
	a.SelfCorrection, b.SelfCorrection = nil, nil
	a.MemoryEnhancement, b.MemoryEnhancement = nil, nil
	a.ToolOptimization, b.ToolOptimization = nil, nil
	return reflect.DeepEqual(a, b)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
