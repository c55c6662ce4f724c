package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/logging"
	"github.com/hupe1980/planmesh/tool"
)

// State tracks a plan through its execution lifecycle.
type State string

const (
	// StateCreated marks a plan accepted for execution.
	StateCreated State = "created"
	// StateValidated marks a plan that passed structural validation.
	StateValidated State = "validated"
	// StateOrdered marks a plan whose steps were topologically ordered.
	StateOrdered State = "ordered"
	// StateRunning marks a plan whose steps are executing.
	StateRunning State = "running"
	// StateCompleted marks a finished execution, failed steps included.
	StateCompleted State = "completed"
	// StateValidationFailed marks a plan rejected before execution.
	StateValidationFailed State = "validation_failed"
)

// ValidationIssue is one structural defect found before execution.
type ValidationIssue struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	StepID      string `json:"step_id,omitempty"`
	Severity    string `json:"severity"`
}

// StepResult is the outcome of one executed step.
type StepResult struct {
	StepID     string         `json:"step_id"`
	Status     string         `json:"status"`
	Tool       string         `json:"tool,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Output     map[string]any `json:"output,omitempty"`
	Error      string         `json:"error,omitempty"`
	StepType   core.StepType  `json:"step_type"`
	Duration   time.Duration  `json:"duration"`
}

// QualityMetrics aggregates execution outcomes into a quality score.
type QualityMetrics struct {
	StepsCompleted     int           `json:"steps_completed"`
	StepsFailed        int           `json:"steps_failed"`
	TotalExecutionTime time.Duration `json:"total_execution_time"`
	QualityScore       float64       `json:"quality_score"`
}

// Report is the full result of executing one plan.
type Report struct {
	Status           State             `json:"status"`
	ValidationIssues []ValidationIssue `json:"validation_issues,omitempty"`
	Warnings         []string          `json:"warnings,omitempty"`
	Results          []StepResult      `json:"results"`
	StepCount        int               `json:"step_count"`
	QualityMetrics   QualityMetrics    `json:"quality_metrics"`
	SuccessRate      float64           `json:"success_rate"`
	AverageStepTime  time.Duration     `json:"average_step_time"`
}

// Executor runs plans against a tool registry.
type Executor struct {
	registry *tool.Registry
	logger   logging.Logger
}

// Options holds the options for an Executor.
type Options struct {
	// Logger is the structured logger to use.
	Logger logging.Logger
}

// New creates an executor backed by the given tool registry.
func New(registry *tool.Registry, optFns ...func(o *Options)) *Executor {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Executor{
		registry: registry,
		logger:   opts.Logger,
	}
}

// Execute validates, orders and runs a plan. Step failures never abort the
// run; every step gets a result and the report status stays "completed".
// Only a rejected plan yields "validation_failed".
func (e *Executor) Execute(ctx context.Context, plan core.Plan) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.logger.Info("Plan lifecycle", "state", string(StateCreated), "steps", len(plan.Steps))

	issues := e.validate(plan)
	if len(issues) > 0 {
		e.logger.Warn("Plan validation failed", "issues", len(issues))
		e.logger.Info("Plan lifecycle", "state", string(StateValidationFailed), "steps", len(plan.Steps))
		return &Report{
			Status:           StateValidationFailed,
			ValidationIssues: issues,
			Results:          []StepResult{},
		}, nil
	}
	e.logger.Info("Plan lifecycle", "state", string(StateValidated), "steps", len(plan.Steps))

	order, complete := core.TopologicalOrder(plan.Steps)
	if !complete {
		e.logger.Warn("Dependency ordering incomplete, executing in declaration order")
		order = plan.StepIDs()
	}
	e.logger.Info("Plan lifecycle", "state", string(StateOrdered), "steps", len(order))

	stepsByID := make(map[string]core.Step, len(plan.Steps))
	for _, step := range plan.Steps {
		stepsByID[step.ID] = step
	}

	e.logger.Info("Plan lifecycle", "state", string(StateRunning), "steps", len(order))

	results := make([]StepResult, 0, len(order))
	outputs := make(map[string]map[string]any, len(order))
	metrics := QualityMetrics{}

	var warnings []string
	if len(plan.Steps) > 20 {
		warnings = append(warnings, fmt.Sprintf("Plan has %d steps, may be complex to execute", len(plan.Steps)))
	}

	for i, stepID := range order {
		step := stepsByID[stepID]
		result := e.executeStep(ctx, step, outputs)
		results = append(results, result)
		outputs[stepID] = result.Output

		metrics.TotalExecutionTime += result.Duration
		if result.Status == "success" || result.Status == "completed" {
			metrics.StepsCompleted++
		} else {
			metrics.StepsFailed++
		}

		e.logger.Info("Step completed", "step", fmt.Sprintf("%d/%d", i+1, len(order)), "step_id", stepID, "status", result.Status, "duration", result.Duration)
	}

	metrics.QualityScore = qualityScore(metrics)

	report := &Report{
		Status:          StateCompleted,
		Warnings:        warnings,
		Results:         results,
		StepCount:       len(order),
		QualityMetrics:  metrics,
		SuccessRate:     float64(metrics.StepsCompleted) / float64(len(order)),
		AverageStepTime: metrics.TotalExecutionTime / time.Duration(len(order)),
	}

	e.logger.Info("Plan lifecycle", "state", string(StateCompleted), "steps", len(order))
	e.logger.Info("Plan execution completed", "successful", metrics.StepsCompleted, "failed", metrics.StepsFailed, "quality_score", metrics.QualityScore)
	return report, nil
}

// validate collects every structural defect in the plan. An empty issue
// slice means the plan is executable.
func (e *Executor) validate(plan core.Plan) []ValidationIssue {
	var issues []ValidationIssue

	if len(plan.Steps) == 0 {
		return []ValidationIssue{{
			Type:        "empty_plan",
			Description: "Plan contains no steps to execute",
			Severity:    "high",
		}}
	}

	for i, step := range plan.Steps {
		if step.ID == "" {
			issues = append(issues, ValidationIssue{
				Type:        "missing_step_id",
				Description: fmt.Sprintf("Step %d is missing an ID", i),
				Severity:    "high",
			})
		}
		if step.Type == "" {
			issues = append(issues, ValidationIssue{
				Type:        "missing_step_type",
				Description: fmt.Sprintf("Step %s is missing a type", step.ID),
				StepID:      step.ID,
				Severity:    "high",
			})
		}
		if step.Type == core.StepToolCall {
			if step.Tool == "" {
				issues = append(issues, ValidationIssue{
					Type:        "missing_tool_name",
					Description: fmt.Sprintf("Step %s is missing tool name", step.ID),
					StepID:      step.ID,
					Severity:    "high",
				})
			} else if _, ok := e.registry.Lookup(step.Tool); !ok {
				issues = append(issues, ValidationIssue{
					Type:        "tool_not_found",
					Description: fmt.Sprintf("Tool '%s' not found in registry", step.Tool),
					StepID:      step.ID,
					Severity:    "high",
				})
			}
		}
	}

	if core.HasCycle(plan.Steps) {
		issues = append(issues, ValidationIssue{
			Type:        "circular_dependency",
			Description: "Circular dependency detected in plan",
			Severity:    "critical",
		})
	}

	return issues
}

// executeStep runs one step. Failures of any kind become a step-local error
// result; the returned result always has the step's ID and type.
func (e *Executor) executeStep(ctx context.Context, step core.Step, outputs map[string]map[string]any) StepResult {
	e.logger.Info("Executing step", "step_id", step.ID, "step_type", string(step.Type))
	start := time.Now()

	switch step.Type {
	case core.StepToolCall:
		return e.executeToolStep(ctx, step, outputs, start)
	case core.StepDirectAnswer:
		return StepResult{
			StepID:   step.ID,
			Status:   "completed",
			Output:   map[string]any{"message": "Direct answer step - response will be generated by the caller"},
			StepType: core.StepDirectAnswer,
			Duration: time.Since(start),
		}
	default:
		return StepResult{
			StepID:   step.ID,
			Status:   "error",
			Error:    fmt.Sprintf("unknown step type: %s", step.Type),
			StepType: step.Type,
			Duration: time.Since(start),
		}
	}
}

func (e *Executor) executeToolStep(ctx context.Context, step core.Step, outputs map[string]map[string]any, start time.Time) StepResult {
	params := e.resolveParameters(step.Parameters, outputs)

	output, err := e.registry.Invoke(ctx, step.Tool, params)
	if err != nil {
		var notFound *tool.NotFoundError
		var invocation *tool.InvocationError
		switch {
		case errors.As(err, &notFound), errors.As(err, &invocation):
			e.logger.Error("Step execution error", "step_id", step.ID, "error", err.Error())
		default:
			e.logger.Error("Unexpected step execution error", "step_id", step.ID, "error", err.Error())
		}
		return StepResult{
			StepID:     step.ID,
			Status:     "error",
			Tool:       step.Tool,
			Parameters: params,
			Error:      err.Error(),
			StepType:   core.StepToolCall,
			Duration:   time.Since(start),
		}
	}

	status := "success"
	if s, ok := output["status"].(string); ok && s != "" {
		status = s
	}

	return StepResult{
		StepID:     step.ID,
		Status:     status,
		Tool:       step.Tool,
		Parameters: params,
		Output:     output,
		StepType:   core.StepToolCall,
		Duration:   time.Since(start),
	}
}

// resolveParameters substitutes "{{stepID}}" placeholder values with the
// output of the referenced step. Unresolvable references are kept literal
// so the tool sees what the plan asked for.
func (e *Executor) resolveParameters(params map[string]any, outputs map[string]map[string]any) map[string]any {
	resolved := make(map[string]any, len(params))
	for key, value := range params {
		str, ok := value.(string)
		if !ok || !strings.HasPrefix(str, "{{") || !strings.HasSuffix(str, "}}") {
			resolved[key] = value
			continue
		}

		stepID := strings.TrimSuffix(strings.TrimPrefix(str, "{{"), "}}")
		output, ok := outputs[stepID]
		if !ok {
			e.logger.Warn("Dependency output not found for parameter", "parameter", key, "step_id", stepID)
			resolved[key] = value
			continue
		}

		e.logger.Debug("Resolved parameter from step output", "parameter", key, "step_id", stepID)
		resolved[key] = output
	}
	return resolved
}

// qualityScore maps execution metrics onto [0, 10]: success rate scaled to
// 8 points plus a bonus for fast average step time.
func qualityScore(metrics QualityMetrics) float64 {
	total := metrics.StepsCompleted + metrics.StepsFailed
	if total == 0 {
		return 0.0
	}

	successRate := float64(metrics.StepsCompleted) / float64(total)
	score := successRate * 8.0

	avg := metrics.TotalExecutionTime / time.Duration(total)
	switch {
	case avg < time.Second:
		score += 2.0
	case avg < 5*time.Second:
		score += 1.0
	case avg < 10*time.Second:
		score += 0.5
	}

	if score > 10.0 {
		return 10.0
	}
	return score
}

// ExecuteSingleTool invokes one tool outside of a plan.
func (e *Executor) ExecuteSingleTool(ctx context.Context, toolName string, params map[string]any) (map[string]any, error) {
	e.logger.Info("Executing single tool", "tool", toolName)

	output, err := e.registry.Invoke(ctx, toolName, params)
	if err != nil {
		return nil, err
	}

	status := "success"
	if s, ok := output["status"].(string); ok && s != "" {
		status = s
	}

	return map[string]any{
		"tool":       toolName,
		"status":     status,
		"parameters": params,
		"result":     output,
	}, nil
}
