package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/logging"
)

// Specialist is a domain-specific agent. It dispatches on the task type to
// one of the domain handlers (analysis, synthesis, validation) and falls
// back to a generic handler for everything else.
type Specialist struct {
	BaseAgent
	domain string
}

// NewSpecialist creates a specialist bound to a domain ("research", "web",
// "data", ...). The domain shapes the capability tags used for tool scoring.
func NewSpecialist(id, domain, name, description string, logger logging.Logger) *Specialist {
	return &Specialist{
		BaseAgent: NewBaseAgent(id, TypeSpecialist, name, description, logger),
		domain:    domain,
	}
}

// Domain returns the specialist's domain.
func (s *Specialist) Domain() string { return s.domain }

// Capabilities implements core.AgentRunner.
func (s *Specialist) Capabilities() []string {
	return []string{
		s.domain + " analysis",
		s.domain + " synthesis",
		s.domain + " validation",
		s.domain + " consultation",
	}
}

// Execute runs one domain task. Handler failures are captured in the result
// rather than returned; the error return is reserved for context
// cancellation.
func (s *Specialist) Execute(ctx context.Context, task core.Task) (core.TaskResult, error) {
	if err := ctx.Err(); err != nil {
		return core.TaskResult{}, err
	}

	s.setStatus(StatusBusy)
	start := time.Now()

	payload, err := s.dispatch(task)
	return s.finish(task, start, payload, err), nil
}

func (s *Specialist) dispatch(task core.Task) (map[string]any, error) {
	switch task.Type {
	case core.TaskDomainAnalysis:
		return s.analyze(task.Data), nil
	case core.TaskDomainSynthesis:
		return s.synthesize(task.Data), nil
	case core.TaskDomainValidation:
		return s.validate(task.Data), nil
	default:
		return s.generic(task), nil
	}
}

func (s *Specialist) analyze(data map[string]any) map[string]any {
	return map[string]any{
		"analysis_type":   "domain_analysis",
		"domain":          s.domain,
		"findings":        fmt.Sprintf("Analysis of %s domain completed", s.domain),
		"recommendations": []string{fmt.Sprintf("Consider %s best practices", s.domain)},
		"input_keys":      len(data),
	}
}

func (s *Specialist) synthesize(data map[string]any) map[string]any {
	return map[string]any{
		"synthesis_type": "domain_synthesis",
		"domain":         s.domain,
		"synthesis":      fmt.Sprintf("Domain synthesis for %s completed", s.domain),
		"confidence":     0.85,
	}
}

func (s *Specialist) validate(data map[string]any) map[string]any {
	return map[string]any{
		"validation_type":  "domain_validation",
		"domain":           s.domain,
		"is_valid":         true,
		"validation_score": 0.9,
	}
}

func (s *Specialist) generic(task core.Task) map[string]any {
	return map[string]any{
		"execution_type": "generic",
		"domain":         s.domain,
		"message":        fmt.Sprintf("Executed %s task in %s domain", task.Type, s.domain),
	}
}
