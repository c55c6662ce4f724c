package planner

import (
	"fmt"

	"github.com/hupe1980/planmesh/core"
)

// OptimizeEfficiency merges consecutive steps that call the same tool with
// the same step type into a single grouped step. The returned plan carries
// fewer or equally many steps; the input plan is never mutated.
func OptimizeEfficiency(plan core.Plan) core.Plan {
	if len(plan.Steps) < 2 {
		return plan
	}

	optimized := plan.Clone()

	var grouped []core.Step
	var group []core.Step

	flush := func() {
		if len(group) > 1 {
			grouped = append(grouped, mergeSteps(group))
		} else {
			grouped = append(grouped, group...)
		}
		group = nil
	}

	for _, step := range optimized.Steps {
		if len(group) > 0 {
			last := group[len(group)-1]
			if step.Type != last.Type || step.Tool != last.Tool {
				flush()
			}
		}
		group = append(group, step)
	}
	flush()

	optimized.Steps = grouped
	return optimized
}

// mergeSteps collapses a run of similar steps into one. The first step is
// the base; parameters from later steps overwrite earlier ones on key
// collision.
func mergeSteps(steps []core.Step) core.Step {
	merged := steps[0].Clone()
	merged.Description = fmt.Sprintf("Grouped operation: %s (+ %d similar steps)", steps[0].Description, len(steps)-1)

	params := make(map[string]any)
	for _, step := range steps {
		for k, v := range step.Parameters {
			params[k] = v
		}
	}
	if len(params) > 0 {
		merged.Parameters = params
	}

	return merged
}
