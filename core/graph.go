package core

// HasCycle reports whether the steps' dependency edges contain a cycle.
// Detection is an iterative depth-first search with an explicit stack and
// three-color marking, so deep graphs cannot overflow the call stack.
// Dependencies on unknown step IDs are ignored here; dangling references
// are reported separately by validation.
func HasCycle(steps []Step) bool {
	graph := make(map[string][]string, len(steps))
	for _, step := range steps {
		graph[step.ID] = step.Dependencies
	}

	const (
		white = iota // unvisited
		gray         // on the current path
		black        // fully explored
	)
	color := make(map[string]int, len(graph))

	type frame struct {
		node string
		next int
	}

	for _, step := range steps {
		if color[step.ID] != white {
			continue
		}

		color[step.ID] = gray
		stack := []frame{{node: step.ID}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			deps := graph[top.node]

			if top.next < len(deps) {
				neighbor := deps[top.next]
				top.next++

				if _, known := graph[neighbor]; !known {
					continue
				}
				switch color[neighbor] {
				case gray:
					return true
				case white:
					color[neighbor] = gray
					stack = append(stack, frame{node: neighbor})
				}
				continue
			}

			color[top.node] = black
			stack = stack[:len(stack)-1]
		}
	}

	return false
}

// TopologicalOrder returns the step IDs in dependency order using Kahn's
// algorithm with FIFO tie-breaking, so steps at the same depth keep their
// declaration order. The second return value is false when the ordering is
// incomplete, which happens exactly when the graph contains a cycle.
func TopologicalOrder(steps []Step) ([]string, bool) {
	known := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		known[step.ID] = struct{}{}
	}

	indegree := make(map[string]int, len(steps))
	dependents := make(map[string][]string, len(steps))
	for _, step := range steps {
		if _, ok := indegree[step.ID]; !ok {
			indegree[step.ID] = 0
		}
		for _, dep := range step.Dependencies {
			if _, ok := known[dep]; !ok {
				continue
			}
			indegree[step.ID]++
			dependents[dep] = append(dependents[dep], step.ID)
		}
	}

	var queue []string
	for _, step := range steps {
		if indegree[step.ID] == 0 {
			queue = append(queue, step.ID)
		}
	}

	order := make([]string, 0, len(steps))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		for _, dependent := range dependents[node] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	return order, len(order) == len(steps)
}
