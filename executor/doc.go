// Package executor runs plans: it validates structure up front, orders steps
// by their dependency graph, resolves step-output references in parameters
// and invokes tools through the registry. Execution continues past failed
// steps; the report carries per-step results and quality metrics.
package executor
