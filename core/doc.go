// Package core defines the shared data model of the plan lifecycle engine:
// plans and their steps, critique results, agent tasks and the interfaces that
// connect the engine to external collaborators (memory retrieval, sub-agent
// execution). All other packages depend on core; core depends on nothing but
// the standard library, which keeps the dependency graph acyclic.
package core
