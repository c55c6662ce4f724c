// Package agent implements the sub-agent hierarchy behind hierarchical
// tools: typed actors (Specialist, Coordinator, Executor) with a status
// state machine, private memory and bounded execution history, plus the
// Manager that registers agents and runs named hierarchies.
//
// Cross-agent access only happens through explicit task and result payloads;
// no agent reaches into another agent's state.
package agent
