// Package tool implements the tool calling subsystem: a registry that maps
// tool names to callable functions with schema validated arguments, plus a
// hierarchical variant that binds tool names to sub-agents. It also provides
// the advisory capability-based tool selection used by the planner.
package tool
