package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/planmesh/internal/util"
)

// Func is a callable tool implementation. The returned payload is treated
// opaquely by the engine except for its "status" field ("success" or
// "error"); everything else belongs to the tool.
type Func func(ctx context.Context, params map[string]any) (map[string]any, error)

// Config describes one registered tool. Registered once, looked up by name,
// and immutable after registration for the lifetime of a request cycle.
type Config struct {
	// Name is the unique tool identifier plans refer to (snake_case).
	Name string `json:"name"`
	// FunctionName identifies the backing implementation.
	FunctionName string `json:"function_name"`
	// Description is shown to models during planning and critique.
	Description string `json:"description"`
	// Parameters is a minimal JSON schema describing accepted arguments.
	Parameters map[string]any `json:"parameters,omitempty"`
	// PriceUSD is the per-invocation cost surfaced to the critic.
	PriceUSD float64 `json:"price_usd,omitempty"`
	// Capabilities are the tags scored by OptimizeSelection.
	Capabilities []string `json:"capabilities,omitempty"`
	// Hierarchical marks a tool whose execution is delegated to a sub-agent.
	Hierarchical bool `json:"is_hierarchical,omitempty"`
}

// ValidationError re-exports the shared parameter validation error type.
type ValidationError = util.ValidationError

// NotFoundError is returned when a tool name is absent from both the plain
// and the hierarchical maps.
type NotFoundError struct {
	Tool string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tool not found: %s", e.Tool)
}

// InvocationError wraps a failure inside a tool function, preserving the
// tool name for step-local error reporting.
type InvocationError struct {
	Tool string
	Err  error
}

// Error implements the error interface.
func (e *InvocationError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

// Unwrap exposes the underlying failure.
func (e *InvocationError) Unwrap() error { return e.Err }
