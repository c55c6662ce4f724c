// Package logging provides a tiny abstraction over slog so the engine can
// depend on a minimal interface (Logger) while letting applications plug any
// structured logger. It also offers a richer KernelLogger with contextual
// helpers (request, component) and domain specific logging helpers for model
// calls, tool invocations, plan steps and critiques.
package logging
