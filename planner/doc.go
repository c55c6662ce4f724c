// Package planner turns natural language requests into executable plans.
// Plan generation is model-driven; the surrounding pipeline of memory
// enhancement, hierarchical tool substitution and critique-driven
// self-correction is deterministic and bounded. A request never fails at
// this layer: unparsable model output degrades to a direct-answer fallback.
package planner
