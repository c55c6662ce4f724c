// Package builtin provides the default tool set: web search, Wikipedia
// lookup, a safe arithmetic calculator, webpage extraction, and a document
// search placeholder. Register wires all of them into a tool registry.
package builtin
