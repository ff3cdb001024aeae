// Package quillflow is a deterministic execution engine for user-authored
// document-processing pipelines.
//
// A pipeline is a DAG of typed nodes (template, AI prompt, list parser,
// aggregator, batch loop, and interactive review steps) connected by edges.
// The engine validates the graph, computes a topological execution order,
// resolves each node's input from the outputs of its dependencies, and runs
// every node exactly once, recording the per-node trace as a Run.
//
// The engine itself is headless: LLM calls, usage metering, script
// evaluation, and persistence are collaborators injected via EngineConfig.
// See the llm, metering, sandbox, and store subpackages for the default
// implementations.
package quillflow
