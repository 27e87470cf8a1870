// Package memory contains the TextMemory implementations. The TextMemory
// interface and the record types reside in the core package. Import
// github.com/hupe1980/semanticmemory/core and depend on core.TextMemory in
// your code; select an implementation at wiring time:
//
//   - SemanticTextMemory embeds text with a core.EmbeddingGenerator and
//     persists it in a core.MemoryStore (see the store package).
//   - NullMemory accepts every write and answers every read with an empty
//     result, for setups where memory is optional or not yet configured.
//
// InstrumentedMemory decorates any of them with Prometheus metrics.
package memory
