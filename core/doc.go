// Package core provides the foundational domain types and contracts used by
// semanticmemory. It defines the core abstractions for:
//
//   - TextMemory (the save / get / search / list capability callers depend on)
//   - MemoryRecord / MemoryQueryResult (stored items and scored recall hits)
//   - MemoryStore (record level persistence with nearest neighbour search)
//   - EmbeddingGenerator (text to vector conversion)
//   - ModelLimiter (bounded model round trips for grounded completion)
//
// The package keeps implementation concerns (vector stores, embedding
// providers, model adapters) out of scope, exposing small interfaces so that
// backends can be swapped at wiring time without touching calling code.
package core
