package memory

import (
	"context"

	"github.com/hupe1980/semanticmemory/core"
)

// Null is the shared NullMemory instance. It holds no state, so a single
// value can serve every caller for the lifetime of the process.
var Null = NullMemory{}

// NullMemory is a core.TextMemory that never stores, embeds or retrieves
// anything. Writes succeed without effect; Get reports "not found"; Search and
// GetCollections return empty slices. No method ever returns an error, even
// for empty or malformed input, so callers cannot tell "no backend" from
// "backend found nothing".
//
// Stability: NullMemory is a compatibility shim and is scheduled for removal
// in a future release. New code should leave the memory unset instead of
// wiring an explicit null one.
type NullMemory struct{}

// NewNullMemory returns a NullMemory. Every value is interchangeable with Null.
func NewNullMemory() NullMemory { return NullMemory{} }

// SaveInformation discards the text.
func (NullMemory) SaveInformation(context.Context, string, string, string, ...func(o *core.SaveOptions)) error {
	return nil
}

// SaveReference discards the reference.
func (NullMemory) SaveReference(context.Context, string, string, string, string, ...func(o *core.SaveOptions)) error {
	return nil
}

// Get always reports that no record exists.
func (NullMemory) Get(context.Context, string, string) (*core.MemoryQueryResult, error) {
	return nil, nil
}

// Search always returns an empty result set. Limit and relevance options are
// accepted for signature compatibility only.
func (NullMemory) Search(context.Context, string, string, ...func(o *core.SearchOptions)) ([]core.MemoryQueryResult, error) {
	return []core.MemoryQueryResult{}, nil
}

// GetCollections always returns an empty list.
func (NullMemory) GetCollections(context.Context) ([]string, error) {
	return []string{}, nil
}

// IsNull reports whether mem is the null variant. Decorators exposing
// Unwrap() core.TextMemory are looked through.
func IsNull(mem core.TextMemory) bool {
	for {
		switch m := mem.(type) {
		case NullMemory, *NullMemory:
			return true
		case interface{ Unwrap() core.TextMemory }:
			mem = m.Unwrap()
		default:
			return false
		}
	}
}
