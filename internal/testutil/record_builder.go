package testutil

import (
	"time"

	"github.com/hupe1980/semanticmemory/core"
)

// RecordBuilder provides a fluent helper for constructing memory records.
// Example:
//
//	rec := NewRecordBuilder("id1").Text("hello").Embedding(1, 0).Build()
type RecordBuilder struct {
	rec core.MemoryRecord
}

// NewRecordBuilder creates a builder for a local record keyed by id.
func NewRecordBuilder(id string) *RecordBuilder {
	return &RecordBuilder{rec: core.NewLocalRecord(id, "", "", "", nil)}
}

// Text sets the record text (chainable).
func (b *RecordBuilder) Text(t string) *RecordBuilder { b.rec.Metadata.Text = t; return b }

// Description sets the record description (chainable).
func (b *RecordBuilder) Description(d string) *RecordBuilder {
	b.rec.Metadata.Description = d
	return b
}

// Reference marks the record as a reference into source (chainable).
func (b *RecordBuilder) Reference(source string) *RecordBuilder {
	b.rec.Metadata.IsReference = true
	b.rec.Metadata.ExternalSourceName = source
	return b
}

// Embedding sets the record vector (chainable).
func (b *RecordBuilder) Embedding(v ...float32) *RecordBuilder { b.rec.Embedding = v; return b }

// At sets the record timestamp (chainable).
func (b *RecordBuilder) At(ts time.Time) *RecordBuilder { b.rec.Timestamp = ts; return b }

// Build returns the record.
func (b *RecordBuilder) Build() core.MemoryRecord { return b.rec.Clone() }
