package core

import "time"

// MemoryRecordMetadata describes the payload of a stored memory independent
// of its vector.
type MemoryRecordMetadata struct {
	// IsReference marks records that point to an external source rather than
	// holding the canonical text.
	IsReference bool `json:"is_reference"`
	// ExternalSourceName names the external system (empty for local records).
	ExternalSourceName string `json:"external_source_name,omitempty"`
	// ID is the record id (or the external id for references).
	ID string `json:"id"`
	// Description is an optional summary.
	Description string `json:"description,omitempty"`
	// Text is the stored text.
	Text string `json:"text"`
	// AdditionalMetadata is opaque caller data.
	AdditionalMetadata string `json:"additional_metadata,omitempty"`
}

// MemoryRecord is the unit persisted by a MemoryStore.
type MemoryRecord struct {
	Metadata  MemoryRecordMetadata `json:"metadata"`
	Embedding []float32            `json:"embedding,omitempty"`
	// Key is the storage key assigned by the store (defaults to Metadata.ID).
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLocalRecord builds a record whose text is owned by the memory.
func NewLocalRecord(id, text, description, additionalMetadata string, embedding []float32) MemoryRecord {
	return MemoryRecord{
		Metadata: MemoryRecordMetadata{
			ID:                 id,
			Text:               text,
			Description:        description,
			AdditionalMetadata: additionalMetadata,
		},
		Embedding: embedding,
		Key:       id,
	}
}

// NewReferenceRecord builds a record pointing to an item in an external source.
func NewReferenceRecord(externalID, sourceName, description, additionalMetadata string, embedding []float32) MemoryRecord {
	return MemoryRecord{
		Metadata: MemoryRecordMetadata{
			IsReference:        true,
			ExternalSourceName: sourceName,
			ID:                 externalID,
			Description:        description,
			AdditionalMetadata: additionalMetadata,
		},
		Embedding: embedding,
		Key:       externalID,
	}
}

// Clone returns a deep copy so callers can mutate the result freely.
func (r MemoryRecord) Clone() MemoryRecord {
	cp := r
	if r.Embedding != nil {
		cp.Embedding = make([]float32, len(r.Embedding))
		copy(cp.Embedding, r.Embedding)
	}

	return cp
}

// MemoryQueryResult represents a retrieved memory item with a relevance score.
type MemoryQueryResult struct {
	Metadata  MemoryRecordMetadata `json:"metadata"`
	Relevance float64              `json:"relevance"`
	Embedding []float32            `json:"embedding,omitempty"`
}

// QueryResultFromRecord converts a stored record into a query result.
func QueryResultFromRecord(rec MemoryRecord, relevance float64, withEmbedding bool) MemoryQueryResult {
	res := MemoryQueryResult{Metadata: rec.Metadata, Relevance: relevance}
	if withEmbedding {
		res.Embedding = rec.Clone().Embedding
	}

	return res
}

// ScoredRecord pairs a record with its similarity to a query vector.
type ScoredRecord struct {
	Record MemoryRecord
	Score  float64
}
