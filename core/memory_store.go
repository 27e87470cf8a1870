package core

import "context"

// MemoryStore defines record level persistence plus nearest neighbour search
// over embeddings. Collections partition records; keys are unique within a
// collection. Short method names align with other *Store interfaces.
//
// Implementations return ErrCollectionNotFound for operations on a missing
// collection and must be safe for concurrent use.
type MemoryStore interface {
	CreateCollection(ctx context.Context, collection string) error
	GetCollections(ctx context.Context) ([]string, error)
	DoesCollectionExist(ctx context.Context, collection string) (bool, error)
	DeleteCollection(ctx context.Context, collection string) error

	// Upsert stores the record and returns its key.
	Upsert(ctx context.Context, collection string, rec MemoryRecord) (string, error)
	UpsertBatch(ctx context.Context, collection string, recs []MemoryRecord) ([]string, error)

	// Get returns ErrRecordNotFound when key is unknown.
	Get(ctx context.Context, collection, key string, withEmbedding bool) (MemoryRecord, error)
	// GetBatch skips unknown keys.
	GetBatch(ctx context.Context, collection string, keys []string, withEmbeddings bool) ([]MemoryRecord, error)

	Remove(ctx context.Context, collection, key string) error
	RemoveBatch(ctx context.Context, collection string, keys []string) error

	// GetNearestMatches returns at most limit records whose similarity to
	// embedding is >= minRelevanceScore, ordered by descending score.
	GetNearestMatches(ctx context.Context, collection string, embedding []float32, limit int, minRelevanceScore float64, withEmbeddings bool) ([]ScoredRecord, error)
	// GetNearestMatch returns the best match or ErrRecordNotFound.
	GetNearestMatch(ctx context.Context, collection string, embedding []float32, minRelevanceScore float64, withEmbedding bool) (ScoredRecord, error)
}
