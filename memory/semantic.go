package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/semanticmemory/core"
	"github.com/hupe1980/semanticmemory/logging"
)

// Options configures a SemanticTextMemory.
type Options struct {
	// Logger receives one debug line per operation (defaults to NoOpLogger).
	Logger logging.Logger
}

// SemanticTextMemory is the embedding backed core.TextMemory. Text is turned
// into vectors by an EmbeddingGenerator and persisted as records in a
// MemoryStore; Search embeds the query and asks the store for its nearest
// neighbours.
//
// Concurrency: SemanticTextMemory holds no mutable state of its own and is as
// safe for concurrent use as its store and generator.
type SemanticTextMemory struct {
	store    core.MemoryStore
	embedder core.EmbeddingGenerator

	*core.LoggerAdapter
}

// NewSemanticTextMemory wires a store and an embedding generator.
func NewSemanticTextMemory(store core.MemoryStore, embedder core.EmbeddingGenerator, optFns ...func(o *Options)) *SemanticTextMemory {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &SemanticTextMemory{
		store:         store,
		embedder:      embedder,
		LoggerAdapter: core.NewLoggerAdapter(opts.Logger),
	}
}

// SaveInformation embeds text and upserts it as a local record keyed by id.
// The collection is created on first use.
func (m *SemanticTextMemory) SaveInformation(ctx context.Context, collection, text, id string, optFns ...func(o *core.SaveOptions)) error {
	opts := core.ApplySaveOptions(optFns...)
	start := time.Now()

	emb, err := m.prepare(ctx, collection, text)
	if err != nil {
		return err
	}

	rec := core.NewLocalRecord(id, text, opts.Description, opts.AdditionalMetadata, emb)
	if _, err := m.store.Upsert(ctx, collection, rec); err != nil {
		return fmt.Errorf("save information %q: %w", id, err)
	}

	m.LogDebug("memory.save_information", "collection", collection, "id", id, "duration_ms", time.Since(start).Milliseconds())

	return nil
}

// SaveReference embeds text and upserts it as a reference record pointing to
// externalID in externalSourceName.
func (m *SemanticTextMemory) SaveReference(ctx context.Context, collection, text, externalID, externalSourceName string, optFns ...func(o *core.SaveOptions)) error {
	opts := core.ApplySaveOptions(optFns...)
	start := time.Now()

	emb, err := m.prepare(ctx, collection, text)
	if err != nil {
		return err
	}

	rec := core.NewReferenceRecord(externalID, externalSourceName, opts.Description, opts.AdditionalMetadata, emb)
	if _, err := m.store.Upsert(ctx, collection, rec); err != nil {
		return fmt.Errorf("save reference %q: %w", externalID, err)
	}

	m.LogDebug("memory.save_reference", "collection", collection, "external_id", externalID, "source", externalSourceName, "duration_ms", time.Since(start).Milliseconds())

	return nil
}

// Get returns the record stored under key with relevance 1.0, or nil when the
// key or collection is unknown.
func (m *SemanticTextMemory) Get(ctx context.Context, collection, key string) (*core.MemoryQueryResult, error) {
	rec, err := m.store.Get(ctx, collection, key, false)
	if err != nil {
		if errors.Is(err, core.ErrRecordNotFound) || errors.Is(err, core.ErrCollectionNotFound) {
			m.LogDebug("memory.get.miss", "collection", collection, "key", key)
			return nil, nil
		}

		return nil, fmt.Errorf("get %q: %w", key, err)
	}

	res := core.QueryResultFromRecord(rec, 1.0, false)

	return &res, nil
}

// Search embeds query and returns up to Limit records scoring at least
// MinRelevanceScore, best first. A missing collection yields an empty result.
func (m *SemanticTextMemory) Search(ctx context.Context, collection, query string, optFns ...func(o *core.SearchOptions)) ([]core.MemoryQueryResult, error) {
	opts := core.ApplySearchOptions(optFns...)
	if opts.Limit <= 0 {
		return []core.MemoryQueryResult{}, nil
	}

	start := time.Now()

	emb, err := m.embed(ctx, query)
	if err != nil {
		return nil, err
	}

	matches, err := m.store.GetNearestMatches(ctx, collection, emb, opts.Limit, opts.MinRelevanceScore, opts.WithEmbeddings)
	if err != nil {
		if errors.Is(err, core.ErrCollectionNotFound) {
			return []core.MemoryQueryResult{}, nil
		}

		return nil, fmt.Errorf("search %q: %w", collection, err)
	}

	results := make([]core.MemoryQueryResult, 0, len(matches))
	for _, sr := range matches {
		results = append(results, core.QueryResultFromRecord(sr.Record, sr.Score, opts.WithEmbeddings))
	}

	m.LogDebug("memory.search", "collection", collection, "limit", opts.Limit, "min_relevance", opts.MinRelevanceScore, "hits", len(results), "duration_ms", time.Since(start).Milliseconds())

	return results, nil
}

// GetCollections delegates to the store.
func (m *SemanticTextMemory) GetCollections(ctx context.Context) ([]string, error) {
	return m.store.GetCollections(ctx)
}

// prepare validates the collection, ensures it exists and embeds text.
func (m *SemanticTextMemory) prepare(ctx context.Context, collection, text string) ([]float32, error) {
	if collection == "" {
		return nil, fmt.Errorf("%w: collection name is empty", core.ErrInvalidArgument)
	}

	exists, err := m.store.DoesCollectionExist(ctx, collection)
	if err != nil {
		return nil, err
	}

	if !exists {
		if err := m.store.CreateCollection(ctx, collection); err != nil {
			return nil, fmt.Errorf("create collection %q: %w", collection, err)
		}

		m.LogInfo("memory.collection.created", "collection", collection)
	}

	return m.embed(ctx, text)
}

func (m *SemanticTextMemory) embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := m.embedder.Embed(ctx, []string{text})
	if err != nil {
		if errors.Is(err, core.ErrEmbeddingFailed) {
			return nil, err
		}

		return nil, fmt.Errorf("%w: %w", core.ErrEmbeddingFailed, err)
	}

	if len(vecs) != 1 {
		return nil, fmt.Errorf("%w: expected 1 vector, got %d", core.ErrEmbeddingFailed, len(vecs))
	}

	return vecs[0], nil
}
