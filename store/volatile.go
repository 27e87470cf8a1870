// Package store contains concrete core.MemoryStore implementations.
//
// VolatileStore keeps everything in process memory and scores matches with
// cosine similarity. It is suitable for tests, demos and small single process
// deployments. The sqlite sub package persists the same model to disk.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/semanticmemory/core"
	"github.com/hupe1980/semanticmemory/internal/vecmath"
)

// VolatileStore is a naive process-local MemoryStore.
//
// Layout: collection -> key -> record
//
// Concurrency: protected by RWMutex. Records are copied on the way in and out
// so callers never alias internal embeddings.
// Search: linear scan scoring every record against the query vector.
type VolatileStore struct {
	mu    sync.RWMutex
	store map[string]map[string]core.MemoryRecord
	now   func() time.Time
}

// NewVolatileStore creates an empty volatile store.
func NewVolatileStore() *VolatileStore {
	return &VolatileStore{
		store: make(map[string]map[string]core.MemoryRecord),
		now:   time.Now,
	}
}

// CreateCollection registers an empty collection. Creating an existing
// collection is a no-op.
func (s *VolatileStore) CreateCollection(_ context.Context, collection string) error {
	if collection == "" {
		return fmt.Errorf("%w: collection name is empty", core.ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.store[collection]; !exists {
		s.store[collection] = make(map[string]core.MemoryRecord)
	}
	return nil
}

// GetCollections returns the collection names in lexical order.
func (s *VolatileStore) GetCollections(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.store))
	for name := range s.store {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// DoesCollectionExist reports whether the collection was created.
func (s *VolatileStore) DoesCollectionExist(_ context.Context, collection string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.store[collection]
	return ok, nil
}

// DeleteCollection drops a collection and all of its records.
func (s *VolatileStore) DeleteCollection(_ context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.store[collection]; !ok {
		return core.ErrCollectionNotFound
	}
	delete(s.store, collection)
	return nil
}

// Upsert stores a copy of rec. The key defaults to the record id.
func (s *VolatileStore) Upsert(_ context.Context, collection string, rec core.MemoryRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertLocked(collection, rec)
}

// UpsertBatch stores all records atomically with respect to other callers.
func (s *VolatileStore) UpsertBatch(_ context.Context, collection string, recs []core.MemoryRecord) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(recs))
	for _, rec := range recs {
		key, err := s.upsertLocked(collection, rec)
		if err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// upsertLocked requires the write lock.
func (s *VolatileStore) upsertLocked(collection string, rec core.MemoryRecord) (string, error) {
	records, ok := s.store[collection]
	if !ok {
		return "", core.ErrCollectionNotFound
	}
	cp := rec.Clone()
	if cp.Key == "" {
		cp.Key = cp.Metadata.ID
	}
	if cp.Key == "" {
		return "", fmt.Errorf("%w: record has no key or id", core.ErrInvalidArgument)
	}
	if cp.Timestamp.IsZero() {
		cp.Timestamp = s.now()
	}
	records[cp.Key] = cp
	return cp.Key, nil
}

// Get returns a copy of the record stored under key.
func (s *VolatileStore) Get(_ context.Context, collection, key string, withEmbedding bool) (core.MemoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, ok := s.store[collection]
	if !ok {
		return core.MemoryRecord{}, core.ErrCollectionNotFound
	}
	rec, ok := records[key]
	if !ok {
		return core.MemoryRecord{}, core.ErrRecordNotFound
	}
	return project(rec, withEmbedding), nil
}

// GetBatch returns the records for the known keys, in key order.
func (s *VolatileStore) GetBatch(_ context.Context, collection string, keys []string, withEmbeddings bool) ([]core.MemoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, ok := s.store[collection]
	if !ok {
		return nil, core.ErrCollectionNotFound
	}
	out := make([]core.MemoryRecord, 0, len(keys))
	for _, key := range keys {
		if rec, ok := records[key]; ok {
			out = append(out, project(rec, withEmbeddings))
		}
	}
	return out, nil
}

// Remove deletes a record. Removing an unknown key is a no-op.
func (s *VolatileStore) Remove(_ context.Context, collection, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, ok := s.store[collection]
	if !ok {
		return core.ErrCollectionNotFound
	}
	delete(records, key)
	return nil
}

// RemoveBatch deletes several records.
func (s *VolatileStore) RemoveBatch(_ context.Context, collection string, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, ok := s.store[collection]
	if !ok {
		return core.ErrCollectionNotFound
	}
	for _, key := range keys {
		delete(records, key)
	}
	return nil
}

// GetNearestMatches scores every record with cosine similarity, drops those
// below minRelevanceScore and returns the best limit matches. Ties are broken
// by key so results are deterministic.
func (s *VolatileStore) GetNearestMatches(_ context.Context, collection string, embedding []float32, limit int, minRelevanceScore float64, withEmbeddings bool) ([]core.ScoredRecord, error) {
	if limit <= 0 {
		return []core.ScoredRecord{}, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, ok := s.store[collection]
	if !ok {
		return nil, core.ErrCollectionNotFound
	}
	scored := make([]core.ScoredRecord, 0, len(records))
	for _, rec := range records {
		score := vecmath.CosineSimilarity(embedding, rec.Embedding)
		if score < minRelevanceScore {
			continue
		}
		scored = append(scored, core.ScoredRecord{Record: project(rec, withEmbeddings), Score: score})
	}
	return Rank(scored, limit), nil
}

// Rank orders matches by descending score, breaking ties by key, and keeps
// at most limit of them. The slice is sorted in place.
func Rank(scored []core.ScoredRecord, limit int) []core.ScoredRecord {
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score == scored[j].Score {
			return scored[i].Record.Key < scored[j].Record.Key
		}
		return scored[i].Score > scored[j].Score
	})
	if limit >= 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// GetNearestMatch returns the single best match or core.ErrRecordNotFound.
func (s *VolatileStore) GetNearestMatch(ctx context.Context, collection string, embedding []float32, minRelevanceScore float64, withEmbedding bool) (core.ScoredRecord, error) {
	matches, err := s.GetNearestMatches(ctx, collection, embedding, 1, minRelevanceScore, withEmbedding)
	if err != nil {
		return core.ScoredRecord{}, err
	}
	if len(matches) == 0 {
		return core.ScoredRecord{}, core.ErrRecordNotFound
	}
	return matches[0], nil
}

// project copies rec, stripping the embedding unless requested.
func project(rec core.MemoryRecord, withEmbedding bool) core.MemoryRecord {
	if !withEmbedding {
		rec.Embedding = nil
		return rec
	}
	return rec.Clone()
}
