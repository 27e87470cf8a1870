// Package sqlite implements core.MemoryStore on SQLite (modernc.org/sqlite,
// no cgo). Records keep their metadata as JSON and their vector as a
// little-endian float32 blob; nearest match queries scan the collection and
// score in Go.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hupe1980/semanticmemory/core"
	"github.com/hupe1980/semanticmemory/internal/vecmath"
	"github.com/hupe1980/semanticmemory/logging"
	"github.com/hupe1980/semanticmemory/store"
)

const schema = `
	CREATE TABLE IF NOT EXISTS collections (
		name TEXT PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS records (
		collection TEXT NOT NULL,
		key        TEXT NOT NULL,
		metadata   TEXT NOT NULL,
		embedding  BLOB,
		created_at TEXT NOT NULL,
		PRIMARY KEY (collection, key)
	);
`

// Options configures the SQLite store.
type Options struct {
	Logger logging.Logger
}

// Store is a persistent core.MemoryStore.
type Store struct {
	db  *sql.DB
	now func() time.Time

	*core.LoggerAdapter
}

// New opens (or creates) the database at dsn and migrates it. Use
// ":memory:" for a private in-memory database.
func New(dsn string, optFns ...func(o *Options)) (*Store, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: open: %w", err)
	}

	// Single writer; also keeps ":memory:" on one connection.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		schema,
	} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite store: migrate: %w", err)
		}
	}

	return &Store{
		db:            db,
		now:           time.Now,
		LoggerAdapter: core.NewLoggerAdapter(opts.Logger),
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateCollection registers an empty collection. Creating an existing
// collection is a no-op.
func (s *Store) CreateCollection(ctx context.Context, collection string) error {
	if collection == "" {
		return fmt.Errorf("%w: collection name is empty", core.ErrInvalidArgument)
	}
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO collections (name) VALUES (?)`, collection)
	if err != nil {
		return fmt.Errorf("sqlite store: create collection: %w", err)
	}
	return nil
}

// GetCollections returns the collection names in lexical order.
func (s *Store) GetCollections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM collections ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: list collections: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlite store: list collections: %w", err)
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

// DoesCollectionExist reports whether the collection was created.
func (s *Store) DoesCollectionExist(ctx context.Context, collection string) (bool, error) {
	return exists(ctx, s.db, collection)
}

// DeleteCollection drops a collection and all of its records.
func (s *Store) DeleteCollection(ctx context.Context, collection string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, collection)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return core.ErrCollectionNotFound
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM records WHERE collection = ?`, collection)
		return err
	})
}

// Upsert stores rec. The key defaults to the record id.
func (s *Store) Upsert(ctx context.Context, collection string, rec core.MemoryRecord) (string, error) {
	var key string
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		key, err = s.upsertTx(ctx, tx, collection, rec)
		return err
	})
	return key, err
}

// UpsertBatch stores all records in one transaction.
func (s *Store) UpsertBatch(ctx context.Context, collection string, recs []core.MemoryRecord) ([]string, error) {
	keys := make([]string, 0, len(recs))
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, rec := range recs {
			key, err := s.upsertTx(ctx, tx, collection, rec)
			if err != nil {
				return err
			}
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *Store) upsertTx(ctx context.Context, tx *sql.Tx, collection string, rec core.MemoryRecord) (string, error) {
	ok, err := exists(ctx, tx, collection)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", core.ErrCollectionNotFound
	}

	key := rec.Key
	if key == "" {
		key = rec.Metadata.ID
	}
	if key == "" {
		return "", fmt.Errorf("%w: record has no key or id", core.ErrInvalidArgument)
	}

	ts := rec.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}

	meta, err := json.Marshal(rec.Metadata)
	if err != nil {
		return "", fmt.Errorf("sqlite store: marshal metadata: %w", err)
	}

	const upsert = `
		INSERT INTO records (collection, key, metadata, embedding, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(collection, key) DO UPDATE SET
			metadata   = excluded.metadata,
			embedding  = excluded.embedding,
			created_at = excluded.created_at
	`

	_, err = tx.ExecContext(ctx, upsert, collection, key, string(meta), vecmath.Encode(rec.Embedding), ts.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("sqlite store: upsert: %w", err)
	}

	return key, nil
}

// Get returns the record stored under key.
func (s *Store) Get(ctx context.Context, collection, key string, withEmbedding bool) (core.MemoryRecord, error) {
	if err := s.requireCollection(ctx, collection); err != nil {
		return core.MemoryRecord{}, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT key, metadata, embedding, created_at FROM records WHERE collection = ? AND key = ?`,
		collection, key)

	rec, err := scanRecord(row, withEmbedding)
	if errors.Is(err, sql.ErrNoRows) {
		return core.MemoryRecord{}, core.ErrRecordNotFound
	}

	return rec, err
}

// GetBatch returns the records for the known keys, in the order requested.
func (s *Store) GetBatch(ctx context.Context, collection string, keys []string, withEmbeddings bool) ([]core.MemoryRecord, error) {
	if err := s.requireCollection(ctx, collection); err != nil {
		return nil, err
	}

	out := make([]core.MemoryRecord, 0, len(keys))
	for _, key := range keys {
		rec, err := s.Get(ctx, collection, key, withEmbeddings)
		if errors.Is(err, core.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	return out, nil
}

// Remove deletes a record. Removing an unknown key is a no-op.
func (s *Store) Remove(ctx context.Context, collection, key string) error {
	return s.RemoveBatch(ctx, collection, []string{key})
}

// RemoveBatch deletes several records.
func (s *Store) RemoveBatch(ctx context.Context, collection string, keys []string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		ok, err := exists(ctx, tx, collection)
		if err != nil {
			return err
		}
		if !ok {
			return core.ErrCollectionNotFound
		}
		for _, key := range keys {
			if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE collection = ? AND key = ?`, collection, key); err != nil {
				return fmt.Errorf("sqlite store: remove: %w", err)
			}
		}
		return nil
	})
}

// GetNearestMatches scores every record of the collection with cosine
// similarity, drops those below minRelevanceScore and returns the best limit.
func (s *Store) GetNearestMatches(ctx context.Context, collection string, embedding []float32, limit int, minRelevanceScore float64, withEmbeddings bool) ([]core.ScoredRecord, error) {
	if limit <= 0 {
		return []core.ScoredRecord{}, nil
	}
	if err := s.requireCollection(ctx, collection); err != nil {
		return nil, err
	}

	start := time.Now()

	rows, err := s.db.QueryContext(ctx,
		`SELECT key, metadata, embedding, created_at FROM records WHERE collection = ?`,
		collection)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: scan: %w", err)
	}
	defer rows.Close()

	scored := []core.ScoredRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows, true)
		if err != nil {
			return nil, err
		}
		score := vecmath.CosineSimilarity(embedding, rec.Embedding)
		if score < minRelevanceScore {
			continue
		}
		if !withEmbeddings {
			rec.Embedding = nil
		}
		scored = append(scored, core.ScoredRecord{Record: rec, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite store: scan: %w", err)
	}

	s.LogDebug("sqlite.nearest", "collection", collection, "candidates", len(scored), "duration_ms", time.Since(start).Milliseconds())

	return store.Rank(scored, limit), nil
}

// GetNearestMatch returns the single best match or core.ErrRecordNotFound.
func (s *Store) GetNearestMatch(ctx context.Context, collection string, embedding []float32, minRelevanceScore float64, withEmbedding bool) (core.ScoredRecord, error) {
	matches, err := s.GetNearestMatches(ctx, collection, embedding, 1, minRelevanceScore, withEmbedding)
	if err != nil {
		return core.ScoredRecord{}, err
	}
	if len(matches) == 0 {
		return core.ScoredRecord{}, core.ErrRecordNotFound
	}
	return matches[0], nil
}

func (s *Store) requireCollection(ctx context.Context, collection string) error {
	ok, err := exists(ctx, s.db, collection)
	if err != nil {
		return err
	}
	if !ok {
		return core.ErrCollectionNotFound
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite store: begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite store: commit: %w", err)
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func exists(ctx context.Context, q queryer, collection string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(1) FROM collections WHERE name = ?`, collection).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sqlite store: lookup collection: %w", err)
	}
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner, withEmbedding bool) (core.MemoryRecord, error) {
	var (
		rec     core.MemoryRecord
		meta    string
		blob    []byte
		created string
	)

	if err := sc.Scan(&rec.Key, &meta, &blob, &created); err != nil {
		return core.MemoryRecord{}, err
	}
	if err := json.Unmarshal([]byte(meta), &rec.Metadata); err != nil {
		return core.MemoryRecord{}, fmt.Errorf("sqlite store: decode metadata: %w", err)
	}
	if withEmbedding {
		rec.Embedding = vecmath.Decode(blob)
	}
	if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
		rec.Timestamp = ts
	}

	return rec, nil
}
