package core

import "errors"

var (
	// ErrCollectionNotFound is returned when a store operation targets a
	// collection that does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrRecordNotFound is returned when a key has no stored record.
	ErrRecordNotFound = errors.New("memory record not found")

	// ErrEmbeddingFailed wraps embedding provider failures.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrInvalidArgument is returned for empty collection names and similar
	// caller mistakes.
	ErrInvalidArgument = errors.New("invalid argument")
)
