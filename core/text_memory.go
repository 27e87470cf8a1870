package core

import "context"

const (
	// DefaultSearchLimit is the number of results Search returns when the
	// caller does not specify a limit.
	DefaultSearchLimit = 1

	// DefaultMinRelevanceScore is the relevance threshold Search applies when
	// the caller does not specify one.
	DefaultMinRelevanceScore = 0.7
)

// SaveOptions carries the optional inputs of SaveInformation and SaveReference.
type SaveOptions struct {
	// Description is a short human readable summary stored alongside the text.
	Description string
	// AdditionalMetadata is an opaque string persisted verbatim (often JSON).
	AdditionalMetadata string
}

// SearchOptions tunes a Search call.
type SearchOptions struct {
	// Limit caps the number of returned results. Values <= 0 yield no results.
	Limit int
	// MinRelevanceScore drops results scoring below the threshold (0..1).
	MinRelevanceScore float64
	// WithEmbeddings requests the stored vectors in the results.
	WithEmbeddings bool
}

// DefaultSearchOptions returns the search defaults shared by every TextMemory
// variant.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		Limit:             DefaultSearchLimit,
		MinRelevanceScore: DefaultMinRelevanceScore,
	}
}

// ApplySaveOptions folds functional options into a SaveOptions value.
func ApplySaveOptions(optFns ...func(o *SaveOptions)) SaveOptions {
	opts := SaveOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	return opts
}

// ApplySearchOptions folds functional options over DefaultSearchOptions.
func ApplySearchOptions(optFns ...func(o *SearchOptions)) SearchOptions {
	opts := DefaultSearchOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	return opts
}

// TextMemory is the semantic memory capability: save text (locally or as a
// reference to an external source), fetch it back by key, search it by
// meaning and enumerate collections.
//
// Collection identifiers are opaque strings naming a logical partition of a
// backend. Implementations must be safe for concurrent use.
type TextMemory interface {
	// SaveInformation stores text under the given record id.
	SaveInformation(ctx context.Context, collection, text, id string, optFns ...func(o *SaveOptions)) error

	// SaveReference stores text that points to an item living in an external
	// source (for example a document in a repository).
	SaveReference(ctx context.Context, collection, text, externalID, externalSourceName string, optFns ...func(o *SaveOptions)) error

	// Get returns the record stored under key. A nil result with a nil error
	// means nothing was found.
	Get(ctx context.Context, collection, key string) (*MemoryQueryResult, error)

	// Search returns records ordered by descending relevance to query.
	Search(ctx context.Context, collection, query string, optFns ...func(o *SearchOptions)) ([]MemoryQueryResult, error)

	// GetCollections lists the collections known to the backend.
	GetCollections(ctx context.Context) ([]string, error)
}
