package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLocalRecord(t *testing.T) {
	rec := NewLocalRecord("id1", "hello world", "greeting", `{"lang":"en"}`, []float32{1, 0})
	assert.False(t, rec.Metadata.IsReference)
	assert.Equal(t, "id1", rec.Key)
	assert.Equal(t, "id1", rec.Metadata.ID)
	assert.Equal(t, "hello world", rec.Metadata.Text)
	assert.Equal(t, "greeting", rec.Metadata.Description)
	assert.Equal(t, `{"lang":"en"}`, rec.Metadata.AdditionalMetadata)
}

func TestNewReferenceRecord(t *testing.T) {
	rec := NewReferenceRecord("README.md", "github", "readme", "", []float32{0, 1})
	assert.True(t, rec.Metadata.IsReference)
	assert.Equal(t, "github", rec.Metadata.ExternalSourceName)
	assert.Equal(t, "README.md", rec.Key)
	assert.Empty(t, rec.Metadata.Text)
}

func TestMemoryRecord_CloneIsolation(t *testing.T) {
	rec := NewLocalRecord("id1", "t", "", "", []float32{1, 2, 3})
	cp := rec.Clone()
	cp.Embedding[0] = 42
	assert.Equal(t, float32(1), rec.Embedding[0])
}

func TestQueryResultFromRecord(t *testing.T) {
	rec := NewLocalRecord("id1", "t", "", "", []float32{1, 2})

	res := QueryResultFromRecord(rec, 0.9, false)
	assert.Equal(t, 0.9, res.Relevance)
	assert.Nil(t, res.Embedding)

	res = QueryResultFromRecord(rec, 1.0, true)
	assert.Equal(t, []float32{1, 2}, res.Embedding)
	res.Embedding[0] = 7
	assert.Equal(t, float32(1), rec.Embedding[0])
}

func TestSearchOptionDefaults(t *testing.T) {
	opts := ApplySearchOptions()
	assert.Equal(t, DefaultSearchLimit, opts.Limit)
	assert.Equal(t, DefaultMinRelevanceScore, opts.MinRelevanceScore)
	assert.False(t, opts.WithEmbeddings)

	opts = ApplySearchOptions(func(o *SearchOptions) { o.Limit = 5; o.MinRelevanceScore = 0.5 })
	assert.Equal(t, 5, opts.Limit)
	assert.Equal(t, 0.5, opts.MinRelevanceScore)
}

func TestSaveOptions(t *testing.T) {
	opts := ApplySaveOptions(func(o *SaveOptions) { o.Description = "d" })
	assert.Equal(t, "d", opts.Description)
	assert.Empty(t, opts.AdditionalMetadata)
}
