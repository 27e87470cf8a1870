package memory

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/hupe1980/semanticmemory/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertions)
var (
	_ core.TextMemory = NullMemory{}
	_ core.TextMemory = (*NullMemory)(nil)
	_ core.TextMemory = Null
)

func assertEmpty(t *testing.T, mem core.TextMemory, collection, query string) {
	t.Helper()
	ctx := context.Background()

	got, err := mem.Get(ctx, collection, query)
	require.NoError(t, err)
	assert.Nil(t, got)

	res, err := mem.Search(ctx, collection, query)
	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.Empty(t, res)

	cols, err := mem.GetCollections(ctx)
	require.NoError(t, err)
	assert.NotNil(t, cols)
	assert.Empty(t, cols)
}

func TestNullMemory_Scenario(t *testing.T) {
	ctx := context.Background()
	mem := Null

	require.NoError(t, mem.SaveInformation(ctx, "notes", "hello world", "id1"))

	got, err := mem.Get(ctx, "notes", "hello world")
	require.NoError(t, err)
	assert.Nil(t, got)

	res, err := mem.Search(ctx, "notes", "hello", func(o *core.SearchOptions) {
		o.Limit = 5
		o.MinRelevanceScore = 0.5
	})
	require.NoError(t, err)
	assert.Empty(t, res)

	cols, err := mem.GetCollections(ctx)
	require.NoError(t, err)
	assert.Empty(t, cols)
}

func TestNullMemory_WritesHaveNoEffect(t *testing.T) {
	ctx := context.Background()
	mem := NewNullMemory()

	for i := 0; i < 10; i++ {
		col := fmt.Sprintf("col-%d", i)
		require.NoError(t, mem.SaveInformation(ctx, col, "text", "id", func(o *core.SaveOptions) {
			o.Description = "desc"
			o.AdditionalMetadata = `{"k":"v"}`
		}))
		require.NoError(t, mem.SaveReference(ctx, col, "text", "ext", "github"))
		assertEmpty(t, mem, col, "text")
	}
}

func TestNullMemory_SearchBoundaries(t *testing.T) {
	ctx := context.Background()
	cases := []core.SearchOptions{
		{Limit: 0, MinRelevanceScore: 0.0},
		{Limit: math.MaxInt, MinRelevanceScore: 1.0},
		{Limit: -1, MinRelevanceScore: 0.7},
		{Limit: 1, MinRelevanceScore: 0.0, WithEmbeddings: true},
	}
	for _, tc := range cases {
		tc := tc
		res, err := Null.Search(ctx, "c", "q", func(o *core.SearchOptions) { *o = tc })
		require.NoError(t, err)
		assert.Empty(t, res, "options %+v", tc)
	}
}

func TestNullMemory_MalformedInput(t *testing.T) {
	assertEmpty(t, Null, "", "")
	assertEmpty(t, Null, "\x00weird/collection", "  ")
	assert.NoError(t, Null.SaveInformation(context.Background(), "", "", ""))
	assert.NoError(t, Null.SaveReference(context.Background(), "", "", "", ""))
}

func TestNullMemory_IgnoresCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, Null.SaveInformation(ctx, "notes", "t", "id"))
	got, err := Null.Get(ctx, "notes", "id")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestNullMemory_ResultsAreFresh(t *testing.T) {
	ctx := context.Background()
	res, _ := Null.Search(ctx, "c", "q")
	res = append(res, core.MemoryQueryResult{Relevance: 1})
	assert.Len(t, res, 1)

	again, _ := Null.Search(ctx, "c", "q")
	assert.Empty(t, again)
}

func TestNullMemory_ConcurrentSaveReference(t *testing.T) {
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := Null.SaveReference(ctx, "docs", "text", fmt.Sprintf("ext-%d", i), "src"); err != nil {
				t.Errorf("save reference: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assertEmpty(t, Null, "docs", "text")
}

func TestIsNull(t *testing.T) {
	assert.True(t, IsNull(Null))
	assert.True(t, IsNull(&NullMemory{}))
	assert.False(t, IsNull(nil))
	assert.False(t, IsNull(NewSemanticTextMemory(nil, nil)))
}
