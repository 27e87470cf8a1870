package semanticmemory

import (
	"context"
	"sync"
	"testing"

	"github.com/hupe1980/semanticmemory/embedding"
	"github.com/hupe1980/semanticmemory/grounding"
	"github.com/hupe1980/semanticmemory/memory"
	"github.com/hupe1980/semanticmemory/model"
	"github.com/hupe1980/semanticmemory/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsToNullMemory(t *testing.T) {
	sm := New()

	assert.Equal(t, memory.Null, sm.Memory())
	assert.False(t, sm.MemoryEnabled())

	_, err := sm.Ask(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrNoModel)

	sm = New(func(o *Options) {
		o.Memory = nil
		o.Logger = nil
	})
	assert.False(t, sm.MemoryEnabled())
}

func TestNew_SharedNullMemoryAcrossInstances(t *testing.T) {
	ctx := context.Background()
	a, b := New(), New()

	require.NoError(t, a.Memory().SaveInformation(ctx, "notes", "hello world", "id1"))

	got, err := b.Memory().Get(ctx, "notes", "id1")
	require.NoError(t, err)
	assert.Nil(t, got)

	cols, err := a.Memory().GetCollections(ctx)
	require.NoError(t, err)
	assert.Empty(t, cols)
}

func TestSemanticMemory_Tools(t *testing.T) {
	sm := New(func(o *Options) { o.Grounding.Collection = "project" })

	tools := sm.Tools()
	require.Len(t, tools, 3)
	assert.Equal(t, "recall", tools[0].Name())
	assert.Equal(t, "save", tools[1].Name())
	assert.Equal(t, "memory_manager", tools[2].Name())

	res, err := tools[1].Call(context.Background(), map[string]any{"input": "x", "key": "k"})
	require.NoError(t, err)
	assert.Equal(t, "project", res.(map[string]any)["collection"])
}

func TestSemanticMemory_AskWithNullMemory(t *testing.T) {
	m := model.NewMockModel("mock", "test")
	m.AddResponse("hello", "hi there")

	sm := New(func(o *Options) { o.Model = m })
	answer, err := sm.Ask(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi there", answer.Text)
	assert.Empty(t, answer.Facts)
}

func TestSemanticMemory_AskWithSemanticMemory(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewSemanticTextMemory(store.NewVolatileStore(), embedding.NewHashGenerator(256))
	require.NoError(t, mem.SaveInformation(ctx, "generic", "the launch is on friday", "launch"))

	m := model.NewMockModel("mock", "test")
	sm := New(func(o *Options) {
		o.Memory = mem
		o.Model = m
		o.Grounding = grounding.Options{
			Collection:        "generic",
			Limit:             1,
			MinRelevanceScore: 0.5,
		}
	})
	assert.True(t, sm.MemoryEnabled())

	answer, err := sm.Ask(ctx, "when is the launch")
	require.NoError(t, err)
	require.Len(t, answer.Facts, 1)
	assert.Equal(t, "launch", answer.Facts[0].Metadata.ID)
	assert.Contains(t, m.Requests()[0].Instructions, "- the launch is on friday")
	assert.Empty(t, m.Requests()[0].Tools)
}

func TestSemanticMemory_PartialGroundingOptions(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewSemanticTextMemory(store.NewVolatileStore(), embedding.NewHashGenerator(256))
	require.NoError(t, mem.SaveInformation(ctx, "notes", "the launch is on friday", "launch"))

	m := model.NewMockModel("mock", "test")
	sm := New(func(o *Options) {
		o.Memory = mem
		o.Model = m
		o.Grounding = grounding.Options{Collection: "notes"}
	})

	answer, err := sm.Ask(ctx, "the launch is on friday")
	require.NoError(t, err)
	require.Len(t, answer.Facts, 1)
	assert.Equal(t, "launch", answer.Facts[0].Metadata.ID)
	assert.NotEmpty(t, answer.ID)
}

func TestSemanticMemory_ConcurrentUseOfNullDefault(t *testing.T) {
	ctx := context.Background()
	sm := New()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, sm.Memory().SaveReference(ctx, "docs", "text", "ext", "src"))
		}()
	}
	wg.Wait()

	res, err := sm.Memory().Search(ctx, "docs", "text")
	require.NoError(t, err)
	assert.Empty(t, res)
}
