package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/semanticmemory/core"
	"github.com/hupe1980/semanticmemory/internal/vecmath"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertions)
var (
	_ core.EmbeddingGenerator = (*HashGenerator)(nil)
	_ core.EmbeddingGenerator = (*CachedGenerator)(nil)
	_ core.EmbeddingGenerator = (*BreakerGenerator)(nil)
)

type mockGenerator struct{ mock.Mock }

func (m *mockGenerator) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	vecs, _ := args.Get(0).([][]float32)
	return vecs, args.Error(1)
}

func (m *mockGenerator) Dimensions() int { return 2 }
func (m *mockGenerator) Name() string    { return "mock" }

func TestHashGenerator_Deterministic(t *testing.T) {
	g := NewHashGenerator(64)
	ctx := context.Background()

	a, err := g.Embed(ctx, []string{"Hello world", "hello, WORLD!"})
	require.NoError(t, err)
	require.Len(t, a, 2)
	assert.Len(t, a[0], 64)
	assert.Equal(t, a[0], a[1])
	assert.InDelta(t, 1.0, vecmath.CosineSimilarity(a[0], a[1]), 1e-6)
}

func TestHashGenerator_SharedWordsScoreHigher(t *testing.T) {
	g := NewHashGenerator(0)
	assert.Equal(t, DefaultHashDimensions, g.Dimensions())
	assert.Equal(t, "hash", g.Name())

	vecs, err := g.Embed(context.Background(), []string{
		"the cat sat on the mat",
		"a cat on a mat",
		"quantum chromodynamics lecture",
	})
	require.NoError(t, err)

	related := vecmath.CosineSimilarity(vecs[0], vecs[1])
	unrelated := vecmath.CosineSimilarity(vecs[0], vecs[2])
	assert.Greater(t, related, unrelated)
}

func TestHashGenerator_EmptyText(t *testing.T) {
	vecs, err := NewHashGenerator(8).Embed(context.Background(), []string{""})
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 8), vecs[0])
}

func TestHashGenerator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHashGenerator(8).Embed(ctx, []string{"x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCachedGenerator_CachesSingleTexts(t *testing.T) {
	inner := &mockGenerator{}
	inner.On("Embed", mock.Anything, []string{"q"}).Return([][]float32{{1, 0}}, nil).Once()

	g := NewCachedGenerator(inner, 2)
	ctx := context.Background()

	first, err := g.Embed(ctx, []string{"q"})
	require.NoError(t, err)
	first[0][0] = 42

	second, err := g.Embed(ctx, []string{"q"})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, second[0])

	inner.AssertNumberOfCalls(t, "Embed", 1)
	assert.Equal(t, "mock", g.Name())
	assert.Equal(t, 2, g.Dimensions())
}

func TestCachedGenerator_FullCacheStopsStoring(t *testing.T) {
	inner := &mockGenerator{}
	inner.On("Embed", mock.Anything, mock.Anything).Return([][]float32{{1, 1}}, nil)

	g := NewCachedGenerator(inner, 2).(*CachedGenerator)
	ctx := context.Background()
	for _, q := range []string{"a", "b", "c", "a", "c"} {
		_, err := g.Embed(ctx, []string{q})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, g.Len())
	// "c" arrived after the cache filled up so it is embedded twice
	inner.AssertNumberOfCalls(t, "Embed", 4)
}

func TestCachedGenerator_BoundHoldsUnderConcurrentMisses(t *testing.T) {
	g := NewCachedGenerator(NewHashGenerator(16), 5).(*CachedGenerator)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := g.Embed(ctx, []string{fmt.Sprintf("text %d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, g.Len())
}

func TestCachedGenerator_Expires(t *testing.T) {
	inner := &mockGenerator{}
	inner.On("Embed", mock.Anything, mock.Anything).Return([][]float32{{1, 1}}, nil)

	g := NewCachedGenerator(inner, 1, func(o *CacheOptions) {
		o.TTL = 20 * time.Millisecond
		o.CleanupInterval = 0
	}).(*CachedGenerator)
	ctx := context.Background()

	_, err := g.Embed(ctx, []string{"a"})
	require.NoError(t, err)
	_, err = g.Embed(ctx, []string{"a"})
	require.NoError(t, err)
	inner.AssertNumberOfCalls(t, "Embed", 1)

	time.Sleep(50 * time.Millisecond)

	// the expired entry is purged to make room for "b"
	_, err = g.Embed(ctx, []string{"b"})
	require.NoError(t, err)
	_, err = g.Embed(ctx, []string{"b"})
	require.NoError(t, err)
	inner.AssertNumberOfCalls(t, "Embed", 2)
	assert.Equal(t, 1, g.Len())
}

func TestCachedGenerator_BatchAndErrorsPassThrough(t *testing.T) {
	inner := &mockGenerator{}
	boom := errors.New("boom")
	inner.On("Embed", mock.Anything, []string{"x", "y"}).Return([][]float32{{1}, {2}}, nil)
	inner.On("Embed", mock.Anything, []string{"bad"}).Return(nil, boom)

	g := NewCachedGenerator(inner, 4).(*CachedGenerator)
	ctx := context.Background()

	vecs, err := g.Embed(ctx, []string{"x", "y"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)

	_, err = g.Embed(ctx, []string{"bad"})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, g.Len())
}

func TestNewCachedGenerator_Disabled(t *testing.T) {
	inner := NewHashGenerator(4)
	assert.Same(t, inner, NewCachedGenerator(inner, 0))
}

func TestBreakerGenerator_OpensAndRecovers(t *testing.T) {
	inner := &mockGenerator{}
	boom := errors.New("provider down")
	inner.On("Embed", mock.Anything, []string{"x"}).Return(nil, boom).Times(2)
	inner.On("Embed", mock.Anything, []string{"x"}).Return([][]float32{{1, 0}}, nil)

	g := NewBreakerGenerator(inner, func(o *BreakerOptions) {
		o.MaxFailures = 2
		o.Timeout = 30 * time.Millisecond
	})
	ctx := context.Background()

	for range 2 {
		_, err := g.Embed(ctx, []string{"x"})
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, gobreaker.StateOpen, g.State())

	_, err := g.Embed(ctx, []string{"x"})
	assert.ErrorIs(t, err, core.ErrEmbeddingFailed)
	assert.ErrorContains(t, err, "circuit open")
	inner.AssertNumberOfCalls(t, "Embed", 2)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, gobreaker.StateHalfOpen, g.State())

	vecs, err := g.Embed(ctx, []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}}, vecs)
	assert.Equal(t, gobreaker.StateClosed, g.State())
	assert.Equal(t, "mock", g.Name())
	assert.Equal(t, 2, g.Dimensions())
}

func TestBreakerGenerator_IgnoresCancellation(t *testing.T) {
	g := NewBreakerGenerator(NewHashGenerator(4), func(o *BreakerOptions) { o.MaxFailures = 1 })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Embed(ctx, []string{"x"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, gobreaker.StateClosed, g.State())
}
