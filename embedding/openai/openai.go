// Package openai provides a core.EmbeddingGenerator backed by the OpenAI
// embeddings API through the official openai-go SDK.
package openai

import (
	"context"
	"fmt"

	"github.com/hupe1980/semanticmemory/core"
	"github.com/openai/openai-go"
	"golang.org/x/time/rate"
)

// Options configure the OpenAI embedding generator.
type Options struct {
	Model openai.EmbeddingModel
	// Dimensions requests shortened vectors (text-embedding-3 models only).
	// Zero keeps the model default and reports DefaultDimensions.
	Dimensions int
	// BatchSize caps the number of inputs per request.
	BatchSize int
	// RequestsPerMinute throttles calls to the embeddings endpoint. Zero
	// disables throttling.
	RequestsPerMinute int
	// Burst is the number of requests allowed at once (defaults to 1).
	Burst int
}

// DefaultDimensions is the vector length of text-embedding-3-small.
const DefaultDimensions = 1536

// Generator wraps the OpenAI embeddings endpoint behind core.EmbeddingGenerator.
type Generator struct {
	client  *openai.Client
	opts    Options
	limiter *rate.Limiter
}

// NewGenerator creates a generator using the official client. The API key is
// read from OPENAI_API_KEY by the SDK.
func NewGenerator(optFns ...func(o *Options)) *Generator {
	client := openai.NewClient()
	return NewGeneratorFromClient(&client, optFns...)
}

// NewGeneratorFromClient creates a generator from an existing client.
func NewGeneratorFromClient(client *openai.Client, optFns ...func(o *Options)) *Generator {
	opts := Options{
		Model:     openai.EmbeddingModelTextEmbedding3Small,
		BatchSize: 512,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 512
	}

	g := &Generator{client: client, opts: opts}
	if opts.RequestsPerMinute > 0 {
		burst := max(opts.Burst, 1)
		g.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerMinute)/60.0, burst)
	}

	return g
}

// Embed implements core.EmbeddingGenerator. Inputs are sent in batches and
// the vectors are returned in input order.
func (g *Generator) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += g.opts.BatchSize {
		end := min(start+g.opts.BatchSize, len(texts))
		vecs, err := g.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (g *Generator) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: batch},
		Model: g.opts.Model,
	}
	if g.opts.Dimensions > 0 {
		params.Dimensions = openai.Int(int64(g.opts.Dimensions))
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limit: %w", core.ErrEmbeddingFailed, err)
		}
	}

	resp, err := g.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: openai api error: %w", core.ErrEmbeddingFailed, err)
	}
	if len(resp.Data) != len(batch) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", core.ErrEmbeddingFailed, len(batch), len(resp.Data))
	}

	vecs := make([][]float32, len(batch))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(batch) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", core.ErrEmbeddingFailed, d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			vec[i] = float32(f)
		}
		vecs[d.Index] = vec
	}
	return vecs, nil
}

// Dimensions implements core.EmbeddingGenerator.
func (g *Generator) Dimensions() int {
	if g.opts.Dimensions > 0 {
		return g.opts.Dimensions
	}
	return DefaultDimensions
}

// Name implements core.EmbeddingGenerator.
func (g *Generator) Name() string { return "openai" }
