package core

import "context"

// EmbeddingGenerator converts text into vectors.
type EmbeddingGenerator interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions returns the vector length.
	Dimensions() int
	// Name identifies the provider (e.g. "openai", "hash").
	Name() string
}
