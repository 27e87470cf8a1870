package embedding

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/hupe1980/semanticmemory/internal/vecmath"
)

// DefaultHashDimensions is the vector size used when none is configured.
const DefaultHashDimensions = 256

// HashGenerator is a deterministic bag-of-words embedding: every lower cased
// token is hashed (FNV-1a) into one of Dimensions buckets and the resulting
// vector is normalized to unit length. Texts sharing words therefore score a
// positive cosine similarity. It needs no model and is meant for tests, demos
// and offline development.
type HashGenerator struct {
	dims int
}

// NewHashGenerator creates a HashGenerator. dims <= 0 selects DefaultHashDimensions.
func NewHashGenerator(dims int) *HashGenerator {
	if dims <= 0 {
		dims = DefaultHashDimensions
	}
	return &HashGenerator{dims: dims}
}

// Embed implements core.EmbeddingGenerator.
func (g *HashGenerator) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, g.embedOne(text))
	}
	return out, nil
}

func (g *HashGenerator) embedOne(text string) []float32 {
	vec := make([]float32, g.dims)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, tok := range tokens {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[h.Sum32()%uint32(g.dims)]++
	}
	return vecmath.Normalize(vec)
}

// Dimensions implements core.EmbeddingGenerator.
func (g *HashGenerator) Dimensions() int { return g.dims }

// Name implements core.EmbeddingGenerator.
func (g *HashGenerator) Name() string { return "hash" }
