package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/hupe1980/semanticmemory/core"
	"github.com/hupe1980/semanticmemory/logging"
)

// BreakerOptions configures the circuit breaker around a generator.
type BreakerOptions struct {
	// MaxFailures is the number of consecutive failures that open the circuit.
	MaxFailures uint32
	// Timeout is how long the circuit stays open before a probe is allowed.
	Timeout time.Duration
	// Interval clears failure counts while closed (0 = never).
	Interval time.Duration
	Logger   logging.Logger
}

// BreakerGenerator fails fast once the wrapped generator keeps failing, so a
// dead embedding provider does not stall every save and search.
type BreakerGenerator struct {
	inner   core.EmbeddingGenerator
	breaker *gobreaker.CircuitBreaker[[][]float32]
}

// NewBreakerGenerator wraps inner with a circuit breaker.
func NewBreakerGenerator(inner core.EmbeddingGenerator, optFns ...func(o *BreakerOptions)) *BreakerGenerator {
	opts := BreakerOptions{
		MaxFailures: 5,
		Timeout:     30 * time.Second,
		Interval:    60 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxFailures == 0 {
		opts.MaxFailures = 1
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	cb := gobreaker.NewCircuitBreaker[[][]float32](gobreaker.Settings{
		Name:        "embedding:" + inner.Name(),
		MaxRequests: 1,
		Interval:    opts.Interval,
		Timeout:     opts.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			opts.Logger.Warn("embedding.breaker.state",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		// a cancelled caller says nothing about the provider
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &BreakerGenerator{inner: inner, breaker: cb}
}

// Embed implements core.EmbeddingGenerator.
func (b *BreakerGenerator) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := b.breaker.Execute(func() ([][]float32, error) {
		return b.inner.Embed(ctx, texts)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s circuit open: %w", core.ErrEmbeddingFailed, b.inner.Name(), err)
	}
	return vecs, err
}

// State returns the breaker state for monitoring.
func (b *BreakerGenerator) State() gobreaker.State { return b.breaker.State() }

// Dimensions implements core.EmbeddingGenerator.
func (b *BreakerGenerator) Dimensions() int { return b.inner.Dimensions() }

// Name implements core.EmbeddingGenerator.
func (b *BreakerGenerator) Name() string { return b.inner.Name() }
