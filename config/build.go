package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	openaisdk "github.com/openai/openai-go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/semanticmemory"
	"github.com/hupe1980/semanticmemory/core"
	"github.com/hupe1980/semanticmemory/embedding"
	embopenai "github.com/hupe1980/semanticmemory/embedding/openai"
	"github.com/hupe1980/semanticmemory/logging"
	"github.com/hupe1980/semanticmemory/memory"
	"github.com/hupe1980/semanticmemory/model"
	"github.com/hupe1980/semanticmemory/model/anthropic"
	"github.com/hupe1980/semanticmemory/model/openai"
	"github.com/hupe1980/semanticmemory/store"
	"github.com/hupe1980/semanticmemory/store/sqlite"
)

// BuildOptions tunes Build.
type BuildOptions struct {
	// Registerer receives the memory metrics when metrics are enabled
	// (defaults to prometheus.DefaultRegisterer).
	Registerer prometheus.Registerer
	// LogOutput receives log lines (defaults to os.Stderr).
	LogOutput io.Writer
}

// Runtime is a built SemanticMemory together with the resources it owns.
type Runtime struct {
	*semanticmemory.SemanticMemory

	Logger  *logging.MemoryLogger
	closers []io.Closer
}

// Close releases the resources opened by Build, such as the sqlite database.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i].Close())
	}
	return errors.Join(errs...)
}

// Build wires the components described by cfg.
func Build(cfg *Config, optFns ...func(o *BuildOptions)) (*Runtime, error) {
	opts := BuildOptions{
		Registerer: prometheus.DefaultRegisterer,
		LogOutput:  os.Stderr,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:       logging.ParseLevel(strings.ToLower(cfg.Logger.Level)),
		Format:      cfg.Logger.Format,
		Output:      opts.LogOutput,
		AddSource:   cfg.Logger.AddSource,
		CustomAttrs: map[string]any{},
	})

	rt := &Runtime{Logger: logger}

	mem, err := rt.buildMemory(cfg, logger)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	if cfg.Metrics.Enabled {
		instrumented, err := memory.NewInstrumentedMemory(mem, opts.Registerer, func(o *memory.InstrumentOptions) {
			o.Namespace = cfg.Metrics.Namespace
			o.ConstLabels = prometheus.Labels{"backend": cfg.Memory.Backend}
			o.OpLogger = logger
		})
		if err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("register memory metrics: %w", err)
		}
		mem = instrumented
	}

	m := buildModel(cfg)

	rt.SemanticMemory = semanticmemory.New(func(o *semanticmemory.Options) {
		o.Memory = mem
		o.Model = m
		o.Grounding = cfg.GroundingOptions()
		o.Logger = logger
	})

	logger.Info("config.built",
		"backend", cfg.Memory.Backend,
		"embedding", cfg.Embedding.Provider,
		"model", cfg.Model.Provider,
		"metrics", cfg.Metrics.Enabled,
	)

	return rt, nil
}

func (rt *Runtime) buildMemory(cfg *Config, logger logging.Logger) (core.TextMemory, error) {
	var s core.MemoryStore

	switch cfg.Memory.Backend {
	case BackendNull:
		return memory.Null, nil
	case BackendVolatile:
		s = store.NewVolatileStore()
	case BackendSQLite:
		db, err := sqlite.New(cfg.Memory.DSN, func(o *sqlite.Options) { o.Logger = logger })
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, db)
		s = db
	}

	return memory.NewSemanticTextMemory(s, buildEmbedder(cfg, logger), func(o *memory.Options) {
		o.Logger = logger
	}), nil
}

func buildEmbedder(cfg *Config, logger logging.Logger) core.EmbeddingGenerator {
	ec := cfg.Embedding

	var gen core.EmbeddingGenerator
	switch ec.Provider {
	case ProviderOpenAI:
		gen = embopenai.NewGenerator(func(o *embopenai.Options) {
			if ec.Model != "" {
				o.Model = openaisdk.EmbeddingModel(ec.Model)
			}
			o.Dimensions = ec.Dimensions
			o.RequestsPerMinute = ec.RequestsPerMinute
		})
		if ec.BreakerFailures > 0 {
			gen = embedding.NewBreakerGenerator(gen, func(o *embedding.BreakerOptions) {
				o.MaxFailures = ec.BreakerFailures
				if ec.BreakerTimeout > 0 {
					o.Timeout = ec.BreakerTimeout
				}
				o.Logger = logger
			})
		}
	default:
		gen = embedding.NewHashGenerator(ec.Dimensions)
	}

	return embedding.NewCachedGenerator(gen, ec.CacheSize, func(o *embedding.CacheOptions) {
		o.TTL = ec.CacheTTL
	})
}

func buildModel(cfg *Config) model.Model {
	mc := cfg.Model

	switch mc.Provider {
	case ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			if mc.Name != "" {
				o.Model = mc.Name
			}
			o.Temperature = mc.Temperature
			if mc.MaxTokens > 0 {
				o.MaxCompletionTokens = mc.MaxTokens
			}
		})
	case ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			if mc.Name != "" {
				o.Model = anthropicsdk.Model(mc.Name)
			}
			o.Temperature = mc.Temperature
			if mc.MaxTokens > 0 {
				o.MaxTokens = mc.MaxTokens
			}
		})
	default:
		return nil
	}
}
