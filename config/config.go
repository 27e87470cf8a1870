// Package config loads a YAML description of a semanticmemory deployment
// (memory backend, embeddings, chat model, grounding, logging and metrics)
// and builds the wired components from it.
//
// A minimal file:
//
//	memory:
//	  backend: sqlite
//	  dsn: ./memory.db
//	embedding:
//	  provider: openai
//	  cache_size: 256
//	model:
//	  provider: anthropic
//
// Every key is optional. A missing file yields the defaults, which wire the
// null memory and no model.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/semanticmemory/core"
	"github.com/hupe1980/semanticmemory/grounding"
)

// Memory backends.
const (
	BackendNull     = "null"
	BackendVolatile = "volatile"
	BackendSQLite   = "sqlite"
)

// Embedding and model providers.
const (
	ProviderHash      = "hash"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config is the root of the YAML document.
type Config struct {
	Memory    MemoryConfig    `yaml:"memory"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Model     ModelConfig     `yaml:"model"`
	Grounding GroundingConfig `yaml:"grounding"`
	Logger    LoggerConfig    `yaml:"logger"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// MemoryConfig selects the TextMemory implementation.
type MemoryConfig struct {
	// Backend is one of null, volatile or sqlite.
	Backend string `yaml:"backend" validate:"oneof=null volatile sqlite"`
	// DSN is the sqlite database path (":memory:" for a private database).
	DSN string `yaml:"dsn"`
}

// EmbeddingConfig selects the embedding generator used by non-null backends.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider" validate:"oneof=hash openai"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions" validate:"gte=0"`
	// CacheSize enables the query vector cache when > 0.
	CacheSize int           `yaml:"cache_size" validate:"gte=0"`
	CacheTTL  time.Duration `yaml:"cache_ttl" validate:"gte=0"`
	// RequestsPerMinute throttles remote providers (0 = unlimited).
	RequestsPerMinute int `yaml:"requests_per_minute" validate:"gte=0"`
	// BreakerFailures opens a circuit around remote providers after that
	// many consecutive failures (0 = no breaker).
	BreakerFailures uint32        `yaml:"breaker_failures"`
	BreakerTimeout  time.Duration `yaml:"breaker_timeout" validate:"gte=0"`
}

// ModelConfig selects the chat model used by Ask. An empty provider leaves
// the model unset.
type ModelConfig struct {
	Provider    string  `yaml:"provider" validate:"omitempty,oneof=openai anthropic"`
	Name        string  `yaml:"name"`
	Temperature float64 `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int64   `yaml:"max_tokens" validate:"gte=0"`
}

// GroundingConfig mirrors grounding.Options.
type GroundingConfig struct {
	Collection        string  `yaml:"collection" validate:"required"`
	Limit             int     `yaml:"limit" validate:"gte=0"`
	MinRelevanceScore float64 `yaml:"min_relevance_score" validate:"gte=0,lte=1"`
	Instructions      string  `yaml:"instructions"`
	EnableTools       bool    `yaml:"enable_tools"`
	MaxModelCalls     int     `yaml:"max_model_calls" validate:"gte=0"`
}

// LoggerConfig configures the slog backed logger.
type LoggerConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format" validate:"oneof=text json"`
	AddSource bool   `yaml:"add_source"`
}

// MetricsConfig enables Prometheus instrumentation of the memory.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace" validate:"required_if=Enabled true"`
}

// Defaults returns a config with every field set to its default.
func Defaults() *Config {
	g := grounding.DefaultOptions()

	return &Config{
		Memory: MemoryConfig{
			Backend: BackendNull,
			DSN:     "semanticmemory.db",
		},
		Embedding: EmbeddingConfig{
			Provider:   ProviderHash,
			Dimensions: 256,
			CacheSize:  256,
			CacheTTL:   30 * time.Minute,
		},
		Model: ModelConfig{
			Temperature: 0.2,
			MaxTokens:   1024,
		},
		Grounding: GroundingConfig{
			Collection:        g.Collection,
			Limit:             g.Limit,
			MinRelevanceScore: g.MinRelevanceScore,
			Instructions:      g.Instructions,
			EnableTools:       g.EnableTools,
			MaxModelCalls:     g.MaxModelCalls,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Namespace: "semanticmemory",
		},
	}
}

// Load reads a YAML config file, applies env var overrides and validates
// the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Defaults()
			ApplyEnvOverrides(cfg)
			if err := Validate(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse decodes YAML from r on top of the defaults, applies env var
// overrides and validates the result. Unknown keys are rejected.
func Parse(r io.Reader) (*Config, error) {
	cfg := Defaults()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ApplyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnvOverrides maps SEMANTICMEMORY_* env vars to config fields.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SEMANTICMEMORY_MEMORY_BACKEND"); v != "" {
		cfg.Memory.Backend = v
	}
	if v := os.Getenv("SEMANTICMEMORY_MEMORY_DSN"); v != "" {
		cfg.Memory.DSN = v
	}
	if v := os.Getenv("SEMANTICMEMORY_EMBEDDING_PROVIDER"); v != "" {
		cfg.Embedding.Provider = v
	}
	if v := os.Getenv("SEMANTICMEMORY_MODEL_PROVIDER"); v != "" {
		cfg.Model.Provider = v
	}
	if v := os.Getenv("SEMANTICMEMORY_MODEL_NAME"); v != "" {
		cfg.Model.Name = v
	}
	if v := os.Getenv("SEMANTICMEMORY_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("SEMANTICMEMORY_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
}

// GroundingOptions converts the grounding section into grounding.Options.
func (c *Config) GroundingOptions() grounding.Options {
	o := grounding.DefaultOptions()
	o.Collection = c.Grounding.Collection
	o.Limit = c.Grounding.Limit
	o.MinRelevanceScore = c.Grounding.MinRelevanceScore
	o.Instructions = c.Grounding.Instructions
	o.EnableTools = c.Grounding.EnableTools
	o.MaxModelCalls = c.Grounding.MaxModelCalls

	return o
}

// SearchDefaults returns the search options implied by the grounding section,
// for callers that query the memory directly.
func (c *Config) SearchDefaults() func(o *core.SearchOptions) {
	return func(o *core.SearchOptions) {
		o.Limit = c.Grounding.Limit
		o.MinRelevanceScore = c.Grounding.MinRelevanceScore
	}
}
