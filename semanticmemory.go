// Package semanticmemory is the composition root of the module. It wires a
// core.TextMemory, an optional chat model and a logger into one value that
// hands out memory tools and answers grounded prompts.
//
// Without an explicit memory the null variant (memory.Null) is injected: every
// write is dropped and every lookup comes back empty, so callers use the same
// code path whether or not a memory backend is configured.
//
//	sm := semanticmemory.New(func(o *semanticmemory.Options) {
//		o.Memory = memory.NewSemanticTextMemory(store.NewVolatileStore(), embedder)
//		o.Model = openai.NewModel()
//	})
//	answer, err := sm.Ask(ctx, "What did we decide about the budget?")
package semanticmemory

import (
	"context"
	"errors"

	"github.com/hupe1980/semanticmemory/core"
	"github.com/hupe1980/semanticmemory/grounding"
	"github.com/hupe1980/semanticmemory/logging"
	"github.com/hupe1980/semanticmemory/memory"
	"github.com/hupe1980/semanticmemory/model"
	"github.com/hupe1980/semanticmemory/tool"
)

// ErrNoModel is returned by Ask when no model is configured.
var ErrNoModel = errors.New("semanticmemory: no model configured")

// Options configures a SemanticMemory instance.
type Options struct {
	// Memory backing tools and grounding (defaults to memory.Null).
	Memory core.TextMemory

	// Model used by Ask. Optional when only tools are needed.
	Model model.Model

	// Grounding tunes retrieval and the tool loop used by Ask.
	Grounding grounding.Options

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// SemanticMemory aggregates the configured memory, model and grounder.
type SemanticMemory struct {
	opts     Options
	grounder *grounding.Grounder
}

// New creates a SemanticMemory with optional overrides.
func New(optFns ...func(o *Options)) *SemanticMemory {
	opts := Options{
		Memory:    memory.Null,
		Grounding: grounding.DefaultOptions(),
		Logger:    logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Memory == nil {
		opts.Memory = memory.Null
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	sm := &SemanticMemory{opts: opts}

	if opts.Model != nil {
		sm.grounder = grounding.New(opts.Memory, opts.Model, func(o *grounding.Options) {
			*o = opts.Grounding
			if o.Logger == nil {
				o.Logger = opts.Logger
			}
		})
	}

	opts.Logger.Debug("semanticmemory.init",
		"memory_enabled", sm.MemoryEnabled(),
		"model", opts.Model != nil,
	)

	return sm
}

// Memory returns the configured memory.
func (sm *SemanticMemory) Memory() core.TextMemory { return sm.opts.Memory }

// MemoryEnabled reports whether a real memory is wired.
func (sm *SemanticMemory) MemoryEnabled() bool { return !memory.IsNull(sm.opts.Memory) }

// Tools returns the recall, save and memory_manager tools bound to the memory.
func (sm *SemanticMemory) Tools() []tool.Tool {
	tools := tool.NewMemoryTools(sm.opts.Memory, func(o *tool.MemoryToolOptions) {
		if sm.opts.Grounding.Collection != "" {
			o.DefaultCollection = sm.opts.Grounding.Collection
		}
		o.Logger = sm.opts.Logger
	})

	return append(tools, tool.NewMemoryManagerTool(sm.opts.Memory))
}

// Ask answers prompt with the configured model, grounded in memory.
func (sm *SemanticMemory) Ask(ctx context.Context, prompt string) (*grounding.Answer, error) {
	if sm.grounder == nil {
		return nil, ErrNoModel
	}

	return sm.grounder.Ask(ctx, prompt)
}
