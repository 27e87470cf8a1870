// Package grounding answers prompts with a chat model after consulting a
// core.TextMemory. Retrieved facts are rendered into the system instruction
// and, when enabled, the model may call the recall / save memory tools
// during the exchange.
//
// The grounder treats every memory the same way. Wired to memory.Null the
// search yields nothing, the instruction carries no facts and the prompt is
// answered by the model alone.
package grounding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/semanticmemory/core"
	"github.com/hupe1980/semanticmemory/internal/util"
	"github.com/hupe1980/semanticmemory/logging"
	"github.com/hupe1980/semanticmemory/model"
	"github.com/hupe1980/semanticmemory/tool"
)

// ErrEmptyPrompt is returned by Ask for a blank prompt.
var ErrEmptyPrompt = errors.New("grounding: empty prompt")

// DefaultInstructions is the system instruction template. It is rendered with
// Facts (retrieved texts), Collection and Prompt.
const DefaultInstructions = `You are a helpful assistant.
{{- if .Facts}}
Use the following facts from memory when they are relevant:
{{- range .Facts}}
- {{.}}
{{- end}}
{{- end}}`

// Options configures a Grounder.
type Options struct {
	// Collection searched for facts.
	Collection string
	// Limit is the maximum number of facts retrieved per prompt (<= 0 selects
	// the default).
	Limit int
	// MinRelevanceScore filters retrieved facts.
	MinRelevanceScore float64
	// Instructions is a text/template for the system instruction.
	Instructions string
	// EnableTools exposes the recall and save memory tools to the model.
	EnableTools bool
	// MaxModelCalls bounds the initial call plus tool round trips (<= 0
	// selects the default).
	MaxModelCalls int
	// NewID generates answer IDs.
	NewID  func() string
	Logger logging.Logger
}

// DefaultOptions returns the grounding defaults.
func DefaultOptions() Options {
	return Options{
		Collection:        "generic",
		Limit:             3,
		MinRelevanceScore: core.DefaultMinRelevanceScore,
		Instructions:      DefaultInstructions,
		EnableTools:       true,
		MaxModelCalls:     5,
		NewID:             uuid.NewString,
	}
}

// Answer is the result of a grounded completion.
type Answer struct {
	ID string
	// Text is the model's final answer.
	Text string
	// Facts holds the memories rendered into the instruction.
	Facts []core.MemoryQueryResult
	// ToolCalls counts the memory tool invocations made by the model.
	ToolCalls int
	Usage     *model.TokenUsage
}

// Grounder runs grounded completions. It is safe for concurrent use; every
// Ask carries its own conversation and call budget.
type Grounder struct {
	mem   core.TextMemory
	model model.Model
	tools []tool.Tool
	opts  Options

	*core.LoggerAdapter
}

// New creates a Grounder over mem and m.
func New(mem core.TextMemory, m model.Model, optFns ...func(o *Options)) *Grounder {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	def := DefaultOptions()
	if opts.NewID == nil {
		opts.NewID = def.NewID
	}
	if opts.Instructions == "" {
		opts.Instructions = def.Instructions
	}
	if opts.Limit <= 0 {
		opts.Limit = def.Limit
	}
	if opts.MaxModelCalls <= 0 {
		opts.MaxModelCalls = def.MaxModelCalls
	}

	g := &Grounder{
		mem:           mem,
		model:         m,
		opts:          opts,
		LoggerAdapter: core.NewLoggerAdapter(opts.Logger),
	}

	if opts.EnableTools {
		g.tools = tool.NewMemoryTools(mem, func(o *tool.MemoryToolOptions) {
			o.DefaultCollection = opts.Collection
			o.Logger = opts.Logger
		})
	}

	return g
}

// Tools returns the memory tools offered to the model, if any.
func (g *Grounder) Tools() []tool.Tool { return g.tools }

// Ask answers prompt. Memory errors abort the call; tool failures are
// reported back to the model as function responses.
func (g *Grounder) Ask(ctx context.Context, prompt string) (*Answer, error) {
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}

	answer := &Answer{ID: g.opts.NewID()}
	start := time.Now()

	facts, err := g.mem.Search(ctx, g.opts.Collection, prompt, func(o *core.SearchOptions) {
		o.Limit = g.opts.Limit
		o.MinRelevanceScore = g.opts.MinRelevanceScore
	})
	if err != nil {
		return nil, fmt.Errorf("grounding: search memory: %w", err)
	}
	answer.Facts = facts

	instructions, err := g.renderInstructions(prompt, facts)
	if err != nil {
		return nil, err
	}

	g.LogDebug("grounding.facts", "id", answer.ID, "collection", g.opts.Collection, "facts", len(facts))

	limiter := core.NewModelLimiter(g.opts.MaxModelCalls)
	contents := []core.Content{core.NewTextContent(core.RoleUser, prompt)}
	defs := tool.Definitions(g.tools)

	for {
		if err := limiter.Increment(); err != nil {
			g.LogWarn("grounding.limit", "id", answer.ID, "calls", limiter.Count()-1)
			return nil, fmt.Errorf("grounding: %w", err)
		}

		resp, err := model.Collect(ctx, g.model, model.Request{
			Instructions: instructions,
			Contents:     contents,
			Tools:        defs,
		})
		if err != nil {
			g.LogError("grounding.model_error", "id", answer.ID, "error", err.Error())
			return nil, fmt.Errorf("grounding: model call: %w", err)
		}
		answer.Usage = answer.Usage.Add(resp.Usage)

		calls := resp.Content.FunctionCalls()
		if len(calls) == 0 {
			answer.Text = resp.Content.Text()
			g.LogInfo("grounding.answer",
				"id", answer.ID,
				"facts", len(facts),
				"tool_calls", answer.ToolCalls,
				"model_calls", limiter.Count(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return answer, nil
		}

		results := core.Content{Role: core.RoleTool}
		for _, call := range calls {
			results.Parts = append(results.Parts, core.FunctionResponsePart{FunctionResponse: g.execute(ctx, call)})
		}
		answer.ToolCalls += len(calls)

		contents = append(contents, resp.Content, results)
	}
}

func (g *Grounder) renderInstructions(prompt string, facts []core.MemoryQueryResult) (string, error) {
	texts := make([]string, 0, len(facts))
	for _, f := range facts {
		texts = append(texts, f.Metadata.Text)
	}

	out, err := util.RenderTemplate(g.opts.Instructions, map[string]any{
		"Facts":      texts,
		"Collection": g.opts.Collection,
		"Prompt":     prompt,
	})
	if err != nil {
		return "", fmt.Errorf("grounding: render instructions: %w", err)
	}

	return out, nil
}

// execute runs a single function call against the offered tools.
func (g *Grounder) execute(ctx context.Context, call core.FunctionCall) core.FunctionResponse {
	resp := core.FunctionResponse{ID: call.ID, Name: call.Name}

	t, ok := tool.Find(g.tools, call.Name)
	if !ok {
		resp.Error = tool.NewToolError(call.Name, "tool not available", tool.CodeNotFound).Error()
		return resp
	}

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			resp.Error = tool.NewToolError(call.Name, "arguments are not a JSON object", tool.CodeValidation).Error()
			return resp
		}
	}

	result, err := t.Call(ctx, args)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}

	resp.Response = result

	return resp
}
