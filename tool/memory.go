package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hupe1980/semanticmemory/core"
	"github.com/hupe1980/semanticmemory/logging"
)

// Memory tool names.
const (
	RecallToolName = "recall"
	SaveToolName   = "save"
)

// MemoryToolOptions configures the recall / save tools.
type MemoryToolOptions struct {
	// DefaultCollection is used when the model omits "collection".
	DefaultCollection string
	// DefaultRelevance is the recall threshold when the model omits "relevance".
	DefaultRelevance float64
	// DefaultLimit is the recall limit when the model omits "limit".
	DefaultLimit int
	// NewKey generates keys for saves without an explicit "key".
	NewKey func() string
	Logger logging.Logger
}

// DefaultMemoryToolOptions returns the defaults: collection "generic",
// relevance 0.75, limit 1 and random UUID keys.
func DefaultMemoryToolOptions() MemoryToolOptions {
	return MemoryToolOptions{
		DefaultCollection: "generic",
		DefaultRelevance:  0.75,
		DefaultLimit:      1,
		NewKey:            uuid.NewString,
	}
}

type recallArgs struct {
	Input      string  `json:"input" description:"The information to retrieve"`
	Collection string  `json:"collection,omitempty" description:"Memory collection to search"`
	Relevance  float64 `json:"relevance,omitempty" description:"Minimum relevance score between 0 and 1"`
	Limit      int     `json:"limit,omitempty" description:"Maximum number of memories to return"`
}

type saveArgs struct {
	Input      string `json:"input" description:"The information to save"`
	Key        string `json:"key,omitempty" description:"Unique key of the memory; generated when empty"`
	Collection string `json:"collection,omitempty" description:"Memory collection to save into"`
}

// NewMemoryTools returns the recall and save tools bound to mem. Wired to
// memory.Null, recall always answers with an empty string and save succeeds
// without effect, so a model can be given the tools unconditionally.
func NewMemoryTools(mem core.TextMemory, optFns ...func(o *MemoryToolOptions)) []Tool {
	opts := DefaultMemoryToolOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.NewKey == nil {
		opts.NewKey = uuid.NewString
	}

	logOpt := func(o *FunctionToolOptions) { o.Logger = opts.Logger }

	recall := NewFunctionToolFromStruct(
		RecallToolName,
		"Semantic search and return up to N memories related to the input text",
		recallArgs{},
		func(ctx context.Context, args map[string]any) (any, error) {
			return recallMemories(ctx, mem, opts, args)
		},
		logOpt,
	)

	save := NewFunctionToolFromStruct(
		SaveToolName,
		"Save information to semantic memory",
		saveArgs{},
		func(ctx context.Context, args map[string]any) (any, error) {
			input, _ := args["input"].(string)
			collection := stringArg(args, "collection", opts.DefaultCollection)
			key := stringArg(args, "key", "")
			if key == "" {
				key = opts.NewKey()
			}
			if err := mem.SaveInformation(ctx, collection, input, key); err != nil {
				return nil, err
			}
			return map[string]any{"collection": collection, "key": key, "saved": true}, nil
		},
		logOpt,
	)

	return []Tool{recall, save}
}

// recallMemories returns "" when nothing matches, the bare text when the
// limit is 1 and a JSON array of texts otherwise.
func recallMemories(ctx context.Context, mem core.TextMemory, opts MemoryToolOptions, args map[string]any) (any, error) {
	input, _ := args["input"].(string)
	collection := stringArg(args, "collection", opts.DefaultCollection)
	relevance := numberArg(args, "relevance", opts.DefaultRelevance)
	limit := int(numberArg(args, "limit", float64(opts.DefaultLimit)))

	results, err := mem.Search(ctx, collection, input, func(o *core.SearchOptions) {
		o.Limit = limit
		o.MinRelevanceScore = relevance
	})
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return "", nil
	}

	if limit == 1 {
		return results[0].Metadata.Text, nil
	}

	texts := make([]string, 0, len(results))
	for _, r := range results {
		texts = append(texts, r.Metadata.Text)
	}

	b, err := json.Marshal(texts)
	if err != nil {
		return nil, fmt.Errorf("encode recall results: %w", err)
	}

	return string(b), nil
}

func stringArg(args map[string]any, key, def string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return def
}

func numberArg(args map[string]any, key string, def float64) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return def
	}
}
