package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/semanticmemory/core"
)

// MemoryManagerTool exposes the full core.TextMemory surface to a model
// through a single operation-dispatching tool. Use it when a model should
// manage collections and references itself; NewMemoryTools covers the common
// recall / save case.
type MemoryManagerTool struct {
	name        string
	description string
	mem         core.TextMemory
}

// NewMemoryManagerTool creates a memory management tool bound to mem.
//
// Supported operations:
//   - save_information / save_reference
//   - get
//   - search
//   - list_collections
func NewMemoryManagerTool(mem core.TextMemory) *MemoryManagerTool {
	return &MemoryManagerTool{
		name: "memory_manager",
		description: "Manages semantic memory. " +
			"Supports operations: save_information, save_reference, get, search, list_collections.",
		mem: mem,
	}
}

// Name returns the tool identifier.
func (t *MemoryManagerTool) Name() string {
	return t.name
}

// Description returns the tool description.
func (t *MemoryManagerTool) Description() string {
	return t.description
}

// Parameters returns the JSON schema for tool parameters.
func (t *MemoryManagerTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"operation": map[string]any{
				"type": "string",
				"enum": []string{
					"save_information", "save_reference", "get", "search", "list_collections",
				},
				"description": "The memory operation to perform",
			},
			"collection": map[string]any{
				"type":        "string",
				"description": "Memory collection the operation targets",
			},
			"text": map[string]any{
				"type":        "string",
				"description": "Text to save",
			},
			"id": map[string]any{
				"type":        "string",
				"description": "Record id for save_information / get, external id for save_reference",
			},
			"source": map[string]any{
				"type":        "string",
				"description": "External source name for save_reference",
			},
			"description": map[string]any{
				"type":        "string",
				"description": "Optional description stored with the text",
			},
			"query": map[string]any{
				"type":        "string",
				"description": "Search query",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum number of search results (default: 1)",
				"default":     core.DefaultSearchLimit,
			},
			"min_relevance_score": map[string]any{
				"type":        "number",
				"description": "Minimum relevance score for search results (default: 0.7)",
				"default":     core.DefaultMinRelevanceScore,
			},
		},
		"required": []string{"operation"},
	}
}

// Call implements the Tool interface with structured arguments.
func (t *MemoryManagerTool) Call(ctx context.Context, args map[string]any) (any, error) {
	operation, ok := args["operation"].(string)
	if !ok {
		return nil, NewToolError(t.name, "operation parameter is required", CodeValidation)
	}

	switch operation {
	case "save_information":
		return t.handleSaveInformation(ctx, args)
	case "save_reference":
		return t.handleSaveReference(ctx, args)
	case "get":
		return t.handleGet(ctx, args)
	case "search":
		return t.handleSearch(ctx, args)
	case "list_collections":
		return t.handleListCollections(ctx)
	default:
		return nil, NewToolError(t.name, fmt.Sprintf("unknown operation: %s", operation), CodeValidation)
	}
}

// requireString fetches a mandatory string argument for operation.
func (t *MemoryManagerTool) requireString(args map[string]any, key, operation string) (string, error) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", NewToolError(t.name, fmt.Sprintf("%s parameter is required for %s operation", key, operation), CodeValidation)
	}
	return v, nil
}

func (t *MemoryManagerTool) handleSaveInformation(ctx context.Context, args map[string]any) (any, error) {
	collection, err := t.requireString(args, "collection", "save_information")
	if err != nil {
		return nil, err
	}
	id, err := t.requireString(args, "id", "save_information")
	if err != nil {
		return nil, err
	}
	text, _ := args["text"].(string)
	description, _ := args["description"].(string)

	if err := t.mem.SaveInformation(ctx, collection, text, id, func(o *core.SaveOptions) {
		o.Description = description
	}); err != nil {
		return nil, err
	}

	return map[string]any{
		"collection": collection,
		"id":         id,
		"success":    true,
	}, nil
}

func (t *MemoryManagerTool) handleSaveReference(ctx context.Context, args map[string]any) (any, error) {
	collection, err := t.requireString(args, "collection", "save_reference")
	if err != nil {
		return nil, err
	}
	id, err := t.requireString(args, "id", "save_reference")
	if err != nil {
		return nil, err
	}
	source, err := t.requireString(args, "source", "save_reference")
	if err != nil {
		return nil, err
	}
	text, _ := args["text"].(string)
	description, _ := args["description"].(string)

	if err := t.mem.SaveReference(ctx, collection, text, id, source, func(o *core.SaveOptions) {
		o.Description = description
	}); err != nil {
		return nil, err
	}

	return map[string]any{
		"collection": collection,
		"id":         id,
		"source":     source,
		"success":    true,
	}, nil
}

func (t *MemoryManagerTool) handleGet(ctx context.Context, args map[string]any) (any, error) {
	collection, err := t.requireString(args, "collection", "get")
	if err != nil {
		return nil, err
	}
	id, err := t.requireString(args, "id", "get")
	if err != nil {
		return nil, err
	}

	res, err := t.mem.Get(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return map[string]any{"id": id, "exists": false}, nil
	}

	return map[string]any{
		"id":          id,
		"exists":      true,
		"text":        res.Metadata.Text,
		"description": res.Metadata.Description,
		"reference":   res.Metadata.IsReference,
		"source":      res.Metadata.ExternalSourceName,
	}, nil
}

func (t *MemoryManagerTool) handleSearch(ctx context.Context, args map[string]any) (any, error) {
	collection, err := t.requireString(args, "collection", "search")
	if err != nil {
		return nil, err
	}
	query, _ := args["query"].(string)
	limit := int(numberArg(args, "limit", core.DefaultSearchLimit))
	minScore := numberArg(args, "min_relevance_score", core.DefaultMinRelevanceScore)

	results, err := t.mem.Search(ctx, collection, query, func(o *core.SearchOptions) {
		o.Limit = limit
		o.MinRelevanceScore = minScore
	})
	if err != nil {
		return nil, err
	}

	hits := make([]map[string]any, 0, len(results))
	for _, r := range results {
		hits = append(hits, map[string]any{
			"id":        r.Metadata.ID,
			"text":      r.Metadata.Text,
			"relevance": r.Relevance,
		})
	}

	return map[string]any{
		"query":   query,
		"results": hits,
		"count":   len(hits),
	}, nil
}

func (t *MemoryManagerTool) handleListCollections(ctx context.Context) (any, error) {
	cols, err := t.mem.GetCollections(ctx)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"collections": cols,
		"count":       len(cols),
	}, nil
}
