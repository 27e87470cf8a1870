package tool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/semanticmemory/core"
	"github.com/hupe1980/semanticmemory/internal/util"
	"github.com/hupe1980/semanticmemory/logging"
)

// Func is the signature wrapped by FunctionTool.
type Func func(ctx context.Context, args map[string]any) (any, error)

// FunctionTool turns a Func into a Tool. Arguments are checked against the
// schema before fn runs, and every failure comes back as a *ToolError:
// CodeValidation for bad arguments, CodeExecution for a plain error from fn.
// A *ToolError returned by fn is passed through unchanged.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          Func

	*core.LoggerAdapter
}

type FunctionToolOptions struct {
	Logger logging.Logger
}

// NewFunctionTool wraps fn with an explicit parameter schema:
//
//	sum := NewFunctionTool("sum", "Add two numbers", map[string]any{
//		"type": "object",
//		"properties": map[string]any{
//			"a": map[string]any{"type": "number"},
//			"b": map[string]any{"type": "number"},
//		},
//		"required": []string{"a", "b"},
//	}, func(ctx context.Context, args map[string]any) (any, error) {
//		return args["a"].(float64) + args["b"].(float64), nil
//	})
func NewFunctionTool(name, description string, parameters map[string]any, fn Func, optFns ...func(o *FunctionToolOptions)) *FunctionTool {
	var opts FunctionToolOptions
	for _, f := range optFns {
		f(&opts)
	}

	return &FunctionTool{
		name:          name,
		description:   description,
		parameters:    parameters,
		fn:            fn,
		LoggerAdapter: core.NewLoggerAdapter(opts.Logger),
	}
}

// NewFunctionToolFromStruct derives the schema from the fields of structType.
func NewFunctionToolFromStruct(name, description string, structType any, fn Func, optFns ...func(o *FunctionToolOptions)) *FunctionTool {
	return NewFunctionTool(name, description, util.CreateSchema(structType), fn, optFns...)
}

func (t *FunctionTool) Name() string               { return t.name }
func (t *FunctionTool) Description() string        { return t.description }
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

func (t *FunctionTool) Call(ctx context.Context, args map[string]any) (any, error) {
	start := time.Now()

	if err := util.ValidateParameters(args, t.parameters); err != nil {
		t.LogWarn("tool.call.invalid", "tool", t.name, "error", err.Error())
		return nil, &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    CodeValidation,
			Details: err,
		}
	}

	result, err := t.fn(ctx, args)
	if err != nil {
		t.LogError("tool.call.error", "tool", t.name, "error", err.Error())

		var te *ToolError
		if errors.As(err, &te) {
			return nil, te
		}
		return nil, &ToolError{Tool: t.name, Message: err.Error(), Code: CodeExecution}
	}

	t.LogDebug("tool.call", "tool", t.name, "duration_ms", time.Since(start).Milliseconds())

	return result, nil
}
