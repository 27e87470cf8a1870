// Package tool exposes Go functions to chat models as callable tools and
// ships the memory tools (recall, save, memory_manager) that let a model read
// and write a core.TextMemory.
package tool

import (
	"context"
	"fmt"
	"slices"

	"github.com/hupe1980/semanticmemory/internal/util"
	"github.com/hupe1980/semanticmemory/model"
)

// Tool is a capability a model may call. Implementations must be safe for
// concurrent use.
type Tool interface {
	// Name is the identifier the model calls the tool by.
	Name() string
	Description() string
	// Parameters is the JSON schema of the argument object.
	Parameters() map[string]any
	// Call runs the tool with the arguments decoded from the model's JSON.
	Call(ctx context.Context, args map[string]any) (any, error)
}

const (
	CodeValidation = "VALIDATION_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
	CodeNotFound   = "TOOL_NOT_FOUND"
)

// ValidationError is returned (as ToolError.Details) when the arguments do
// not match Parameters.
type ValidationError = util.ValidationError

// ToolError is the error every tool call failure surfaces as. Its message is
// fed back to the model.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func (e *ToolError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
}

func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}

// Definition is the declaration of t sent along with a model request.
func Definition(t Tool) model.ToolDefinition {
	return model.ToolDefinition{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		},
	}
}

func Definitions(tools []Tool) []model.ToolDefinition {
	defs := make([]model.ToolDefinition, len(tools))
	for i, t := range tools {
		defs[i] = Definition(t)
	}
	return defs
}

// Find looks a tool up by name.
func Find(tools []Tool, name string) (Tool, bool) {
	i := slices.IndexFunc(tools, func(t Tool) bool { return t.Name() == name })
	if i < 0 {
		return nil, false
	}
	return tools[i], true
}
