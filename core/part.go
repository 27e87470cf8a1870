package core

import "strings"

// Conversation roles understood by the model adapters.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Part is one segment of a message. The set of parts is closed: text, a
// function call requested by the model, or the result sent back for it.
type Part interface{ isPart() }

type TextPart struct {
	Text string
}

func (TextPart) isPart() {}

// FunctionCall is a tool invocation requested by the model. Arguments holds
// the raw JSON object the model produced.
type FunctionCall struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
}

type FunctionCallPart struct {
	FunctionCall FunctionCall
}

func (FunctionCallPart) isPart() {}

// FunctionResponse answers the FunctionCall with the same ID. Exactly one of
// Response and Error is meaningful.
type FunctionResponse struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Response any    `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

type FunctionResponsePart struct {
	FunctionResponse FunctionResponse
}

func (FunctionResponsePart) isPart() {}

// Content is a single message of a conversation.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

func NewTextContent(role, text string) Content {
	return Content{Role: role, Parts: []Part{TextPart{Text: text}}}
}

// Text joins the text parts, ignoring everything else.
func (c Content) Text() string {
	var b strings.Builder
	for _, text := range partsOf[TextPart](c) {
		b.WriteString(text.Text)
	}
	return b.String()
}

// FunctionCalls lists the requested calls in message order.
func (c Content) FunctionCalls() []FunctionCall {
	var out []FunctionCall
	for _, p := range partsOf[FunctionCallPart](c) {
		out = append(out, p.FunctionCall)
	}
	return out
}

func partsOf[P Part](c Content) []P {
	var out []P
	for _, part := range c.Parts {
		if p, ok := part.(P); ok {
			out = append(out, p)
		}
	}
	return out
}
