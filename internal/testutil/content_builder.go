package testutil

import "github.com/hupe1980/semanticmemory/core"

// ConversationBuilder assembles an ordered list of contents, the shape sent
// to models in a tool round trip.
//
//	contents := NewConversation().
//		User("what is the budget?").
//		Call("call_1", "recall", `{"input":"budget"}`).
//		Result("call_1", "recall", "42 euros").
//		Build()
type ConversationBuilder struct {
	contents []core.Content
}

// NewConversation returns an empty builder.
func NewConversation() *ConversationBuilder { return &ConversationBuilder{} }

// User appends a user text turn (chainable).
func (b *ConversationBuilder) User(text string) *ConversationBuilder {
	b.contents = append(b.contents, core.NewTextContent(core.RoleUser, text))
	return b
}

// Assistant appends an assistant text turn (chainable).
func (b *ConversationBuilder) Assistant(text string) *ConversationBuilder {
	b.contents = append(b.contents, core.NewTextContent(core.RoleAssistant, text))
	return b
}

// Call appends an assistant turn requesting a single function call (chainable).
func (b *ConversationBuilder) Call(id, name, args string) *ConversationBuilder {
	b.contents = append(b.contents, core.Content{
		Role:  core.RoleAssistant,
		Parts: []core.Part{core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: id, Name: name, Arguments: args}}},
	})
	return b
}

// Result appends a tool turn answering call id (chainable).
func (b *ConversationBuilder) Result(id, name string, response any) *ConversationBuilder {
	b.contents = append(b.contents, core.Content{
		Role:  core.RoleTool,
		Parts: []core.Part{core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{ID: id, Name: name, Response: response}}},
	})
	return b
}

// Failure appends a tool turn reporting a failed call (chainable).
func (b *ConversationBuilder) Failure(id, name, msg string) *ConversationBuilder {
	b.contents = append(b.contents, core.Content{
		Role:  core.RoleTool,
		Parts: []core.Part{core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{ID: id, Name: name, Error: msg}}},
	})
	return b
}

// Build returns the accumulated contents.
func (b *ConversationBuilder) Build() []core.Content {
	out := make([]core.Content, len(b.contents))
	copy(out, b.contents)
	return out
}
