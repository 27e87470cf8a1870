package model

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/hupe1980/semanticmemory/core"
)

// ErrNoResponse is returned by Collect when a generation ends without a final
// (non-partial) response.
var ErrNoResponse = errors.New("model returned no final response")

// ToolDefinition announces a tool to the model. Type is always "function".
type ToolDefinition struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition carries the name, description and JSON schema of a tool.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request is what every adapter translates into its provider's call.
// Instructions become the system prompt.
type Request struct {
	Instructions string           `json:"instructions"`
	Contents     []core.Content   `json:"contents"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Stream       bool             `json:"stream,omitempty"`
}

// TokenUsage counts the tokens billed for one or more calls.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add returns the element-wise sum of u and o. Either side may be nil.
func (u *TokenUsage) Add(o *TokenUsage) *TokenUsage {
	if u == nil && o == nil {
		return nil
	}
	sum := &TokenUsage{}
	for _, x := range []*TokenUsage{u, o} {
		if x == nil {
			continue
		}
		sum.PromptTokens += x.PromptTokens
		sum.CompletionTokens += x.CompletionTokens
		sum.TotalTokens += x.TotalTokens
	}
	return sum
}

// Response is one chunk of a generation. Streaming adapters emit Partial
// chunks first; the last chunk is never partial. FinishReason uses the
// OpenAI vocabulary ("stop", "length", "tool_calls").
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"`
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	SupportsTools bool   `json:"supports_tools"`
}

// Model generates a response for a request. Both channels are closed when
// the generation ends; at most one error is sent.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)
	Info() Info
}

// Collect drains a generation and returns its final response. Partial chunks
// are discarded.
func Collect(ctx context.Context, m Model, req Request) (Response, error) {
	respCh, errCh := m.Generate(ctx, req)

	var (
		final Response
		found bool
	)

	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if !r.Partial {
				final, found = r, true
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return Response{}, err
			}
		}
	}

	if !found {
		return Response{}, ErrNoResponse
	}

	return final, nil
}

// MockModel is an offline Model for tests and examples. Each Generate call
// pops the next scripted content (Script). With an empty script it answers
// the last user text with its canned response (AddResponse) or an echo.
type MockModel struct {
	info Info

	mu        sync.Mutex
	responses map[string]string
	script    []core.Content
	requests  []Request
}

func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      provider,
			SupportsTools: true,
		},
		responses: make(map[string]string),
	}
}

// AddResponse answers prompt with response.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// Script queues assistant messages.
func (m *MockModel) Script(contents ...core.Content) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, contents...)
}

// Requests returns a copy of every request received.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.requests)
}

// Generate streams the answer rune by rune when req.Stream is set.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	content, err := m.next(req)

	go func() {
		defer close(respCh)
		defer close(errCh)

		if err != nil {
			errCh <- err
			return
		}

		if req.Stream {
			for _, r := range content.Text() {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, Content: core.NewTextContent(core.RoleAssistant, string(r))}:
				}
			}
		}

		finish := "stop"
		if len(content.FunctionCalls()) > 0 {
			finish = "tool_calls"
		}

		respCh <- Response{
			Content:      content,
			FinishReason: finish,
			Usage:        &TokenUsage{PromptTokens: 1, CompletionTokens: 1, TotalTokens: 2},
		}
	}()

	return respCh, errCh
}

func (m *MockModel) next(req Request) (core.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if len(m.script) > 0 {
		c := m.script[0]
		m.script = m.script[1:]
		if c.Role == "" {
			c.Role = core.RoleAssistant
		}
		return c, nil
	}

	var input string
	for i := len(req.Contents) - 1; i >= 0; i-- {
		if req.Contents[i].Role == core.RoleUser {
			input = req.Contents[i].Text()
			break
		}
	}
	if input == "" {
		return core.Content{}, fmt.Errorf("no user content provided")
	}

	full := m.responses[input]
	if full == "" {
		full = fmt.Sprintf("Mock response to: %s", input)
	}

	return core.NewTextContent(core.RoleAssistant, full), nil
}

func (m *MockModel) Info() Info { return m.info }
