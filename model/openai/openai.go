// Package openai implements model.Model on the OpenAI Chat Completions API,
// streaming and non-streaming, including function calling.
package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hupe1980/semanticmemory/core"
	"github.com/hupe1980/semanticmemory/model"
	"github.com/openai/openai-go"
)

type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Model adapts the Chat Completions API. Streaming requests are folded with
// the SDK's ChatCompletionAccumulator so text and tool calls end up in the
// same final response as a non-streaming call.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel creates a new OpenAI model using the official client. The client
// reads OPENAI_API_KEY from the environment.
func NewModel(optFns ...func(o *Options)) *Model {
	client := openai.NewClient()
	return NewModelFromClient(&client, optFns...)
}

// NewModelFromClient creates a new OpenAI model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.2,
		MaxCompletionTokens: 1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate implements model.Model.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		params := m.buildParams(req)
		if req.Stream {
			m.stream(ctx, params, out, errCh)
			return
		}
		m.complete(ctx, params, out, errCh)
	}()

	return out, errCh
}

// toMessages converts contents into chat messages. Function responses are
// sent as tool messages in the order they appear, which already follows the
// assistant message that requested them.
func toMessages(req model.Request) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Contents)+1)
	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}

	for _, c := range req.Contents {
		switch c.Role {
		case core.RoleSystem:
			messages = append(messages, openai.SystemMessage(c.Text()))
		case core.RoleAssistant:
			messages = append(messages, assistantMessage(c))
		case core.RoleTool:
			for _, p := range c.Parts {
				if fr, ok := p.(core.FunctionResponsePart); ok {
					messages = append(messages, openai.ToolMessage(responseText(fr.FunctionResponse), fr.FunctionResponse.ID))
				}
			}
		default:
			if text := c.Text(); text != "" {
				messages = append(messages, openai.UserMessage(text))
			}
		}
	}

	return messages
}

func assistantMessage(c core.Content) openai.ChatCompletionMessageParamUnion {
	calls := c.FunctionCalls()
	if len(calls) == 0 {
		return openai.AssistantMessage(c.Text())
	}

	toolCalls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(calls))
	for _, fc := range calls {
		toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
			ID: fc.ID,
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      fc.Name,
				Arguments: fc.Arguments,
			},
		})
	}

	return openai.ChatCompletionMessageParamUnion{OfAssistant: &openai.ChatCompletionAssistantMessageParam{
		ToolCalls: toolCalls,
	}}
}

// responseText renders a function response as the tool message body.
func responseText(fr core.FunctionResponse) string {
	if fr.Error != "" {
		return "error: " + fr.Error
	}
	switch v := fr.Response.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

func (m *Model) buildParams(req model.Request) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:            toMessages(req),
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}
	if req.Stream {
		params.StreamOptions = openai.ChatCompletionStreamOptionsParam{IncludeUsage: openai.Bool(true)}
	}

	for _, tdef := range req.Tools {
		params.Tools = append(params.Tools, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        tdef.Function.Name,
				Description: openai.String(tdef.Function.Description),
				Parameters:  tdef.Function.Parameters,
			},
		})
	}

	return params
}

func (m *Model) stream(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	stream := m.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	var acc openai.ChatCompletionAccumulator
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)

		for _, ch := range chunk.Choices {
			if ch.Delta.Content == "" {
				continue
			}
			out <- model.Response{
				ID:      chunk.ID,
				Partial: true,
				Content: core.NewTextContent(core.RoleAssistant, ch.Delta.Content),
			}
		}
	}

	if err := stream.Err(); err != nil {
		errCh <- fmt.Errorf("openai streaming error: %w", err)
		return
	}

	m.emitFinal(&acc.ChatCompletion, out, errCh)
}

func (m *Model) complete(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		errCh <- fmt.Errorf("openai api error: %w", err)
		return
	}

	m.emitFinal(resp, out, errCh)
}

// emitFinal converts the first choice of a (possibly accumulated) completion
// into the final response.
func (m *Model) emitFinal(cc *openai.ChatCompletion, out chan<- model.Response, errCh chan<- error) {
	if len(cc.Choices) == 0 {
		errCh <- fmt.Errorf("openai api error: no choices returned")
		return
	}

	msg := cc.Choices[0].Message

	var parts []core.Part
	if msg.Content != "" {
		parts = append(parts, core.TextPart{Text: msg.Content})
	}
	for _, tc := range msg.ToolCalls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		}})
	}

	var usage *model.TokenUsage
	if cc.Usage.TotalTokens > 0 {
		usage = toUsage(cc.Usage)
	}

	out <- model.Response{
		ID:           cc.ID,
		Content:      core.Content{Role: core.RoleAssistant, Parts: parts},
		FinishReason: cc.Choices[0].FinishReason,
		Usage:        usage,
	}
}

func toUsage(u openai.CompletionUsage) *model.TokenUsage {
	return &model.TokenUsage{
		PromptTokens:     int(u.PromptTokens),
		CompletionTokens: int(u.CompletionTokens),
		TotalTokens:      int(u.TotalTokens),
	}
}

func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "openai",
		SupportsTools: true,
	}
}
