package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hupe1980/semanticmemory/core"
	"github.com/hupe1980/semanticmemory/internal/testutil"
	"github.com/hupe1980/semanticmemory/model"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ model.Model = (*Model)(nil)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role       string `json:"role"`
		Content    any    `json:"content"`
		ToolCallID string `json:"tool_call_id"`
	} `json:"messages"`
	Tools []struct {
		Function struct {
			Name string `json:"name"`
		} `json:"function"`
	} `json:"tools"`
}

func newTestModel(t *testing.T, handler http.HandlerFunc) *Model {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := openai.NewClient(
		option.WithBaseURL(srv.URL),
		option.WithAPIKey("test-key"),
		option.WithMaxRetries(0),
	)
	return NewModelFromClient(&client, func(o *Options) { o.Model = "gpt-test" })
}

func TestModel_GenerateToolCall(t *testing.T) {
	var got chatRequest
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&got)) {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-test",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "tool_calls",
				"message": map[string]any{
					"role":    "assistant",
					"content": "",
					"tool_calls": []map[string]any{{
						"id":   "call_1",
						"type": "function",
						"function": map[string]any{
							"name":      "recall",
							"arguments": `{"input":"budget"}`,
						},
					}},
				},
			}},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	})

	resp, err := model.Collect(context.Background(), m, model.Request{
		Instructions: "Use memory.",
		Contents: testutil.NewConversation().
			User("What is the budget?").
			Call("call_0", "recall", "{}").
			Result("call_0", "recall", map[string]any{"n": 1}).
			Build(),
		Tools: []model.ToolDefinition{{Type: "function", Function: model.FunctionDefinition{Name: "recall", Parameters: map[string]any{"type": "object"}}}},
	})
	require.NoError(t, err)

	assert.Equal(t, "gpt-test", got.Model)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "assistant", got.Messages[2].Role)
	assert.Equal(t, "tool", got.Messages[3].Role)
	assert.Equal(t, "call_0", got.Messages[3].ToolCallID)
	require.Len(t, got.Tools, 1)
	assert.Equal(t, "recall", got.Tools[0].Function.Name)

	assert.Equal(t, "chatcmpl-1", resp.ID)
	assert.Equal(t, "tool_calls", resp.FinishReason)
	calls := resp.Content.FunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "call_1", calls[0].ID)
	assert.JSONEq(t, `{"input":"budget"}`, calls[0].Arguments)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
}

func TestModel_GenerateStreaming(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, delta := range []string{"Hel", "lo"} {
			fmt.Fprintf(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"gpt-test\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", delta)
		}
		fmt.Fprint(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"gpt-test\",\"choices\":[{\"index\":0,\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	respCh, errCh := m.Generate(context.Background(), model.Request{
		Stream:   true,
		Contents: []core.Content{core.NewTextContent(core.RoleUser, "hi")},
	})

	var partial []string
	var final model.Response
	for r := range respCh {
		if r.Partial {
			partial = append(partial, r.Content.Text())
			continue
		}
		final = r
	}
	require.NoError(t, <-errCh)
	assert.Equal(t, []string{"Hel", "lo"}, partial)
	assert.Equal(t, "Hello", final.Content.Text())
	assert.Equal(t, "stop", final.FinishReason)
}

func TestModel_GenerateAPIError(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad request","type":"invalid_request_error"}}`))
	})

	_, err := model.Collect(context.Background(), m, model.Request{
		Contents: []core.Content{core.NewTextContent(core.RoleUser, "hi")},
	})
	assert.Error(t, err)
	assert.Equal(t, "openai", m.Info().Provider)
	assert.Equal(t, "gpt-test", m.Info().Name)
}
