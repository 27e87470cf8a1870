package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hupe1980/semanticmemory/internal/testutil"
	"github.com/hupe1980/semanticmemory/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ model.Model = (*Model)(nil)

type messagesRequest struct {
	System []struct {
		Text string `json:"text"`
	} `json:"system"`
	Messages []struct {
		Role    string           `json:"role"`
		Content []map[string]any `json:"content"`
	} `json:"messages"`
	Tools []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"tools"`
}

func newTestModel(t *testing.T, handler http.HandlerFunc) *Model {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := anthropic.NewClient(
		option.WithBaseURL(srv.URL),
		option.WithAPIKey("test-key"),
		option.WithMaxRetries(0),
	)
	return NewModelFromClient(&client)
}

func TestModel_Generate(t *testing.T) {
	var got messagesRequest
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&got)) {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_1",
			"type":        "message",
			"role":        "assistant",
			"model":       "claude-test",
			"stop_reason": "tool_use",
			"content": []map[string]any{
				{"type": "text", "text": "Let me check."},
				{"type": "tool_use", "id": "toolu_1", "name": "recall", "input": map[string]any{"input": "budget"}},
			},
			"usage": map[string]any{"input_tokens": 7, "output_tokens": 3},
		})
	})

	resp, err := model.Collect(context.Background(), m, model.Request{
		Instructions: "Use memory.",
		Contents: testutil.NewConversation().
			User("What is the budget?").
			Call("toolu_0", "recall", `{"input":"x"}`).
			Failure("toolu_0", "recall", "memory offline").
			Build(),
		Tools: []model.ToolDefinition{{Type: "function", Function: model.FunctionDefinition{
			Name:        "recall",
			Description: "Recall memories",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"input": map[string]any{"type": "string"}},
				"required":   []string{"input"},
			},
		}}},
	})
	require.NoError(t, err)

	require.Len(t, got.System, 1)
	assert.Equal(t, "Use memory.", got.System[0].Text)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "assistant", got.Messages[1].Role)
	assert.Equal(t, "user", got.Messages[2].Role)
	assert.Equal(t, "tool_result", got.Messages[2].Content[0]["type"])
	assert.Equal(t, true, got.Messages[2].Content[0]["is_error"])
	require.Len(t, got.Tools, 1)
	assert.Equal(t, "Recall memories", got.Tools[0].Description)

	assert.Equal(t, "msg_1", resp.ID)
	assert.Equal(t, "tool_calls", resp.FinishReason)
	assert.Equal(t, "Let me check.", resp.Content.Text())
	calls := resp.Content.FunctionCalls()
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{"input":"budget"}`, calls[0].Arguments)
	assert.Equal(t, 10, resp.Usage.TotalTokens)
}

func TestModel_StreamingUnsupported(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request")
	})

	_, err := model.Collect(context.Background(), m, model.Request{Stream: true})
	assert.ErrorIs(t, err, ErrStreamingUnsupported)
	assert.Equal(t, "anthropic", m.Info().Provider)
}
