package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hupe1980/actionweave/core"
	"github.com/hupe1980/actionweave/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestNormalizeStopReason(t *testing.T) {
	assert.Equal(t, model.FinishReasonStop, normalizeStopReason("end_turn"))
	assert.Equal(t, model.FinishReasonStop, normalizeStopReason("stop_sequence"))
	assert.Equal(t, model.FinishReasonToolCalls, normalizeStopReason("tool_use"))
	assert.Equal(t, model.FinishReasonLength, normalizeStopReason("max_tokens"))
	assert.Equal(t, "pause_turn", normalizeStopReason("pause_turn"))
}

func TestBuildParams(t *testing.T) {
	m := NewModelFromClient(nil)

	params := m.buildParams(model.Request{
		Instructions: "be brief",
		Contents: []core.Content{
			core.NewTextContent(core.RoleUser, "weather?"),
			{Role: core.RoleAssistant, Parts: []core.Part{core.FunctionCallPart{FunctionCall: core.FunctionCall{
				ID: "tu_1", Name: "get_weather", Arguments: `{"city":"Oslo"}`,
			}}}},
			core.NewFunctionResponseContent("tu_1", "get_weather", nil, errors.New("offline")),
		},
		Tools: []model.ToolDefinition{{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        "get_weather",
				Description: "Get the weather",
				Parameters: map[string]any{
					"type":       "object",
					"properties": map[string]any{"city": map[string]any{"type": "string"}},
					"required":   []any{"city"},
				},
			},
		}},
		ToolChoice: &model.ToolChoice{Type: model.ToolChoiceFunction, Name: "get_weather"},
	})

	raw, err := json.Marshal(params)
	require.NoError(t, err)

	doc := gjson.ParseBytes(raw)

	assert.Equal(t, "be brief", doc.Get("system.0.text").String())
	assert.Equal(t, "assistant", doc.Get("messages.1.role").String())
	assert.Equal(t, "tool_use", doc.Get("messages.1.content.0.type").String())
	assert.Equal(t, "user", doc.Get("messages.2.role").String())
	assert.Equal(t, "tool_result", doc.Get("messages.2.content.0.type").String())
	assert.True(t, doc.Get("messages.2.content.0.is_error").Bool())
	assert.Equal(t, "Get the weather", doc.Get("tools.0.description").String())
	assert.Equal(t, "city", doc.Get("tools.0.input_schema.required.0").String())
	assert.Equal(t, "tool", doc.Get("tool_choice.type").String())
	assert.Equal(t, "get_weather", doc.Get("tool_choice.name").String())
}

func TestBuildParams_ToolChoiceNoneDropsTools(t *testing.T) {
	m := NewModelFromClient(nil)

	params := m.buildParams(model.Request{
		Contents:   []core.Content{core.NewTextContent(core.RoleUser, "hi")},
		Tools:      []model.ToolDefinition{{Type: "function", Function: model.FunctionDefinition{Name: "x"}}},
		ToolChoice: &model.ToolChoice{Type: model.ToolChoiceNone},
	})

	assert.Empty(t, params.Tools)
}

func TestGenerate_ToolUse(t *testing.T) {
	var body []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",
			"content":[{"type":"text","text":"checking"},{"type":"tool_use","id":"tu_1","name":"get_weather","input":{"city":"Oslo"}}],
			"stop_reason":"tool_use","stop_sequence":null,"usage":{"input_tokens":5,"output_tokens":6}}`))
	}))
	t.Cleanup(srv.Close)

	client := anthropic.NewClient(option.WithBaseURL(srv.URL), option.WithAPIKey("test"), option.WithMaxRetries(0))
	m := NewModelFromClient(&client)

	respCh, errCh := m.Generate(context.Background(), model.Request{
		Contents: []core.Content{core.NewTextContent(core.RoleUser, "weather in Oslo?")},
		Stream:   true,
	})

	var got []model.Response
	for r := range respCh {
		got = append(got, r)
	}
	require.NoError(t, <-errCh)
	require.Len(t, got, 1)

	assert.False(t, got[0].Partial)
	assert.Equal(t, model.FinishReasonToolCalls, got[0].FinishReason)
	assert.Equal(t, "checking", got[0].Content.Text())

	calls := got[0].Content.FunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "tu_1", calls[0].ID)
	assert.JSONEq(t, `{"city":"Oslo"}`, calls[0].Arguments)
	assert.Equal(t, 11, got[0].Usage.TotalTokens)

	assert.Equal(t, "weather in Oslo?", gjson.GetBytes(body, "messages.0.content.0.text").String())
}
