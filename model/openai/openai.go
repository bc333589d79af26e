// Package openai provides an implementation of model.Model using the OpenAI
// Chat Completions API (including streaming + function/tool calling). It
// adapts the normalized Request/Response structures into the SDK's message
// format and back. Streaming calls forward every raw choice delta so the
// stream aggregator can merge tool call fragments itself.
package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hupe1980/actionweave/core"
	"github.com/hupe1980/actionweave/model"
	"github.com/openai/openai-go"
)

// Options configure the OpenAI model adapter.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Model wraps the OpenAI Chat Completions API behind the generic model.Model interface.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel creates a new OpenAI model using the official client
// (OPENAI_API_KEY from the environment).
func NewModel(optFns ...func(o *Options)) *Model {
	client := openai.NewClient()
	return NewModelFromClient(&client, optFns...)
}

// NewModelFromClient creates a new OpenAI model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
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

		params := m.buildParams(req, buildMessages(req))

		if req.Stream {
			m.handleStreaming(ctx, params, out, errCh)
			return
		}

		m.handleNonStreaming(ctx, params, out, errCh)
	}()

	return out, errCh
}

// toolResultText renders a function response as tool message content.
func toolResultText(fr core.FunctionResponse) string {
	if fr.Error != "" {
		b, _ := json.Marshal(map[string]string{"error": fr.Error})
		return string(b)
	}

	switch v := fr.Response.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

// buildMessages converts the transcript into OpenAI chat messages. Tool
// results are emitted in transcript order right where they were recorded.
func buildMessages(req model.Request) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion

	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}

	for _, c := range req.Contents {
		text := c.Text()

		switch c.Role {
		case core.RoleSystem:
			messages = append(messages, openai.SystemMessage(text))
		case core.RoleUser:
			messages = append(messages, openai.UserMessage(text))
		case core.RoleTool:
			for _, fr := range c.FunctionResponses() {
				if fr.ID == "" {
					// no call to answer; surface as plain user feedback
					messages = append(messages, openai.UserMessage(toolResultText(fr)))
					continue
				}
				messages = append(messages, openai.ToolMessage(toolResultText(fr), fr.ID))
			}
			if text != "" {
				messages = append(messages, openai.UserMessage(text))
			}
		case core.RoleAssistant:
			toolCalls := extractToolCalls(c)
			if len(toolCalls) == 0 {
				messages = append(messages, openai.AssistantMessage(text))
				continue
			}

			assistant := &openai.ChatCompletionAssistantMessageParam{ToolCalls: toolCalls}
			if text != "" {
				assistant.Content.OfString = openai.String(text)
			}

			messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: assistant})
		default:
			if text != "" {
				messages = append(messages, openai.UserMessage(text))
			}
		}
	}

	return messages
}

// extractToolCalls extracts tool call parts as OpenAI tool calls.
func extractToolCalls(c core.Content) []openai.ChatCompletionMessageToolCallParam {
	var toolCalls []openai.ChatCompletionMessageToolCallParam

	for _, fc := range c.FunctionCalls() {
		toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
			ID: fc.ID,
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      fc.Name,
				Arguments: fc.Arguments,
			},
		})
	}

	return toolCalls
}

// buildParams assembles the request parameters including tools and tool_choice.
func (m *Model) buildParams(req model.Request, messages []openai.ChatCompletionMessageParamUnion) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}

	if len(req.Tools) == 0 {
		return params
	}

	tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
	for i, tdef := range req.Tools {
		tools[i] = openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        tdef.Function.Name,
				Description: openai.String(tdef.Function.Description),
				Parameters:  tdef.Function.Parameters,
			},
		}
	}

	params.Tools = tools

	if tc, ok := toolChoice(req.ToolChoice); ok {
		params.ToolChoice = tc
	}

	return params
}

func toolChoice(choice *model.ToolChoice) (openai.ChatCompletionToolChoiceOptionUnionParam, bool) {
	if choice == nil {
		return openai.ChatCompletionToolChoiceOptionUnionParam{}, false
	}

	switch choice.Type {
	case model.ToolChoiceFunction:
		return openai.ChatCompletionToolChoiceOptionUnionParam{
			OfChatCompletionNamedToolChoice: &openai.ChatCompletionNamedToolChoiceParam{
				Function: openai.ChatCompletionNamedToolChoiceFunctionParam{Name: choice.Name},
			},
		}, true
	case model.ToolChoiceNone, model.ToolChoiceAuto:
		return openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openai.String(string(choice.Type))}, true
	default:
		return openai.ChatCompletionToolChoiceOptionUnionParam{}, false
	}
}

// handleStreaming forwards every choice delta as a partial response.
func (m *Model) handleStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	stream := m.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	for stream.Next() {
		ck := stream.Current()
		for _, ch := range ck.Choices {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case out <- chunkResponse(ck.ID, ch):
			}
		}
	}

	if err := stream.Err(); err != nil {
		errCh <- fmt.Errorf("openai streaming error: %w", err)
	}
}

// chunkResponse converts one streamed choice into a partial response.
func chunkResponse(id string, ch openai.ChatCompletionChunkChoice) model.Response {
	delta := deltaMap(ch.Delta)

	resp := model.Response{
		ID:           id,
		Partial:      true,
		Delta:        delta,
		FinishReason: ch.FinishReason,
		Content:      core.Content{Role: core.RoleAssistant},
	}

	if text, ok := delta["content"].(string); ok && text != "" {
		resp.Content.Parts = []core.Part{core.TextPart{Text: text}}
	}

	return resp
}

// deltaMap decodes the raw delta JSON, keeping null and "" apart. Deltas
// built in memory (no raw JSON) are converted field by field.
func deltaMap(d openai.ChatCompletionChunkChoiceDelta) map[string]any {
	if raw := d.RawJSON(); raw != "" {
		var m map[string]any
		if err := json.Unmarshal([]byte(raw), &m); err == nil {
			return m
		}
	}

	m := map[string]any{}
	if d.Role != "" {
		m["role"] = d.Role
	}

	if d.Content != "" {
		m["content"] = d.Content
	}

	if len(d.ToolCalls) > 0 {
		calls := make([]any, 0, len(d.ToolCalls))
		for _, tc := range d.ToolCalls {
			call := map[string]any{"index": tc.Index}
			if tc.ID != "" {
				call["id"] = tc.ID
			}
			if tc.Type != "" {
				call["type"] = tc.Type
			}
			fn := map[string]any{}
			if tc.Function.Name != "" {
				fn["name"] = tc.Function.Name
			}
			if tc.Function.Arguments != "" {
				fn["arguments"] = tc.Function.Arguments
			}
			call["function"] = fn
			calls = append(calls, call)
		}
		m["tool_calls"] = calls
	}

	return m
}

// handleNonStreaming processes a normal (non-streaming) completion.
func (m *Model) handleNonStreaming(
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

	if len(resp.Choices) == 0 {
		errCh <- fmt.Errorf("%w: no choices returned", core.ErrUnsupportedResponse)
		return
	}

	ch0 := resp.Choices[0]
	parts := make([]core.Part, 0, len(ch0.Message.ToolCalls)+1)

	if ch0.Message.Content != "" {
		parts = append(parts, core.TextPart{Text: ch0.Message.Content})
	}

	for _, tc := range ch0.Message.ToolCalls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		}})
	}

	out <- model.Response{
		ID:           resp.ID,
		Content:      core.Content{Role: core.RoleAssistant, Parts: parts},
		FinishReason: ch0.FinishReason,
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}
}

// Info returns metadata describing this OpenAI model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "openai",
		SupportsTools: true,
	}
}
