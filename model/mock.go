package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/actionweave/core"
)

// MockModel is a scripted in-memory Model for tests and examples. Each
// Generate call consumes the next queued turn; with an empty queue it echoes
// the last user text as a final answer.
type MockModel struct {
	mu       sync.Mutex
	info     Info
	turns    []mockTurn
	requests []Request
}

type mockTurn struct {
	responses []Response
	err       error
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      provider,
			SupportsTools: true,
		},
	}
}

// Enqueue queues one turn made of the given responses.
func (m *MockModel) Enqueue(responses ...Response) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.turns = append(m.turns, mockTurn{responses: responses})

	return m
}

// EnqueueError queues a turn that fails with err after emitting responses.
func (m *MockModel) EnqueueError(err error, responses ...Response) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.turns = append(m.turns, mockTurn{responses: responses, err: err})

	return m
}

// Requests returns every request received so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Request(nil), m.requests...)
}

// Pending returns the number of queued turns not yet consumed.
func (m *MockModel) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.turns)
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	req.Contents = core.CloneTranscript(req.Contents)

	m.mu.Lock()
	m.requests = append(m.requests, req)

	var turn mockTurn
	if len(m.turns) > 0 {
		turn = m.turns[0]
		m.turns = m.turns[1:]
	} else {
		turn = mockTurn{responses: []Response{TextResponse(echo(req.Contents))}}
	}
	m.mu.Unlock()

	respCh := make(chan Response)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		for _, r := range turn.responses {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case respCh <- r:
			}
		}

		if turn.err != nil {
			errCh <- turn.err
		}
	}()

	return respCh, errCh
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }

func echo(contents []core.Content) string {
	for i := len(contents) - 1; i >= 0; i-- {
		if contents[i].Role == core.RoleUser {
			return fmt.Sprintf("Mock response to: %s", contents[i].Text())
		}
	}

	return "Mock response"
}

// TextResponse builds a final assistant text response with finish reason stop.
func TextResponse(text string) Response {
	return Response{
		Content:      core.NewTextContent(core.RoleAssistant, text),
		FinishReason: FinishReasonStop,
	}
}

// ToolCallResponse builds a final assistant response requesting calls.
func ToolCallResponse(calls ...core.FunctionCall) Response {
	parts := make([]core.Part, 0, len(calls))
	for _, c := range calls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: c})
	}

	return Response{
		Content:      core.Content{Role: core.RoleAssistant, Parts: parts},
		FinishReason: FinishReasonToolCalls,
	}
}

// TextDelta builds a partial response carrying a text fragment.
func TextDelta(text string) Response {
	return Response{
		Partial: true,
		Content: core.NewTextContent(core.RoleAssistant, text),
		Delta:   map[string]any{"role": core.RoleAssistant, "content": text},
	}
}

// ToolCallDelta builds a partial response carrying one tool call fragment.
// Empty id, name or arguments are sent as null, mirroring provider streams.
func ToolCallDelta(index int, id, name, arguments string) Response {
	fn := map[string]any{"name": nilIfEmpty(name), "arguments": nilIfEmpty(arguments)}

	return Response{
		Partial: true,
		Delta: map[string]any{
			"content": nil,
			"tool_calls": []any{map[string]any{
				"index":    index,
				"id":       nilIfEmpty(id),
				"type":     nilIfEmpty(typeIf(id)),
				"function": fn,
			}},
		},
	}
}

// FinishDelta builds the closing partial response of a stream.
func FinishDelta(reason string) Response {
	return Response{Partial: true, Delta: map[string]any{}, FinishReason: reason}
}

func typeIf(id string) string {
	if id == "" {
		return ""
	}

	return "function"
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}

	return s
}
