package model

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/actionweave/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponse_DeltaText(t *testing.T) {
	text, ok := TextDelta("hi").DeltaText()
	assert.True(t, ok)
	assert.Equal(t, "hi", text)

	_, ok = ToolCallDelta(0, "id", "a", "").DeltaText()
	assert.False(t, ok)

	_, ok = TextResponse("final").DeltaText()
	assert.False(t, ok)
}

func TestToolCallDelta(t *testing.T) {
	first := ToolCallDelta(1, "call_1", "lookup", "")
	frag := first.Delta["tool_calls"].([]any)[0].(map[string]any)

	assert.Equal(t, 1, frag["index"])
	assert.Equal(t, "function", frag["type"])
	assert.Nil(t, frag["function"].(map[string]any)["arguments"])

	next := ToolCallDelta(1, "", "", `{"q":1}`)
	frag = next.Delta["tool_calls"].([]any)[0].(map[string]any)

	assert.Nil(t, frag["id"])
	assert.Nil(t, frag["type"])
	assert.Equal(t, `{"q":1}`, frag["function"].(map[string]any)["arguments"])
}

func drain(t *testing.T, respCh <-chan Response, errCh <-chan error) ([]Response, error) {
	t.Helper()

	var out []Response
	for r := range respCh {
		out = append(out, r)
	}

	return out, <-errCh
}

func TestMockModel_Script(t *testing.T) {
	boom := errors.New("boom")

	m := NewMockModel("scripted", "test").
		Enqueue(TextResponse("one")).
		EnqueueError(boom, TextDelta("par"))

	assert.Equal(t, 2, m.Pending())
	assert.True(t, m.Info().SupportsTools)

	respCh, errCh := m.Generate(context.Background(), Request{Instructions: "sys"})
	out, err := drain(t, respCh, errCh)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "one", out[0].Content.Text())

	respCh, errCh = m.Generate(context.Background(), Request{})
	out, err = drain(t, respCh, errCh)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, out, 1)

	respCh, errCh = m.Generate(context.Background(), Request{
		Contents: []core.Content{core.NewTextContent(core.RoleUser, "ping")},
	})
	out, err = drain(t, respCh, errCh)
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: ping", out[0].Content.Text())

	reqs := m.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, "sys", reqs[0].Instructions)
	assert.Equal(t, 0, m.Pending())
}
