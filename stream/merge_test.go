package stream

import (
	"testing"

	"github.com/hupe1980/actionweave/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeDelta(t *testing.T) {
	dst := map[string]any{}

	require.NoError(t, MergeDelta(dst, map[string]any{
		"content":    nil,
		"role":       "assistant",
		"tool_calls": []any{map[string]any{"index": 0, "function": map[string]any{"name": "get_", "arguments": "{\"ci"}}},
		"count":      1,
	}))
	require.NoError(t, MergeDelta(dst, map[string]any{
		"role":       nil,
		"tool_calls": []any{map[string]any{"index": 0, "function": map[string]any{"arguments": "ty\":1}"}}},
		"count":      2,
		"meta":       map[string]any{"a": "x"},
	}))
	require.NoError(t, MergeDelta(dst, map[string]any{"meta": map[string]any{"a": "y", "b": 1.5}}))

	assert.Equal(t, "assistant", dst["role"])
	assert.Equal(t, 3, dst["count"])
	assert.Equal(t, map[string]any{"a": "xy", "b": 1.5}, dst["meta"])
	assert.Len(t, dst["tool_calls"], 2)
	assert.NotContains(t, dst, "content")
}

func TestMergeDelta_DoesNotAliasSource(t *testing.T) {
	src := map[string]any{"meta": map[string]any{"a": "x"}}
	dst := map[string]any{}

	require.NoError(t, MergeDelta(dst, src))
	require.NoError(t, MergeDelta(dst, map[string]any{"meta": map[string]any{"a": "y"}}))

	assert.Equal(t, "x", src["meta"].(map[string]any)["a"])
}

func TestMergeDelta_Unsupported(t *testing.T) {
	cases := []struct {
		name string
		dst  map[string]any
		src  map[string]any
	}{
		{"bool", map[string]any{}, map[string]any{"flag": true}},
		{"string into map", map[string]any{"a": map[string]any{}}, map[string]any{"a": "x"}},
		{"number into string", map[string]any{"a": "x"}, map[string]any{"a": 1}},
		{"nested", map[string]any{"a": map[string]any{"b": "x"}}, map[string]any{"a": map[string]any{"b": false}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, MergeDelta(tc.dst, tc.src), core.ErrUnsupportedDelta)
		})
	}
}

func TestToolCalls_RegroupByIndex(t *testing.T) {
	fragments := []any{
		map[string]any{"index": 1, "id": "call_b", "type": "function", "function": map[string]any{"name": "second", "arguments": ""}},
		map[string]any{"index": 0.0, "id": "call_a", "type": "function", "function": map[string]any{"name": "first", "arguments": "{\"x\""}},
		map[string]any{"index": 1, "function": map[string]any{"arguments": "{}"}},
		map[string]any{"index": 0, "function": map[string]any{"arguments": ":1}"}},
	}

	calls, err := ToolCalls(fragments)
	require.NoError(t, err)

	assert.Equal(t, []core.FunctionCall{
		{ID: "call_a", Name: "first", Arguments: "{\"x\":1}"},
		{ID: "call_b", Name: "second", Arguments: "{}"},
	}, calls)
}

func TestToolCalls_MissingIndex(t *testing.T) {
	_, err := ToolCalls([]any{map[string]any{"id": "x"}})
	assert.ErrorIs(t, err, core.ErrUnsupportedDelta)

	_, err = ToolCalls([]any{"nope"})
	assert.ErrorIs(t, err, core.ErrUnsupportedDelta)
}

func TestContent(t *testing.T) {
	c, err := Content(map[string]any{
		"role":    "assistant",
		"content": "thinking",
		"tool_calls": []any{
			map[string]any{"index": 0, "id": "c1", "function": map[string]any{"name": "a", "arguments": "{}"}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, core.RoleAssistant, c.Role)
	assert.Equal(t, "thinking", c.Text())
	assert.Equal(t, []core.FunctionCall{{ID: "c1", Name: "a", Arguments: "{}"}}, c.FunctionCalls())
}
