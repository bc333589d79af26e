package stream

import (
	"fmt"
	"sort"

	"github.com/hupe1980/actionweave/core"
)

// ToolCalls regroups merged tool call fragments by their "index" key,
// merging fragments of one index into a single call, ordered by index.
func ToolCalls(fragments []any) ([]core.FunctionCall, error) {
	groups := map[int]map[string]any{}

	for i, f := range fragments {
		frag, ok := f.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: tool call fragment %d is %T", core.ErrUnsupportedDelta, i, f)
		}

		idx, ok := toIndex(frag["index"])
		if !ok {
			return nil, fmt.Errorf("%w: tool call fragment %d has no valid index", core.ErrUnsupportedDelta, i)
		}

		body := make(map[string]any, len(frag))
		for k, v := range frag {
			if k != "index" {
				body[k] = v
			}
		}

		g, exists := groups[idx]
		if !exists {
			g = map[string]any{}
			groups[idx] = g
		}

		if err := MergeDelta(g, body); err != nil {
			return nil, fmt.Errorf("tool call %d: %w", idx, err)
		}
	}

	indices := make([]int, 0, len(groups))
	for idx := range groups {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	calls := make([]core.FunctionCall, 0, len(indices))
	for _, idx := range indices {
		g := groups[idx]
		fn, _ := g["function"].(map[string]any)

		calls = append(calls, core.FunctionCall{
			ID:        stringOf(g["id"]),
			Name:      stringOf(fn["name"]),
			Arguments: stringOf(fn["arguments"]),
		})
	}

	return calls, nil
}

// Content converts a fully merged delta into assistant content.
func Content(merged map[string]any) (core.Content, error) {
	content := core.Content{Role: core.RoleAssistant}

	if role, ok := merged["role"].(string); ok && role != "" {
		content.Role = role
	}

	if text, ok := merged["content"].(string); ok && text != "" {
		content.Parts = append(content.Parts, core.TextPart{Text: text})
	}

	if raw, ok := merged["tool_calls"]; ok && raw != nil {
		fragments, ok := asList(raw)
		if !ok {
			return core.Content{}, fmt.Errorf("%w: tool_calls is %T", core.ErrUnsupportedDelta, raw)
		}

		calls, err := ToolCalls(fragments)
		if err != nil {
			return core.Content{}, err
		}

		for _, c := range calls {
			content.Parts = append(content.Parts, core.FunctionCallPart{FunctionCall: c})
		}
	}

	return content, nil
}

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}
