package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContent_Accessors(t *testing.T) {
	c := Content{
		Role: RoleAssistant,
		Parts: []Part{
			TextPart{Text: "Looking "},
			FunctionCallPart{FunctionCall: FunctionCall{ID: "1", Name: "a", Arguments: "{}"}},
			TextPart{Text: "it up"},
			FunctionCallPart{FunctionCall: FunctionCall{ID: "2", Name: "b"}},
		},
	}

	assert.True(t, c.HasText())
	assert.Equal(t, "Looking it up", c.Text())

	calls := c.FunctionCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "a", calls[0].Name)
	assert.Equal(t, "2", calls[1].ID)
	assert.Empty(t, c.FunctionResponses())

	empty := Content{Role: RoleAssistant}
	assert.False(t, empty.HasText())
	assert.Nil(t, empty.FunctionCalls())
}

func TestNewFunctionResponseContent(t *testing.T) {
	ok := NewFunctionResponseContent("c1", "lookup", map[string]any{"n": 1}, nil)
	assert.Equal(t, RoleTool, ok.Role)

	fr := ok.FunctionResponses()
	require.Len(t, fr, 1)
	assert.Equal(t, FunctionResponse{ID: "c1", Name: "lookup", Response: map[string]any{"n": 1}}, fr[0])

	failed := NewFunctionResponseContent("c2", "lookup", nil, errors.New("not found"))
	assert.Equal(t, "not found", failed.FunctionResponses()[0].Error)
}

func TestCloneTranscript(t *testing.T) {
	orig := make([]Content, 1, 4)
	orig[0] = NewTextContent(RoleUser, "hi")

	clone := CloneTranscript(orig)
	clone = append(clone, NewTextContent(RoleAssistant, "hello"))
	clone[0] = NewTextContent(RoleUser, "changed")

	assert.Len(t, orig, 1)
	assert.Equal(t, "hi", orig[0].Text())
	assert.Len(t, clone, 2)

	assert.Empty(t, CloneTranscript(nil))
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
