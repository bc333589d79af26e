package orchestration

import (
	"testing"

	"github.com/hupe1980/actionweave/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleEqual(t *testing.T) {
	assert.True(t, RuleEqual(Unconstrained{}, Unconstrained{}))
	assert.True(t, RuleEqual(Forced{Action: "a"}, Forced{Action: "a"}))
	assert.False(t, RuleEqual(Forced{Action: "a"}, Forced{Action: "b"}))
	assert.True(t, RuleEqual(Selectable{Actions: []string{"a", "b"}}, Selectable{Actions: []string{"b", "a"}}))
	assert.False(t, RuleEqual(Selectable{Actions: []string{"a"}}, Selectable{Actions: []string{"a", "b"}}))
	assert.False(t, RuleEqual(Selectable{Actions: []string{"a"}}, Forced{Action: "a"}))
}

func TestGraph_Assign(t *testing.T) {
	g := newGraph()

	require.NoError(t, g.assign("a", Forced{Action: "b"}))
	require.NoError(t, g.assign("a", Forced{Action: "b"}))
	assert.ErrorIs(t, g.assign("a", Forced{Action: "c"}), core.ErrInconsistentGraph)

	require.NoError(t, g.assign("s", Selectable{Actions: []string{"x", "x", "y"}}))
	r, _ := g.Rule("s")
	assert.Equal(t, Selectable{Actions: []string{"x", "y"}}, r)

	require.NoError(t, g.addSelectable("s", "z"))
	require.NoError(t, g.addSelectable("s", "x"))
	r, _ = g.Rule("s")
	assert.Equal(t, Selectable{Actions: []string{"x", "y", "z"}}, r)

	assert.ErrorIs(t, g.addSelectable("a", "z"), core.ErrInconsistentGraph)
	assert.Equal(t, []string{"a", "s"}, g.Nodes())
}

func TestGraph_NilSafe(t *testing.T) {
	var g *Graph

	_, ok := g.Rule("a")
	assert.False(t, ok)
	assert.Zero(t, g.Len())
	assert.True(t, g.Equal(newGraph()))
}

func TestGraph_Mermaid(t *testing.T) {
	g := newGraph()
	require.NoError(t, g.assign("global", Selectable{Actions: []string{"fetch-page", "b"}}))
	require.NoError(t, g.assign("fetch-page", Forced{Action: "b"}))
	require.NoError(t, g.assign("b", Unconstrained{}))

	out := g.Mermaid()

	assert.Contains(t, out, "graph TD\n")
	assert.Contains(t, out, "    global -.-> fetch_page\n")
	assert.Contains(t, out, "    fetch_page -- forced --> b\n")
	assert.Contains(t, out, "    b --> b_stop((stop))\n")
	assert.Contains(t, out, "    fetch_page[\"fetch-page\"]\n")
}
