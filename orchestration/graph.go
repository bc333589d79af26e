package orchestration

import (
	"fmt"
	"strings"

	"github.com/hupe1980/actionweave/core"
)

// Graph maps nodes to rules. A compiled Graph is never mutated and may be
// shared by concurrent runs.
type Graph struct {
	rules map[string]Rule
	order []string
}

func newGraph() *Graph {
	return &Graph{rules: map[string]Rule{}}
}

// Rule returns the rule of node and whether the node exists.
func (g *Graph) Rule(node string) (Rule, bool) {
	if g == nil {
		return nil, false
	}

	r, ok := g.rules[node]

	return r, ok
}

// Nodes returns all nodes in the order their first rule was assigned.
func (g *Graph) Nodes() []string {
	if g == nil {
		return nil
	}

	return append([]string(nil), g.order...)
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}

	return len(g.order)
}

// Equal reports structural equality: same node set with equal rules.
func (g *Graph) Equal(o *Graph) bool {
	if g.Len() != o.Len() {
		return false
	}

	for _, n := range g.Nodes() {
		a, _ := g.Rule(n)

		b, ok := o.Rule(n)
		if !ok || !RuleEqual(a, b) {
			return false
		}
	}

	return true
}

// String renders one "node -> rule" line per node.
func (g *Graph) String() string {
	var sb strings.Builder
	for _, n := range g.Nodes() {
		r, _ := g.Rule(n)
		fmt.Fprintf(&sb, "%s -> %s\n", n, r)
	}

	return sb.String()
}

// assign sets rule on node. An equal rule is a no-op; a different one fails
// with core.ErrInconsistentGraph.
func (g *Graph) assign(node string, rule Rule) error {
	if s, ok := rule.(Selectable); ok {
		rule = Selectable{Actions: dedupe(s.Actions)}
	}

	existing, ok := g.rules[node]
	if ok {
		if RuleEqual(existing, rule) {
			return nil
		}

		return fmt.Errorf("%w: node %q already has %s, cannot assign %s", core.ErrInconsistentGraph, node, existing, rule)
	}

	g.rules[node] = rule
	g.order = append(g.order, node)

	return nil
}

// addSelectable appends action to the Selectable rule of node, creating it
// when absent.
func (g *Graph) addSelectable(node, action string) error {
	existing, ok := g.rules[node]
	if !ok {
		return g.assign(node, Selectable{Actions: []string{action}})
	}

	s, isSel := existing.(Selectable)
	if !isSel {
		return fmt.Errorf("%w: scope entry %q already has %s", core.ErrInconsistentGraph, node, existing)
	}

	if !s.Contains(action) {
		g.rules[node] = Selectable{Actions: append(append([]string(nil), s.Actions...), action)}
	}

	return nil
}
