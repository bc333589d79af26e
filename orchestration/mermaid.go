package orchestration

import (
	"fmt"
	"strings"
)

// Mermaid renders the graph as a Mermaid flowchart:
// Forced edges are solid, Selectable edges dotted, Unconstrained nodes end in
// a stop marker.
func (g *Graph) Mermaid() string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	declared := map[string]bool{}
	declare := func(id string) string {
		safe := sanitizeMermaidID(id)
		if !declared[safe] {
			declared[safe] = true
			fmt.Fprintf(&sb, "    %s[\"%s\"]\n", safe, id)
		}

		return safe
	}

	for _, n := range g.Nodes() {
		from := declare(n)
		r, _ := g.Rule(n)

		switch rule := r.(type) {
		case Forced:
			to := declare(rule.Action)
			fmt.Fprintf(&sb, "    %s -- forced --> %s\n", from, to)
		case Selectable:
			for _, a := range rule.Actions {
				to := declare(a)
				fmt.Fprintf(&sb, "    %s -.-> %s\n", from, to)
			}
		case Unconstrained:
			fmt.Fprintf(&sb, "    %s --> %s_stop((stop))\n", from, from)
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")
	return r.Replace(id)
}
