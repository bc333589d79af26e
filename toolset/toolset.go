// Package toolset turns the orchestration rule of a graph node into the
// concrete tool offer of one model call.
package toolset

import (
	"fmt"

	"github.com/hupe1980/actionweave/action"
	"github.com/hupe1980/actionweave/model"
	"github.com/hupe1980/actionweave/orchestration"
)

// Mode is the kind of offer.
type Mode int

const (
	// ModeNone offers no tools.
	ModeNone Mode = iota
	// ModeForced offers one tool and compels the model to call it.
	ModeForced
	// ModeAuto offers a set of tools; the model may call one or reply in text.
	ModeAuto
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeForced:
		return "forced"
	case ModeAuto:
		return "auto"
	default:
		return "none"
	}
}

// Directive is the resolved tool offer of one model call.
type Directive struct {
	Mode   Mode
	Tools  []model.ToolDefinition
	Forced string // action name when Mode is ModeForced
}

// Names returns the offered tool names in order.
func (d Directive) Names() []string {
	names := make([]string, len(d.Tools))
	for i, t := range d.Tools {
		names[i] = t.Function.Name
	}

	return names
}

// Apply writes the directive into req. ModeNone clears any tools.
func (d Directive) Apply(req *model.Request) {
	switch d.Mode {
	case ModeForced:
		req.Tools = d.Tools
		req.ToolChoice = &model.ToolChoice{Type: model.ToolChoiceFunction, Name: d.Forced}
	case ModeAuto:
		req.Tools = d.Tools
		req.ToolChoice = &model.ToolChoice{Type: model.ToolChoiceAuto}
	default:
		req.Tools = nil
		req.ToolChoice = nil
	}
}

// Definition materializes the tool definition of an action.
func Definition(a *action.Action) model.ToolDefinition {
	return model.ToolDefinition{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        a.Name(),
			Description: a.Description(),
			Parameters:  a.Parameters(),
		},
	}
}

// Resolve maps the rule of node to a Directive. An absent node offers nothing.
func Resolve(node string, graph *orchestration.Graph, registry *action.Registry) (Directive, error) {
	rule, ok := graph.Rule(node)
	if !ok {
		return Directive{Mode: ModeNone}, nil
	}

	return FromRule(rule, registry)
}

// FromRule maps a rule to a Directive, looking actions up in registry.
func FromRule(rule orchestration.Rule, registry *action.Registry) (Directive, error) {
	switch r := rule.(type) {
	case orchestration.Forced:
		a, err := registry.Get(r.Action)
		if err != nil {
			return Directive{}, err
		}

		return Directive{Mode: ModeForced, Tools: []model.ToolDefinition{Definition(a)}, Forced: a.Name()}, nil
	case orchestration.Selectable:
		if len(r.Actions) == 0 {
			return Directive{Mode: ModeNone}, nil
		}

		tools := make([]model.ToolDefinition, 0, len(r.Actions))
		for _, name := range r.Actions {
			a, err := registry.Get(name)
			if err != nil {
				return Directive{}, err
			}

			tools = append(tools, Definition(a))
		}

		return Directive{Mode: ModeAuto, Tools: tools}, nil
	case orchestration.Unconstrained, nil:
		return Directive{Mode: ModeNone}, nil
	default:
		return Directive{}, fmt.Errorf("unsupported rule %T", rule)
	}
}

// Options configures a Resolver.
type Options struct {
	// Override is consulted before the base graph, and its OverrideScope root
	// replaces the scope-entry rule.
	Override *orchestration.Graph
	// FallbackToScope resolves nodes absent from both graphs to the scope
	// entry instead of offering nothing.
	FallbackToScope bool
}

// Resolver resolves nodes of one run against a base graph, an optional
// override graph and the run's scope.
type Resolver struct {
	graph    *orchestration.Graph
	registry *action.Registry
	scope    string
	opts     Options
}

// NewResolver creates a Resolver for a run starting at scope.
func NewResolver(graph *orchestration.Graph, registry *action.Registry, scope string, optFns ...func(o *Options)) *Resolver {
	opts := Options{}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Resolver{
		graph:    graph,
		registry: registry,
		scope:    scope,
		opts:     opts,
	}
}

// Entry returns the node a run starts at.
func (r *Resolver) Entry() string {
	if r.opts.Override != nil {
		return orchestration.OverrideScope
	}

	return r.scope
}

// Resolve returns the directive of node.
func (r *Resolver) Resolve(node string) (Directive, error) {
	if node == r.scope && r.opts.Override != nil {
		node = orchestration.OverrideScope
	}

	if r.opts.Override != nil {
		if rule, ok := r.opts.Override.Rule(node); ok {
			return FromRule(rule, r.registry)
		}
	}

	if rule, ok := r.graph.Rule(node); ok {
		return FromRule(rule, r.registry)
	}

	if r.opts.FallbackToScope && node != r.Entry() {
		return r.Resolve(r.Entry())
	}

	return Directive{Mode: ModeNone}, nil
}
