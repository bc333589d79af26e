package orchestration

import (
	"fmt"

	"github.com/hupe1980/actionweave/action"
	"github.com/hupe1980/actionweave/core"
	"github.com/hupe1980/actionweave/expr"
)

// OverrideScope is the synthetic scope-entry node of override graphs.
const OverrideScope = "__override__"

// First returns the first reachable action of e.
func First(e expr.Element) (string, error) {
	switch v := e.(type) {
	case expr.Name:
		return string(v), nil
	case expr.Expression:
		children := v.Children()
		if len(children) == 0 {
			return "", fmt.Errorf("%w: empty %s", core.ErrInvalidExpression, v.Kind())
		}
		return First(children[0])
	default:
		return "", fmt.Errorf("%w: unsupported element %T", core.ErrInvalidExpression, e)
	}
}

// Last returns the last reachable action of e. A SelectOne has no unique
// last action.
func Last(e expr.Element) (string, error) {
	switch v := e.(type) {
	case expr.Name:
		return string(v), nil
	case *expr.RequireNext:
		children := v.Children()
		if len(children) == 0 {
			return "", fmt.Errorf("%w: empty RequireNext", core.ErrInvalidExpression)
		}
		return Last(children[len(children)-1])
	case *expr.SelectOne:
		return "", fmt.Errorf("%w: cannot determine a unique last action of a SelectOne (%s)", core.ErrInvalidExpression, expr.String(v))
	default:
		return "", fmt.Errorf("%w: unsupported element %T", core.ErrInvalidExpression, e)
	}
}

// Compile builds the graph of a registry. All declarations are validated
// before any rule is assigned; actions are visited in registration order so
// equal registries compile to equal graphs.
func Compile(registry *action.Registry) (*Graph, error) {
	actions := registry.Actions()

	for _, a := range actions {
		if err := validateDeclaration(a, registry); err != nil {
			return nil, err
		}
	}

	g := newGraph()

	for _, a := range actions {
		if e := a.Orchestration(); e != nil {
			if err := compileElement(g, e); err != nil {
				return nil, fmt.Errorf("action %q: %w", a.Name(), err)
			}
		}
	}

	for _, a := range actions {
		if err := g.addSelectable(a.Scope(), a.Name()); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// MustCompile is Compile that panics on error.
func MustCompile(registry *action.Registry) *Graph {
	g, err := Compile(registry)
	if err != nil {
		panic(err)
	}

	return g
}

func validateDeclaration(a *action.Action, registry *action.Registry) error {
	e := a.Orchestration()
	if e == nil {
		return nil
	}

	if err := expr.Validate(e); err != nil {
		return fmt.Errorf("action %q: %w", a.Name(), err)
	}

	first, err := First(e)
	if err != nil {
		return fmt.Errorf("action %q: %w", a.Name(), err)
	}

	if first != a.Name() {
		return fmt.Errorf("%w: the expression of action %q must start with %q, got %q",
			core.ErrInvalidExpression, a.Name(), a.Name(), first)
	}

	return checkLeaves(e, registry)
}

func checkLeaves(e expr.Element, registry *action.Registry) error {
	for _, name := range expr.Leaves(e) {
		if !registry.Contains(name) {
			return fmt.Errorf("%w: %s referenced in %s", core.ErrUnknownAction, name, expr.String(e))
		}
	}

	return nil
}

func compileElement(g *Graph, e expr.Element) error {
	switch v := e.(type) {
	case expr.Name:
		return nil
	case *expr.SelectOne:
		children := v.Children()
		if err := compileElement(g, children[0]); err != nil {
			return err
		}

		anchor, err := Last(children[0])
		if err != nil {
			return err
		}

		next := make([]string, 0, len(children)-1)
		for _, c := range children[1:] {
			if err := compileElement(g, c); err != nil {
				return err
			}

			first, err := First(c)
			if err != nil {
				return err
			}

			next = append(next, first)
		}

		return g.assign(anchor, Selectable{Actions: next})
	case *expr.RequireNext:
		children := v.Children()
		if err := compileElement(g, children[0]); err != nil {
			return err
		}

		for i := 1; i < len(children); i++ {
			prev, err := Last(children[i-1])
			if err != nil {
				return err
			}

			next, err := First(children[i])
			if err != nil {
				return err
			}

			if err := g.assign(prev, Forced{Action: next}); err != nil {
				return err
			}

			if err := compileElement(g, children[i]); err != nil {
				return err
			}
		}

		return nil
	default:
		return fmt.Errorf("%w: unsupported element %T", core.ErrInvalidExpression, e)
	}
}

// CompileOverride compiles a caller-supplied expression into a one-off graph
// rooted at OverrideScope:
//
//	Name a            -> root Forced(a)
//	SelectOne(c...)   -> root Selectable(First(c)...) plus the children's rules
//	RequireNext(c...) -> root Forced(First(c0)) followed by the chain
func CompileOverride(e expr.Element, registry *action.Registry) (*Graph, error) {
	if err := expr.Validate(e); err != nil {
		return nil, err
	}

	if err := checkLeaves(e, registry); err != nil {
		return nil, err
	}

	g := newGraph()

	switch v := e.(type) {
	case expr.Name:
		if err := g.assign(OverrideScope, Forced{Action: string(v)}); err != nil {
			return nil, err
		}
	case *expr.SelectOne:
		var firsts []string
		for _, c := range v.Children() {
			first, err := First(c)
			if err != nil {
				return nil, err
			}

			firsts = append(firsts, first)

			if err := compileElement(g, c); err != nil {
				return nil, err
			}
		}

		if err := g.assign(OverrideScope, Selectable{Actions: firsts}); err != nil {
			return nil, err
		}
	case *expr.RequireNext:
		first, err := First(v)
		if err != nil {
			return nil, err
		}

		if err := g.assign(OverrideScope, Forced{Action: first}); err != nil {
			return nil, err
		}

		if err := compileElement(g, v); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// ForceOnce builds an override graph that forces one call of name and then
// offers nothing, so the model answers in plain text after the result.
func ForceOnce(name string, registry *action.Registry) (*Graph, error) {
	if !registry.Contains(name) {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownAction, name)
	}

	g := newGraph()
	if err := g.assign(OverrideScope, Forced{Action: name}); err != nil {
		return nil, err
	}

	if err := g.assign(name, Unconstrained{}); err != nil {
		return nil, err
	}

	return g, nil
}
