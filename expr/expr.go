// Package expr defines sequencing expressions: declarative constraints over
// action names that the orchestration compiler turns into a transition graph.
//
// An expression is a tree whose inner nodes are SelectOne or RequireNext and
// whose leaves are action Names:
//
//	// after "search", the model may pick "summarize" or "translate" (or neither)
//	expr.MustSelectOne(expr.Name("search"), expr.Name("summarize"), expr.Name("translate"))
//
//	// "fetch" must be followed by "parse", which must be followed by "store"
//	expr.MustRequireNext(expr.Names("fetch", "parse", "store")...)
//
// Both constructors enforce at least two children.
package expr

import (
	"fmt"
	"strings"

	"github.com/hupe1980/actionweave/core"
)

// Element is either a Name or an Expression. The set is closed.
type Element interface{ isElement() }

// Name is a leaf referencing an action by name.
type Name string

func (Name) isElement() {}

// Names converts plain strings into leaf elements.
func Names(names ...string) []Element {
	out := make([]Element, len(names))
	for i, n := range names {
		out[i] = Name(n)
	}

	return out
}

// Kind discriminates the two expression variants.
type Kind int

const (
	// KindSelectOne offers a free choice after the first element.
	KindSelectOne Kind = iota + 1
	// KindRequireNext forces each element to be followed by the next.
	KindRequireNext
)

// String returns the constructor name of the kind.
func (k Kind) String() string {
	switch k {
	case KindSelectOne:
		return "SelectOne"
	case KindRequireNext:
		return "RequireNext"
	default:
		return "Unknown"
	}
}

// Expression is an inner node of a sequencing tree.
type Expression interface {
	Element
	Kind() Kind
	Children() []Element
}

// SelectOne: invoking (the last action of) the first child offers the model a
// free choice among the first action of each remaining child, or no action.
type SelectOne struct{ children []Element }

func (*SelectOne) isElement() {}

// Kind implements Expression.
func (*SelectOne) Kind() Kind { return KindSelectOne }

// Children returns a copy of the ordered children.
func (s *SelectOne) Children() []Element { return append([]Element(nil), s.children...) }

// String renders the expression.
func (s *SelectOne) String() string { return String(s) }

// RequireNext: invoking the last action of each child forces the model's next
// call to be the first action of the following child.
type RequireNext struct{ children []Element }

func (*RequireNext) isElement() {}

// Kind implements Expression.
func (*RequireNext) Kind() Kind { return KindRequireNext }

// Children returns a copy of the ordered children.
func (r *RequireNext) Children() []Element { return append([]Element(nil), r.children...) }

// String renders the expression.
func (r *RequireNext) String() string { return String(r) }

// NewSelectOne builds a SelectOne node.
func NewSelectOne(children ...Element) (*SelectOne, error) {
	if err := checkChildren(KindSelectOne, children); err != nil {
		return nil, err
	}

	return &SelectOne{children: append([]Element(nil), children...)}, nil
}

// NewRequireNext builds a RequireNext node.
func NewRequireNext(children ...Element) (*RequireNext, error) {
	if err := checkChildren(KindRequireNext, children); err != nil {
		return nil, err
	}

	return &RequireNext{children: append([]Element(nil), children...)}, nil
}

// MustSelectOne is NewSelectOne that panics on error. Intended for static declarations.
func MustSelectOne(children ...Element) *SelectOne {
	s, err := NewSelectOne(children...)
	if err != nil {
		panic(err)
	}

	return s
}

// MustRequireNext is NewRequireNext that panics on error. Intended for static declarations.
func MustRequireNext(children ...Element) *RequireNext {
	r, err := NewRequireNext(children...)
	if err != nil {
		panic(err)
	}

	return r
}

// New builds an expression of the given kind.
func New(kind Kind, children ...Element) (Expression, error) {
	switch kind {
	case KindSelectOne:
		return NewSelectOne(children...)
	case KindRequireNext:
		return NewRequireNext(children...)
	default:
		return nil, fmt.Errorf("%w: unknown expression kind %d", core.ErrInvalidExpression, kind)
	}
}

func checkChildren(kind Kind, children []Element) error {
	if len(children) < 2 {
		return fmt.Errorf("%w: %s requires at least 2 elements, got %d", core.ErrInvalidExpression, kind, len(children))
	}

	for i, c := range children {
		if c == nil {
			return fmt.Errorf("%w: %s element %d is nil", core.ErrInvalidExpression, kind, i)
		}
		if n, ok := c.(Name); ok && n == "" {
			return fmt.Errorf("%w: %s element %d is an empty name", core.ErrInvalidExpression, kind, i)
		}
	}

	return nil
}

// Validate re-checks arity and leaf shape over a whole tree. Constructors
// already guarantee this; Validate guards zero-value nodes.
func Validate(e Element) error {
	switch v := e.(type) {
	case nil:
		return fmt.Errorf("%w: nil element", core.ErrInvalidExpression)
	case Name:
		if v == "" {
			return fmt.Errorf("%w: empty name", core.ErrInvalidExpression)
		}
		return nil
	case Expression:
		children := v.Children()
		if err := checkChildren(v.Kind(), children); err != nil {
			return err
		}
		for _, c := range children {
			if err := Validate(c); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported element %T", core.ErrInvalidExpression, e)
	}
}

// Leaves returns every action name referenced in the tree, in walk order
// (duplicates preserved).
func Leaves(e Element) []string {
	var out []string
	walk(e, func(n Name) { out = append(out, string(n)) })

	return out
}

func walk(e Element, fn func(Name)) {
	switch v := e.(type) {
	case Name:
		fn(v)
	case Expression:
		for _, c := range v.Children() {
			walk(c, fn)
		}
	}
}

// String renders an element in constructor notation, e.g. SelectOne(a, RequireNext(b, c)).
func String(e Element) string {
	switch v := e.(type) {
	case nil:
		return "<nil>"
	case Name:
		return string(v)
	case Expression:
		children := v.Children()
		parts := make([]string, len(children))
		for i, c := range children {
			parts[i] = String(c)
		}
		return fmt.Sprintf("%s(%s)", v.Kind(), strings.Join(parts, ", "))
	default:
		return fmt.Sprintf("%v", v)
	}
}
