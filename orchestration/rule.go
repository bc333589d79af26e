package orchestration

import (
	"fmt"
	"strings"
)

// Rule is the next-step directive of a node. The set is closed:
// Unconstrained, Forced and Selectable.
type Rule interface {
	isRule()
	String() string
}

// Unconstrained offers no action; the model answers in plain text.
type Unconstrained struct{}

func (Unconstrained) isRule() {}

// String implements Rule.
func (Unconstrained) String() string { return "Unconstrained" }

// Forced offers exactly one action and compels the model to call it.
type Forced struct {
	Action string
}

func (Forced) isRule() {}

// String implements Rule.
func (f Forced) String() string { return fmt.Sprintf("Forced(%s)", f.Action) }

// Selectable offers a set of actions; the model may pick one or reply in
// plain text. Actions keeps insertion order for stable tool listings.
type Selectable struct {
	Actions []string
}

func (Selectable) isRule() {}

// String implements Rule.
func (s Selectable) String() string {
	return fmt.Sprintf("Selectable(%s)", strings.Join(s.Actions, ", "))
}

// Contains reports whether name is in the set.
func (s Selectable) Contains(name string) bool {
	for _, a := range s.Actions {
		if a == name {
			return true
		}
	}

	return false
}

// RuleEqual compares two rules. Selectable sets compare without regard to order.
func RuleEqual(a, b Rule) bool {
	switch x := a.(type) {
	case Unconstrained:
		_, ok := b.(Unconstrained)
		return ok
	case Forced:
		y, ok := b.(Forced)
		return ok && x.Action == y.Action
	case Selectable:
		y, ok := b.(Selectable)
		if !ok {
			return false
		}
		return sameSet(x.Actions, y.Actions)
	default:
		return a == nil && b == nil
	}
}

func sameSet(a, b []string) bool {
	as := make(map[string]bool, len(a))
	for _, n := range a {
		as[n] = true
	}

	bs := make(map[string]bool, len(b))
	for _, n := range b {
		if !as[n] {
			return false
		}
		bs[n] = true
	}

	return len(as) == len(bs)
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}

	return out
}
