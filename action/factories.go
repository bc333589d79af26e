package action

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/actionweave/core"
)

// Reducer folds the results of the wrapped calls into a single value.
type Reducer func(results []any) (any, error)

// JoinLines is the default Reducer. It formats each result with fmt.Sprint
// and joins them with newlines.
func JoinLines(results []any) (any, error) {
	lines := make([]string, len(results))
	for i, r := range results {
		lines[i] = fmt.Sprint(r)
	}

	return strings.Join(lines, "\n"), nil
}

// FactoryOptions configures Repeat and Combine.
type FactoryOptions struct {
	// Name of the derived action.
	Name string
	// Description of the derived action.
	Description string
	// Reducer folds the per-call results. Defaults to JoinLines.
	Reducer Reducer
	// Scope of the derived action. Defaults to DefaultScope.
	Scope string
}

// Repeat derives an action that runs a once per element of a list. The
// derived action takes a single array parameter named after a whose items
// follow a's parameter schema. Name and description default to a's, and the
// derived action is terminal when a is.
func Repeat(a *Action, optFns ...func(o *FactoryOptions)) (*Action, error) {
	if a == nil {
		return nil, fmt.Errorf("repeat: nil action")
	}

	opts := FactoryOptions{
		Name:        a.name,
		Description: a.description,
		Reducer:     JoinLines,
		Scope:       a.scope,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Reducer == nil {
		opts.Reducer = JoinLines
	}

	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			a.name: map[string]any{
				"type":  "array",
				"items": a.parameters,
			},
		},
		"required": []string{a.name},
	}

	name := opts.Name
	reduce := opts.Reducer

	fn := func(cc *core.CallContext, args map[string]any) (any, error) {
		items, _ := args[a.name].([]any)

		results := make([]any, 0, len(items))

		for i, item := range items {
			if err := cc.Context().Err(); err != nil {
				return nil, err
			}

			itemArgs, ok := item.(map[string]any)
			if !ok {
				return nil, &Error{
					Action:  name,
					Message: fmt.Sprintf("item %d of %s must be an object, got %T", i, a.name, item),
					Code:    CodeMalformedArguments,
					Err:     core.ErrMalformedArguments,
				}
			}

			r, err := a.Call(cc, itemArgs)
			if err != nil {
				return nil, wrapFactoryError(name, fmt.Sprintf("invoke %s with item %d", a.name, i), err)
			}

			results = append(results, r)
		}

		return reduce(results)
	}

	return New(name, opts.Description, params, fn, func(o *Options) {
		o.Terminal = a.terminal
		o.Scope = opts.Scope
	})
}

// Combine derives an action that runs each of acts once, in order. The
// derived action takes one object parameter per wrapped action, named after
// it and following its parameter schema. The name defaults to "combine_"
// followed by the lowercased wrapped names joined by "_".
func Combine(acts []*Action, optFns ...func(o *FactoryOptions)) (*Action, error) {
	if len(acts) == 0 {
		return nil, fmt.Errorf("combine: no actions")
	}

	names := make([]string, 0, len(acts))
	seen := make(map[string]bool, len(acts))
	properties := make(map[string]any, len(acts))

	for _, a := range acts {
		if a == nil {
			return nil, fmt.Errorf("combine: nil action")
		}

		if seen[a.name] {
			return nil, fmt.Errorf("%w: combine: %s", core.ErrDuplicateAction, a.name)
		}

		seen[a.name] = true
		names = append(names, a.name)
		properties[a.name] = a.parameters
	}

	opts := FactoryOptions{
		Name:        "combine_" + strings.ToLower(strings.Join(names, "_")),
		Description: "Combination of " + strings.Join(names, ", "),
		Reducer:     JoinLines,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Reducer == nil {
		opts.Reducer = JoinLines
	}

	params := map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   names,
	}

	name := opts.Name
	reduce := opts.Reducer

	fn := func(cc *core.CallContext, args map[string]any) (any, error) {
		results := make([]any, 0, len(acts))

		for _, a := range acts {
			if err := cc.Context().Err(); err != nil {
				return nil, err
			}

			sub, _ := args[a.name].(map[string]any)

			r, err := a.Call(cc, sub)
			if err != nil {
				return nil, wrapFactoryError(name, "invoke "+a.name, err)
			}

			results = append(results, r)
		}

		return reduce(results)
	}

	return New(name, opts.Description, params, fn, func(o *Options) { o.Scope = opts.Scope })
}

// wrapFactoryError reports a failed wrapped call under the derived action
// while keeping the inner code and sentinel reachable.
func wrapFactoryError(name, msg string, err error) *Error {
	code := CodeExecution

	var inner *Error
	if errors.As(err, &inner) {
		code = inner.Code
	}

	return &Error{
		Action:  name,
		Message: fmt.Sprintf("%s: %v", msg, err),
		Code:    code,
		Err:     err,
	}
}
