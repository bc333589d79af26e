package action

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/hupe1980/actionweave/core"
	"github.com/hupe1980/actionweave/expr"
	"github.com/hupe1980/actionweave/internal/util"
)

// DefaultScope is the scope of actions that do not declare one.
const DefaultScope = "global"

// Error codes carried by *Error.
const (
	CodeMalformedArguments = "MALFORMED_ARGUMENTS"
	CodeExecution          = "EXECUTION_ERROR"
	CodePanic              = "PANIC"
)

// Func is the handler signature of an action. Arguments are already decoded
// and validated against the action's parameter schema.
type Func func(cc *core.CallContext, args map[string]any) (any, error)

// Method adapts a receiver-style handler into a Func. The action must be
// bound (Action.Bind) to a value of type T before it is called.
//
//	type Shop struct{ stock map[string]int }
//
//	stock := action.MustNew("check_stock", "Report stock for an item", schema,
//	  action.Method(func(s *Shop, _ *core.CallContext, args map[string]any) (any, error) {
//	    return s.stock[args["item"].(string)], nil
//	  }),
//	).Bind(shop)
func Method[T any](fn func(recv T, cc *core.CallContext, args map[string]any) (any, error)) Func {
	return func(cc *core.CallContext, args map[string]any) (any, error) {
		recv, ok := cc.Receiver().(T)
		if !ok {
			return nil, fmt.Errorf("action %q is not bound to a %T receiver (got %T)", cc.Action(), *new(T), cc.Receiver())
		}

		return fn(recv, cc, args)
	}
}

// Options configures an Action at construction time.
type Options struct {
	// Terminal ends the dispatch turn once the action has run successfully.
	Terminal bool
	// Scope groups actions under a shared entry node. Defaults to DefaultScope.
	Scope string
	// Orchestration declares sequencing constraints anchored at this action.
	// Its first reachable action must be this action.
	Orchestration expr.Element
}

// Action is a named capability exposed to the model.
type Action struct {
	name          string
	description   string
	parameters    map[string]any
	terminal      bool
	scope         string
	orchestration expr.Element
	fn            Func
	receiver      any
}

// New constructs an Action. Name and description must be non-empty.
//
// Example:
//
//	sum, err := action.New(
//	  "calculate_sum",
//	  "Calculate the sum of two numbers",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "a": map[string]any{"type": "number"},
//	      "b": map[string]any{"type": "number"},
//	    },
//	    "required": []string{"a", "b"},
//	  },
//	  func(_ *core.CallContext, args map[string]any) (any, error) {
//	    return args["a"].(float64) + args["b"].(float64), nil
//	  },
//	  func(o *action.Options) { o.Terminal = true },
//	)
func New(name, description string, parameters map[string]any, fn Func, optFns ...func(o *Options)) (*Action, error) {
	opts := Options{
		Scope: DefaultScope,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if name == "" {
		return nil, errors.New("action name must not be empty")
	}

	if description == "" {
		return nil, fmt.Errorf("action %q: description must not be empty", name)
	}

	if opts.Scope == "" {
		opts.Scope = DefaultScope
	}

	if parameters == nil {
		parameters = map[string]any{"type": "object", "properties": map[string]any{}}
	}

	return &Action{
		name:          name,
		description:   description,
		parameters:    parameters,
		terminal:      opts.Terminal,
		scope:         opts.Scope,
		orchestration: opts.Orchestration,
		fn:            fn,
	}, nil
}

// MustNew is New that panics on error. Intended for static declarations.
func MustNew(name, description string, parameters map[string]any, fn Func, optFns ...func(o *Options)) *Action {
	a, err := New(name, description, parameters, fn, optFns...)
	if err != nil {
		panic(err)
	}

	return a
}

// NewFromStruct derives the parameter schema from a struct via reflection
// (json, description and enum tags).
//
//	type WeatherArgs struct {
//	  City string `json:"city" description:"City name"`
//	  Unit string `json:"unit,omitempty" enum:"celsius,fahrenheit"`
//	}
func NewFromStruct(name, description string, structType any, fn Func, optFns ...func(o *Options)) (*Action, error) {
	return New(name, description, util.CreateSchema(structType), fn, optFns...)
}

// Name returns the unique action name.
func (a *Action) Name() string { return a.name }

// Description returns the natural language description exposed to models.
func (a *Action) Description() string { return a.description }

// Parameters returns the JSON schema describing accepted arguments.
func (a *Action) Parameters() map[string]any { return a.parameters }

// Terminal reports whether a successful invocation ends the turn.
func (a *Action) Terminal() bool { return a.terminal }

// Scope returns the scope the action belongs to.
func (a *Action) Scope() string { return a.scope }

// Orchestration returns the declared sequencing expression, or nil.
func (a *Action) Orchestration() expr.Element { return a.orchestration }

// Receiver returns the bound receiver, or nil.
func (a *Action) Receiver() any { return a.receiver }

// Bind returns a copy of the action bound to receiver; a itself is not modified.
func (a *Action) Bind(receiver any) *Action {
	c := *a
	c.receiver = receiver

	return &c
}

// WithName returns a copy registered under a different name. Any declared
// orchestration expression is dropped since it was anchored at the old name.
func (a *Action) WithName(name string) *Action {
	if name == a.name {
		return a
	}

	c := *a
	c.name = name
	c.orchestration = nil

	return &c
}

// WithoutOrchestration returns a copy with no orchestration expression. The
// copy is always distinct from a, even when a declares no expression.
func (a *Action) WithoutOrchestration() *Action {
	c := *a
	c.orchestration = nil

	return &c
}

// Call validates args against the parameter schema and runs the handler.
//
// Error semantics:
//
//	*Error returned by the handler  -> forwarded (Err defaults to core.ErrActionExecution)
//	validation failure              -> *Error{Code: MALFORMED_ARGUMENTS}
//	other handler error or panic    -> *Error{Code: EXECUTION_ERROR | PANIC}
func (a *Action) Call(cc *core.CallContext, args map[string]any) (result any, err error) {
	if cc == nil {
		cc = core.NewCallContext(context.Background(), "", "", nil, nil)
	}

	cc = cc.ForAction(a.name, a.receiver)
	logger := cc.Logger()
	start := time.Now()

	logger.Debug("action.call.start", "action", a.name, "function_call_id", cc.FunctionCallID())

	if args == nil {
		args = map[string]any{}
	}

	if verr := util.ValidateParameters(args, a.parameters); verr != nil {
		logger.Warn("action.call.validation_failed", "action", a.name, "error", verr.Error())

		return nil, &Error{
			Action:  a.name,
			Message: fmt.Sprintf("parameter validation failed: %v", verr),
			Code:    CodeMalformedArguments,
			Details: verr,
			Err:     core.ErrMalformedArguments,
		}
	}

	if a.fn == nil {
		return nil, &Error{Action: a.name, Message: "no handler", Code: CodeExecution, Err: core.ErrActionExecution}
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("action.call.panic", "action", a.name, "recover", r, "stack", string(debug.Stack()))

			result = nil
			err = &Error{
				Action:  a.name,
				Message: fmt.Sprintf("panic: %v", r),
				Code:    CodePanic,
				Err:     core.ErrActionExecution,
			}
		}
	}()

	result, err = a.fn(cc, args)
	if err != nil {
		var actionErr *Error
		if errors.As(err, &actionErr) {
			if actionErr.Err == nil {
				actionErr.Err = core.ErrActionExecution
			}

			logger.Error("action.call.error", "action", a.name, "error", actionErr.Message)

			return nil, actionErr
		}

		logger.Error("action.call.error", "action", a.name, "error", err.Error())

		return nil, &Error{
			Action:  a.name,
			Message: err.Error(),
			Code:    CodeExecution,
			Err:     fmt.Errorf("%w: %w", core.ErrActionExecution, err),
		}
	}

	logger.Info("action.call.success", "action", a.name, "duration_ms", time.Since(start).Milliseconds())

	return result, nil
}

// Error represents a failed action invocation.
type Error struct {
	Action  string `json:"action"`            // Name of the action that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
	Err     error  `json:"-"`                 // Wrapped sentinel
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("action error [%s] in %s: %s", e.Code, e.Action, e.Message)
	}

	return fmt.Sprintf("action error in %s: %s", e.Action, e.Message)
}

// Unwrap exposes the wrapped sentinel to errors.Is.
func (e *Error) Unwrap() error { return e.Err }

// NewError creates an *Error a handler can return to control the reported code.
func NewError(action, message, code string) *Error {
	return &Error{
		Action:  action,
		Message: message,
		Code:    code,
	}
}
