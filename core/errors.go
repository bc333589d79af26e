package core

import "errors"

// Compile-time failures. Any of these prevents a conversation turn from starting.
var (
	// ErrDuplicateAction is returned when an action name is registered twice.
	ErrDuplicateAction = errors.New("duplicate action")
	// ErrUnknownAction is returned when a name is referenced (by an expression
	// or by the model) but absent from the registry.
	ErrUnknownAction = errors.New("unknown action")
	// ErrInvalidExpression marks a malformed sequencing declaration.
	ErrInvalidExpression = errors.New("invalid orchestration expression")
	// ErrInconsistentGraph marks two different rules compiled for one node.
	ErrInconsistentGraph = errors.New("inconsistent orchestration graph")
)

// Run-time failures surfaced from a dispatch turn.
var (
	// ErrMalformedArguments is returned when model arguments fail to parse or validate.
	ErrMalformedArguments = errors.New("malformed arguments")
	// ErrActionExecution wraps failures raised by an action handler.
	ErrActionExecution = errors.New("action execution failed")
	// ErrUnsupportedResponse marks a model response with no routable shape.
	ErrUnsupportedResponse = errors.New("unsupported model response")
	// ErrUnsupportedDelta marks a streamed fragment that cannot be merged.
	ErrUnsupportedDelta = errors.New("unsupported stream delta")
	// ErrModelCallLimit is returned once a run exceeds its model call budget.
	ErrModelCallLimit = errors.New("model call limit exceeded")
)
