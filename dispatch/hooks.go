package dispatch

import (
	"fmt"

	"github.com/hupe1980/actionweave/core"
	"github.com/hupe1980/actionweave/toolset"
)

// UnknownActionHandler decides what happens when the model requests an action
// that is not registered. The returned contents are appended to the
// transcript and the loop continues with the same node; a non-nil error
// aborts the turn.
type UnknownActionHandler func(call core.FunctionCall, err error) ([]core.Content, error)

// RecoverUnknownAction answers the unknown call with a tool-role error result
// naming the problem, so the model can correct itself on the next call.
func RecoverUnknownAction(call core.FunctionCall, _ error) ([]core.Content, error) {
	msg := fmt.Errorf("%w: %q is not an available action; call one of the offered tools or answer directly", core.ErrUnknownAction, call.Name)

	return []core.Content{core.NewFunctionResponseContent(call.ID, call.Name, nil, msg)}, nil
}

// RecoveryAction is the decision of an ErrorHandler.
type RecoveryAction int

const (
	// RecoveryFail propagates the error to the caller.
	RecoveryFail RecoveryAction = iota
	// RecoveryContinue appends Recovery.Content and asks the model again.
	RecoveryContinue
	// RecoveryReturn appends Recovery.Content and ends the turn with its last
	// element as the final message.
	RecoveryReturn
)

// Recovery is returned by an ErrorHandler.
//
// For RecoveryContinue and RecoveryReturn, every call of the pending
// assistant message left unanswered by both the transcript and Content gets
// a tool-role result carrying the error, placed before Content. The
// transcript never holds a tool call without a matching result.
type Recovery struct {
	Action  RecoveryAction
	Content []core.Content
}

// LoopInfo is the state visible to an ErrorHandler.
type LoopInfo struct {
	RunID      string
	Node       string
	Directive  toolset.Directive
	Transcript []core.Content
	ModelCalls int
}

// ErrorHandler may recover a runtime error of one iteration. Context
// cancellation and the model call limit are never offered to it.
type ErrorHandler func(err error, info LoopInfo) Recovery
