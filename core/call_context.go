package core

import (
	"context"
	"sync"

	"github.com/hupe1980/actionweave/logging"
)

// RunState is a key/value scratchpad shared by every action invoked during one
// dispatch run. It never outlives the run.
type RunState struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewRunState creates an empty RunState.
func NewRunState() *RunState { return &RunState{values: map[string]any{}} }

// Get returns the value and existence flag for a key.
func (s *RunState) Get(k string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[k]

	return v, ok
}

// Set records a key/value pair.
func (s *RunState) Set(k string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[k] = v
}

// Snapshot returns a copy of all values.
func (s *RunState) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}

	return out
}

// CallContext is the constrained surface handed to an action handler for a
// single invocation: cancellation, correlation ids, the bound receiver (if
// the action was bound) and the run scratchpad.
type CallContext struct {
	ctx            context.Context
	runID          string
	functionCallID string
	action         string
	receiver       any
	state          *RunState

	*loggerAdapter
}

// NewCallContext constructs a call context for one function call. A nil state
// gets a private RunState.
func NewCallContext(ctx context.Context, runID, functionCallID string, state *RunState, logger logging.Logger) *CallContext {
	if ctx == nil {
		ctx = context.Background()
	}

	if state == nil {
		state = NewRunState()
	}

	return &CallContext{
		ctx:            ctx,
		runID:          runID,
		functionCallID: functionCallID,
		state:          state,
		loggerAdapter:  newLoggerAdapter(logger),
	}
}

// ForAction returns a copy addressed to the named action with the given receiver.
func (cc *CallContext) ForAction(name string, receiver any) *CallContext {
	c := *cc
	c.action = name
	c.receiver = receiver

	return &c
}

// Context returns the context associated with the invocation.
func (cc *CallContext) Context() context.Context { return cc.ctx }

// RunID returns the dispatch run identifier.
func (cc *CallContext) RunID() string { return cc.runID }

// FunctionCallID returns the provider call id this invocation answers.
func (cc *CallContext) FunctionCallID() string { return cc.functionCallID }

// Action returns the name of the invoked action.
func (cc *CallContext) Action() string { return cc.action }

// Receiver returns the value the action was bound to, or nil.
func (cc *CallContext) Receiver() any { return cc.receiver }

// Logger returns the logger associated with the invocation.
func (cc *CallContext) Logger() logging.Logger { return cc.loggerAdapter.Logger() }

// GetState reads a value from the run scratchpad.
func (cc *CallContext) GetState(k string) (any, bool) { return cc.state.Get(k) }

// SetState writes a value to the run scratchpad.
func (cc *CallContext) SetState(k string, v any) {
	cc.state.Set(k, v)
	cc.LogDebug("action.state.set", "action", cc.action, "key", k, "function_call_id", cc.functionCallID)
}
