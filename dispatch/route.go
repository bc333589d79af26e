package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hupe1980/actionweave/action"
	"github.com/hupe1980/actionweave/core"
	"github.com/hupe1980/actionweave/logging"
	"github.com/hupe1980/actionweave/model"
)

// route applies one logical (non-streamed) response to the run.
func (l *Loop) route(ctx context.Context, rs *run, resp model.Response) (*Result, error) {
	content := withCallIDs(resp.Content)
	calls := content.FunctionCalls()

	switch {
	case len(calls) == 1:
		rs.transcript = append(rs.transcript, content)

		call := calls[0]

		a, err := l.registry.Get(call.Name)
		if err != nil {
			return nil, l.unknownAction(rs, call, err)
		}

		value, err := l.invoke(ctx, rs, a, call)
		if err != nil {
			return nil, err
		}

		if a.Terminal() {
			rs.logger.Info("dispatch.action.terminal", "action", a.Name(), "function_call_id", call.ID)
			return &Result{Action: &ActionResult{Name: a.Name(), CallID: call.ID, Value: value}}, nil
		}

		rs.node = a.Name()

		return nil, nil
	case len(calls) > 1:
		rs.transcript = append(rs.transcript, content)

		rs.logger.Debug("dispatch.calls.batch", "count", len(calls), "node", rs.node)

		for _, call := range calls {
			a, err := l.registry.Get(call.Name)
			if err != nil {
				if err := l.unknownAction(rs, call, err); err != nil {
					return nil, err
				}
				continue
			}

			if _, err := l.invoke(ctx, rs, a, call); err != nil {
				return nil, err
			}
		}

		return nil, nil
	case content.HasText():
		if resp.FinishReason == model.FinishReasonStop {
			msg := content
			msg.Role = core.RoleAssistant

			return &Result{Message: &msg, FinishReason: resp.FinishReason}, nil
		}

		rs.logger.Debug("dispatch.text.continue", "finish_reason", resp.FinishReason)
		rs.transcript = append(rs.transcript, content)

		return nil, nil
	default:
		return nil, fmt.Errorf("%w: no text and no function calls (finish_reason=%q)", core.ErrUnsupportedResponse, resp.FinishReason)
	}
}

// unknownAction applies the OnUnknownAction hook. It returns err when no
// hook is installed or the hook fails.
func (l *Loop) unknownAction(rs *run, call core.FunctionCall, err error) error {
	rs.logger.Warn("dispatch.action.unknown", "action", call.Name, "function_call_id", call.ID)

	if l.opts.OnUnknownAction == nil {
		return err
	}

	contents, hookErr := l.opts.OnUnknownAction(call, err)
	if hookErr != nil {
		return hookErr
	}

	rs.transcript = append(rs.transcript, contents...)

	return nil
}

// invoke decodes the arguments of call, runs the action and appends its
// result message.
func (l *Loop) invoke(ctx context.Context, rs *run, a *action.Action, call core.FunctionCall) (any, error) {
	args, err := decodeArguments(call)
	if err != nil {
		rs.logger.Warn("dispatch.action.arguments", "action", call.Name, "error", err.Error())
		return nil, err
	}

	cc := core.NewCallContext(ctx, rs.id, call.ID, rs.state, rs.logger)

	start := time.Now()
	value, err := a.Call(cc, args)
	dur := time.Since(start)

	if rec, ok := rs.logger.(logging.CallRecorder); ok {
		rec.LogActionCall(a.Name(), dur, err)
	} else {
		rs.logger.Info("dispatch.action.executed", "action", a.Name(), "duration_ms", dur.Milliseconds(), "error", err != nil)
	}

	if err != nil {
		return nil, err
	}

	rs.transcript = append(rs.transcript, core.NewFunctionResponseContent(call.ID, a.Name(), value, nil))

	return value, nil
}

// decodeArguments parses the JSON arguments of call. Empty means no arguments.
func decodeArguments(call core.FunctionCall) (map[string]any, error) {
	args := map[string]any{}
	if call.Arguments == "" {
		return args, nil
	}

	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
		return nil, fmt.Errorf("%w: action %s: %v", core.ErrMalformedArguments, call.Name, err)
	}

	if args == nil {
		args = map[string]any{}
	}

	return args, nil
}

// withCallIDs returns content with a synthetic id on every call that lacks one.
func withCallIDs(content core.Content) core.Content {
	out := core.Content{Role: content.Role, Parts: make([]core.Part, len(content.Parts))}
	if out.Role == "" {
		out.Role = core.RoleAssistant
	}

	for i, p := range content.Parts {
		if fc, ok := p.(core.FunctionCallPart); ok && fc.FunctionCall.ID == "" {
			fc.FunctionCall.ID = "call_" + core.NewID()
			p = fc
		}
		out.Parts[i] = p
	}

	return out
}

// answerPending returns an error result for each call of the last assistant
// tool-call message that has no result yet, either in the tool messages
// following it or in extra.
func answerPending(transcript, extra []core.Content, err error) []core.Content {
	answered := map[string]bool{}
	for _, c := range extra {
		for _, fr := range c.FunctionResponses() {
			answered[fr.ID] = true
		}
	}

	var pending []core.FunctionCall

	for i := len(transcript) - 1; i >= 0; i-- {
		c := transcript[i]
		if c.Role == core.RoleTool {
			for _, fr := range c.FunctionResponses() {
				answered[fr.ID] = true
			}

			continue
		}

		pending = c.FunctionCalls()

		break
	}

	var out []core.Content

	for _, call := range pending {
		if !answered[call.ID] {
			out = append(out, core.NewFunctionResponseContent(call.ID, call.Name, nil, err))
		}
	}

	return out
}
