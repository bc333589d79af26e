package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/actionweave/action"
	"github.com/hupe1980/actionweave/core"
	"github.com/hupe1980/actionweave/expr"
	"github.com/hupe1980/actionweave/logging"
	"github.com/hupe1980/actionweave/model"
	"github.com/hupe1980/actionweave/orchestration"
	"github.com/hupe1980/actionweave/stream"
	"github.com/hupe1980/actionweave/toolset"
)

// Options configures a Loop.
type Options struct {
	Logger logging.Logger
	// Instructions is sent as the system prompt of every model call.
	Instructions string
	// OnUnknownAction recovers calls of unregistered actions. Nil fails fast
	// with core.ErrUnknownAction.
	OnUnknownAction UnknownActionHandler
	// ErrorHandler may recover runtime errors. Nil propagates them.
	ErrorHandler ErrorHandler
	// MaxModelCalls bounds model round-trips per run; 0 means unlimited.
	MaxModelCalls int
	// FallbackToScope re-offers the scope entry after an action whose node
	// has no rule, instead of offering nothing.
	FallbackToScope bool
}

// WithUnknownActionRecovery installs RecoverUnknownAction.
func WithUnknownActionRecovery() func(o *Options) {
	return func(o *Options) { o.OnUnknownAction = RecoverUnknownAction }
}

// Loop drives turns over one registry and its compiled graph. A Loop holds no
// per-run state and may serve concurrent runs.
type Loop struct {
	llm        model.Model
	registry   *action.Registry
	graph      *orchestration.Graph
	aggregator *stream.Aggregator
	opts       Options
}

// New creates a Loop.
func New(llm model.Model, registry *action.Registry, graph *orchestration.Graph, optFns ...func(o *Options)) *Loop {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Loop{
		llm:        llm,
		registry:   registry,
		graph:      graph,
		aggregator: stream.New(func(o *stream.Options) { o.Logger = opts.Logger }),
		opts:       opts,
	}
}

// RunOptions configures one Run.
type RunOptions struct {
	// Scope selects the entry node. Defaults to action.DefaultScope.
	Scope string
	// Override is compiled into a one-off graph that replaces the scope
	// entry for this run.
	Override expr.Element
	// OverrideGraph is a precompiled override; it takes precedence over Override.
	OverrideGraph *orchestration.Graph
	// Stream requests incremental model output.
	Stream bool
	// RunID correlates logs and call contexts. Generated when empty.
	RunID string
	// State is the scratchpad shared by the run's actions. Created when nil.
	State *core.RunState
}

// ActionResult is the outcome of the terminal action of a run.
type ActionResult struct {
	Name   string
	CallID string
	Value  any
}

// Result is the outcome of a Run. Exactly one of Message, Action or Stream is set.
type Result struct {
	RunID string

	// Message is the final assistant message.
	Message      *core.Content
	FinishReason string

	// Stream and Errors carry a live plain-text answer.
	Stream <-chan model.Response
	Errors <-chan error

	// Action is set when a terminal action ended the run.
	Action *ActionResult

	// Transcript is the run's transcript including everything appended.
	Transcript []core.Content
	ModelCalls int
}

// run is the state of one Run.
type run struct {
	id         string
	node       string
	transcript []core.Content
	state      *core.RunState
	resolver   *toolset.Resolver
	limiter    *core.CallLimiter
	logger     logging.Logger
	stream     bool
}

// Run executes one turn starting from transcript. The caller's slice is never modified.
func (l *Loop) Run(ctx context.Context, transcript []core.Content, optFns ...func(o *RunOptions)) (*Result, error) {
	opts := RunOptions{
		Scope: action.DefaultScope,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Scope == "" {
		opts.Scope = action.DefaultScope
	}

	if opts.RunID == "" {
		opts.RunID = core.NewID()
	}

	if opts.State == nil {
		opts.State = core.NewRunState()
	}

	override := opts.OverrideGraph
	if override == nil && opts.Override != nil {
		g, err := orchestration.CompileOverride(opts.Override, l.registry)
		if err != nil {
			return nil, err
		}

		override = g
	}

	resolver := toolset.NewResolver(l.graph, l.registry, opts.Scope, func(o *toolset.Options) {
		o.Override = override
		o.FallbackToScope = l.opts.FallbackToScope
	})

	rs := &run{
		id:         opts.RunID,
		node:       resolver.Entry(),
		transcript: core.CloneTranscript(transcript),
		state:      opts.State,
		resolver:   resolver,
		limiter:    core.NewCallLimiter(l.opts.MaxModelCalls),
		logger:     runLogger(l.opts.Logger, opts.RunID),
		stream:     opts.Stream,
	}

	rs.logger.Debug("dispatch.run.start", "scope", opts.Scope, "entry", rs.node, "override", override != nil, "stream", opts.Stream)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := rs.limiter.Acquire(); err != nil {
			rs.logger.Warn("dispatch.model.limit", "max", l.opts.MaxModelCalls)
			return nil, err
		}

		res, err := l.iterate(ctx, rs)
		if err != nil {
			if res, err = l.handleError(ctx, rs, err); err != nil {
				return nil, err
			}
		}

		if res != nil {
			res.RunID = rs.id
			res.Transcript = rs.transcript
			res.ModelCalls = rs.limiter.Count()

			rs.logger.Debug("dispatch.run.end", "model_calls", res.ModelCalls, "streamed", res.Stream != nil, "action", res.Action != nil)

			return res, nil
		}
	}
}

// iterate performs one model call and routes its response. A nil result
// with a nil error means the loop continues.
func (l *Loop) iterate(ctx context.Context, rs *run) (*Result, error) {
	directive, err := rs.resolver.Resolve(rs.node)
	if err != nil {
		return nil, err
	}

	req := model.Request{
		Instructions: l.opts.Instructions,
		Contents:     core.CloneTranscript(rs.transcript),
		Stream:       rs.stream,
	}
	directive.Apply(&req)

	rs.logger.Debug("dispatch.model.call", "node", rs.node, "mode", directive.Mode.String(), "tools", directive.Names())

	start := time.Now()
	respCh, errCh := l.llm.Generate(ctx, req)
	outcome, err := l.aggregator.Handle(ctx, respCh, errCh)
	l.recordModelCall(rs, len(directive.Tools), time.Since(start), err)

	if err != nil {
		return nil, err
	}

	if outcome.Streamed {
		return &Result{Stream: outcome.Responses, Errors: outcome.Errors}, nil
	}

	return l.route(ctx, rs, outcome.Response)
}

// handleError offers err to the ErrorHandler.
func (l *Loop) handleError(ctx context.Context, rs *run, err error) (*Result, error) {
	if l.opts.ErrorHandler == nil || ctx.Err() != nil || errors.Is(err, core.ErrModelCallLimit) {
		return nil, err
	}

	directive, _ := rs.resolver.Resolve(rs.node)

	rec := l.opts.ErrorHandler(err, LoopInfo{
		RunID:      rs.id,
		Node:       rs.node,
		Directive:  directive,
		Transcript: core.CloneTranscript(rs.transcript),
		ModelCalls: rs.limiter.Count(),
	})

	switch rec.Action {
	case RecoveryContinue:
		rs.logger.Warn("dispatch.error.recovered", "error", err.Error(), "action", "continue")
		rs.transcript = append(rs.transcript, answerPending(rs.transcript, rec.Content, err)...)
		rs.transcript = append(rs.transcript, rec.Content...)

		return nil, nil
	case RecoveryReturn:
		rs.logger.Warn("dispatch.error.recovered", "error", err.Error(), "action", "return")
		rs.transcript = append(rs.transcript, answerPending(rs.transcript, rec.Content, err)...)
		rs.transcript = append(rs.transcript, rec.Content...)

		res := &Result{FinishReason: model.FinishReasonStop}
		if n := len(rec.Content); n > 0 {
			msg := rec.Content[n-1]
			res.Message = &msg
		}

		return res, nil
	default:
		return nil, err
	}
}

func (l *Loop) recordModelCall(rs *run, tools int, dur time.Duration, err error) {
	if rec, ok := rs.logger.(logging.CallRecorder); ok {
		rec.LogModelCall(l.llm.Info().Name, tools, dur, err)
		return
	}

	if err != nil {
		rs.logger.Error("dispatch.model.error", "model", l.llm.Info().Name, "duration_ms", dur.Milliseconds(), "error", err.Error())
		return
	}

	rs.logger.Debug("dispatch.model.done", "model", l.llm.Info().Name, "duration_ms", dur.Milliseconds())
}

func runLogger(logger logging.Logger, runID string) logging.Logger {
	if sl, ok := logger.(*logging.StructuredLogger); ok {
		return sl.WithComponent("dispatch").WithRun(runID)
	}

	return logger
}

// String describes a result for logs and the CLI.
func (r *Result) String() string {
	switch {
	case r.Action != nil:
		return fmt.Sprintf("action %s -> %v", r.Action.Name, r.Action.Value)
	case r.Stream != nil:
		return "stream"
	case r.Message != nil:
		return r.Message.Text()
	default:
		return ""
	}
}
