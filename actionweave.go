// Package actionweave provides a high-level façade for orchestrated LLM tool
// calling. Most applications:
//  1. Declare actions (action.New, action.NewFromStruct or a YAML manifest)
//  2. Collect them in an action.Registry
//  3. Create a Weaver via New, which compiles the orchestration graph once
//  4. Run conversation turns with Run or RunSync
//
// Compile errors (duplicate names, malformed expressions, conflicting rules)
// surface from New, before any model is called.
package actionweave

import (
	"context"
	"strings"

	"github.com/hupe1980/actionweave/action"
	"github.com/hupe1980/actionweave/core"
	"github.com/hupe1980/actionweave/dispatch"
	"github.com/hupe1980/actionweave/logging"
	"github.com/hupe1980/actionweave/model"
	"github.com/hupe1980/actionweave/orchestration"
)

// Options configures a Weaver.
type Options struct {
	// Instructions is sent as the system prompt of every model call.
	Instructions string

	// MaxModelCalls bounds model round-trips per run; 0 means unlimited.
	MaxModelCalls int

	// FallbackToScope re-offers the scope entry after actions without a
	// declared successor.
	FallbackToScope bool

	// OnUnknownAction recovers calls of unregistered actions. Nil fails fast.
	OnUnknownAction dispatch.UnknownActionHandler

	// ErrorHandler may recover runtime errors of a run.
	ErrorHandler dispatch.ErrorHandler

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Weaver binds a model to a registry and its compiled orchestration graph.
type Weaver struct {
	llm      model.Model
	registry *action.Registry
	graph    *orchestration.Graph
	loop     *dispatch.Loop
	opts     Options
}

// New compiles the orchestration graph of registry and creates a Weaver.
func New(llm model.Model, registry *action.Registry, optFns ...func(o *Options)) (*Weaver, error) {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	graph, err := orchestration.Compile(registry)
	if err != nil {
		return nil, err
	}

	opts.Logger.Debug("weaver.compiled", "actions", registry.Len(), "nodes", graph.Len(), "model", llm.Info().Name)

	return &Weaver{
		llm:      llm,
		registry: registry,
		graph:    graph,
		loop:     dispatch.New(llm, registry, graph, opts.dispatchOptions),
		opts:     opts,
	}, nil
}

func (o Options) dispatchOptions(d *dispatch.Options) {
	d.Logger = o.Logger
	d.Instructions = o.Instructions
	d.MaxModelCalls = o.MaxModelCalls
	d.FallbackToScope = o.FallbackToScope
	d.OnUnknownAction = o.OnUnknownAction
	d.ErrorHandler = o.ErrorHandler
}

// Registry returns the registry the Weaver was built from.
func (w *Weaver) Registry() *action.Registry { return w.registry }

// Graph returns the compiled orchestration graph.
func (w *Weaver) Graph() *orchestration.Graph { return w.graph }

// Run executes one conversation turn. A plain-text streamed answer is returned
// live through Result.Stream.
func (w *Weaver) Run(ctx context.Context, transcript []core.Content, optFns ...func(o *dispatch.RunOptions)) (*dispatch.Result, error) {
	return w.loop.Run(ctx, transcript, optFns...)
}

// RunSync is Run that drains a streamed answer into Result.Message.
func (w *Weaver) RunSync(ctx context.Context, transcript []core.Content, optFns ...func(o *dispatch.RunOptions)) (*dispatch.Result, error) {
	res, err := w.loop.Run(ctx, transcript, optFns...)
	if err != nil {
		return nil, err
	}

	if res.Stream == nil {
		return res, nil
	}

	msg, finish, err := Collect(ctx, res.Stream, res.Errors)
	if err != nil {
		return nil, err
	}

	res.Message = &msg
	res.FinishReason = finish
	res.Stream, res.Errors = nil, nil

	return res, nil
}

// Invoke runs a turn that offers only the named action. With force the model
// must call it once and then answers in plain text; without force it may call
// it or answer directly.
func (w *Weaver) Invoke(ctx context.Context, transcript []core.Content, name string, force bool, optFns ...func(o *dispatch.RunOptions)) (*dispatch.Result, error) {
	a, err := w.registry.Get(name)
	if err != nil {
		return nil, err
	}

	single := action.FromActions(a.WithoutOrchestration())

	graph, err := orchestration.Compile(single)
	if err != nil {
		return nil, err
	}

	var override *orchestration.Graph
	if force {
		if override, err = orchestration.ForceOnce(name, single); err != nil {
			return nil, err
		}
	}

	w.opts.Logger.Debug("weaver.invoke", "action", name, "force", force)

	loop := dispatch.New(w.llm, single, graph, w.opts.dispatchOptions)

	return loop.Run(ctx, transcript, append([]func(o *dispatch.RunOptions){func(o *dispatch.RunOptions) {
		o.Scope = a.Scope()
		o.OverrideGraph = override
	}}, optFns...)...)
}

// Collect drains a live text stream into one assistant message and returns
// the last finish reason seen.
func Collect(ctx context.Context, respCh <-chan model.Response, errCh <-chan error) (core.Content, string, error) {
	var (
		sb     strings.Builder
		finish string
	)

	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return core.Content{}, "", ctx.Err()
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}

			if text, ok := r.DeltaText(); ok {
				sb.WriteString(text)
			} else if !r.Partial {
				sb.WriteString(r.Content.Text())
			}

			if r.FinishReason != "" {
				finish = r.FinishReason
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}

			if err != nil {
				return core.Content{}, "", err
			}
		}
	}

	return core.NewTextContent(core.RoleAssistant, sb.String()), finish, nil
}
