package stream

import (
	"context"
	"fmt"

	"github.com/hupe1980/actionweave/core"
	"github.com/hupe1980/actionweave/logging"
	"github.com/hupe1980/actionweave/model"
)

// Outcome is the result of handling one model call.
type Outcome struct {
	// Streamed is true when the call produced a plain-text stream that is
	// handed back live through Responses and Errors.
	Streamed  bool
	Responses <-chan model.Response
	Errors    <-chan error

	// Response is the single logical response when Streamed is false.
	Response model.Response
}

// Options configures an Aggregator.
type Options struct {
	Logger logging.Logger
}

// Aggregator turns the channels of a model call into one Outcome.
type Aggregator struct {
	logger logging.Logger
}

// New creates an Aggregator.
func New(optFns ...func(o *Options)) *Aggregator {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Aggregator{logger: opts.Logger}
}

// Handle consumes a model call. See the package documentation for the rules.
func (a *Aggregator) Handle(ctx context.Context, respCh <-chan model.Response, errCh <-chan error) (Outcome, error) {
	first, ok, err := next(ctx, &respCh, &errCh)
	if err != nil {
		return Outcome{}, err
	}

	if !ok {
		return Outcome{}, fmt.Errorf("%w: model produced no response", core.ErrUnsupportedResponse)
	}

	if !first.Partial {
		if err := a.drainExtra(ctx, respCh, errCh); err != nil {
			return Outcome{}, err
		}

		return Outcome{Response: first}, nil
	}

	if _, isText := first.DeltaText(); isText {
		a.logger.Debug("stream.live", "finish_reason", first.FinishReason)

		out, outErr := replay(ctx, first, respCh, errCh)

		return Outcome{Streamed: true, Responses: out, Errors: outErr}, nil
	}

	return a.drainMerge(ctx, first, respCh, errCh)
}

func (a *Aggregator) drainMerge(ctx context.Context, first model.Response, respCh <-chan model.Response, errCh <-chan error) (Outcome, error) {
	merged := map[string]any{}
	finishReason := first.FinishReason
	chunks := 1

	var final *model.Response

	if err := MergeDelta(merged, first.Delta); err != nil {
		return Outcome{}, err
	}

	for {
		r, ok, err := next(ctx, &respCh, &errCh)
		if err != nil {
			return Outcome{}, err
		}

		if !ok {
			break
		}

		chunks++

		if r.FinishReason != "" {
			finishReason = r.FinishReason
		}

		if !r.Partial {
			final = &r
			continue
		}

		if err := MergeDelta(merged, r.Delta); err != nil {
			return Outcome{}, err
		}
	}

	a.logger.Debug("stream.merged", "chunks", chunks, "finish_reason", finishReason)

	if final != nil {
		if final.FinishReason == "" {
			final.FinishReason = finishReason
		}

		return Outcome{Response: *final}, nil
	}

	content, err := Content(merged)
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{Response: model.Response{Content: content, FinishReason: finishReason}}, nil
}

func (a *Aggregator) drainExtra(ctx context.Context, respCh <-chan model.Response, errCh <-chan error) error {
	for {
		r, ok, err := next(ctx, &respCh, &errCh)
		if err != nil {
			return err
		}

		if !ok {
			return nil
		}

		a.logger.Warn("stream.extra_response_ignored", "partial", r.Partial)
	}
}

// next returns the next response. ok is false once the response channel is
// closed and no error is pending. A closed error channel is disabled.
func next(ctx context.Context, respCh *<-chan model.Response, errCh *<-chan error) (model.Response, bool, error) {
	for {
		if *respCh == nil && *errCh == nil {
			return model.Response{}, false, nil
		}

		select {
		case <-ctx.Done():
			return model.Response{}, false, ctx.Err()
		case r, ok := <-*respCh:
			if !ok {
				*respCh = nil
				continue
			}
			return r, true, nil
		case err, ok := <-*errCh:
			if !ok {
				*errCh = nil
				continue
			}
			if err != nil {
				return model.Response{}, false, err
			}
		}
	}
}

// replay forwards first followed by the rest of respCh, without buffering.
func replay(ctx context.Context, first model.Response, respCh <-chan model.Response, errCh <-chan error) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response)
	outErr := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(outErr)

		select {
		case <-ctx.Done():
			outErr <- ctx.Err()
			return
		case out <- first:
		}

		for {
			r, ok, err := next(ctx, &respCh, &errCh)
			if err != nil {
				outErr <- err
				return
			}

			if !ok {
				return
			}

			select {
			case <-ctx.Done():
				outErr <- ctx.Err()
				return
			case out <- r:
			}
		}
	}()

	return out, outErr
}
