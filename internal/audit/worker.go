package audit

import (
	"context"
	"errors"
	"log/slog"
)

// ErrPipeFull reports a dropped event; audit fan-out is best-effort and
// never backpressures the emitting request.
var ErrPipeFull = errors.New("audit pipe full")

// Pipe is a buffered Sink that hands events to a Worker instead of
// writing them inline. Emit stays fast even when the downstream sink
// (Kafka's synchronous produce) is slow; a full buffer drops the event
// rather than blocking the request.
type Pipe struct {
	inbox chan Event
}

// NewPipe constructs a Pipe with the given buffer size.
func NewPipe(size int) *Pipe {
	return &Pipe{inbox: make(chan Event, size)}
}

func (p *Pipe) Append(_ context.Context, event Event) error {
	select {
	case p.inbox <- event:
		return nil
	default:
		return ErrPipeFull
	}
}

// Worker drains a Pipe into a downstream sink.
type Worker struct {
	sink   Sink
	pipe   *Pipe
	logger *slog.Logger
}

func NewWorker(sink Sink, pipe *Pipe, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, pipe: pipe, logger: logger}
}

// Run forwards events until ctx is cancelled, then drains whatever is
// still buffered before returning.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case event := <-w.pipe.inbox:
			w.forward(ctx, event)
		}
	}
}

func (w *Worker) drain() {
	for {
		select {
		case event := <-w.pipe.inbox:
			w.forward(context.Background(), event)
		default:
			return
		}
	}
}

func (w *Worker) forward(ctx context.Context, event Event) {
	if err := w.sink.Append(ctx, event); err != nil && w.logger != nil {
		w.logger.ErrorContext(ctx, "failed to forward audit event",
			"action", event.Action, "error", err.Error())
	}
}
