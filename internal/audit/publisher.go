package audit

import (
	"context"

	id "vitrina/pkg/domain"
	"vitrina/pkg/requestcontext"
)

// Sink receives a copy of every emitted event. Sinks are best-effort; a
// failing sink never blocks the domain operation that emitted the event.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily. Additional
// sinks (the Kafka trail) fan out after the store write.
type Publisher struct {
	store Store
	sinks []Sink
}

func NewPublisher(store Store, sinks ...Sink) *Publisher {
	return &Publisher{store: store, sinks: sinks}
}

func (p *Publisher) Emit(ctx context.Context, base Event) error {
	if base.Timestamp.IsZero() {
		base.Timestamp = requestcontext.Now(ctx)
	}
	if err := p.store.Append(ctx, base); err != nil {
		return err
	}
	for _, sink := range p.sinks {
		_ = sink.Append(ctx, base)
	}
	return nil
}

func (p *Publisher) List(ctx context.Context, subjectID id.SubjectID) ([]Event, error) {
	return p.store.ListBySubject(ctx, subjectID)
}
